// Package moderation hands appeals to the moderation team and carries their
// decisions back.
package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/artxchange/artx-api/internal/domain"
)

var ErrUnavailable = errors.New("moderation queue unavailable")

type Queue interface {
	// SubmitAppeal returns the queue's reference for the appeal once the
	// queue has accepted it.
	SubmitAppeal(ctx context.Context, appeal domain.Appeal) (string, error)
}

// Update is a moderation decision on an appeal.
type Update struct {
	AppealID string               `json:"appeal_id"`
	Ref      string               `json:"ref,omitempty"`
	Status   domain.AppealStatus  `json:"status"`
	Outcome  domain.AppealOutcome `json:"outcome,omitempty"`
	Note     string               `json:"note,omitempty"`
	At       time.Time            `json:"at"`
}

type UpdateHandler func(ctx context.Context, u Update) error
