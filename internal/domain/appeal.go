package domain

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type AppealStatus string

const (
	AppealSubmitted   AppealStatus = "submitted"
	AppealUnderReview AppealStatus = "under_review"
	AppealResolved    AppealStatus = "resolved"
)

type AppealOutcome string

const (
	OutcomeUpheld     AppealOutcome = "upheld"
	OutcomeOverturned AppealOutcome = "overturned"
)

func (o AppealOutcome) Valid() bool {
	return o == OutcomeUpheld || o == OutcomeOverturned
}

var ErrInvalidAppealTransition = errors.New("invalid appeal status transition")

type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Appeal struct {
	ID             string            `json:"id"`
	EnforcementID  string            `json:"enforcement_id"`
	AccountID      string            `json:"account_id"`
	Email          string            `json:"email"`
	Category       ViolationCategory `json:"violation_type"`
	Reason         string            `json:"reason"`
	Evidence       string            `json:"evidence,omitempty"`
	Attachments    []Attachment      `json:"attachments,omitempty"`
	Status         AppealStatus      `json:"status"`
	Outcome        AppealOutcome     `json:"outcome,omitempty"`
	ModerationRef  string            `json:"moderation_ref,omitempty"`
	ResolutionNote string            `json:"resolution_note,omitempty"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (a Appeal) Open() bool {
	return a.Status != AppealResolved
}

// Validate checks the appeal form against p.
func (a Appeal) Validate(p Policy) error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.EnforcementID, validation.Required),
		validation.Field(&a.AccountID, validation.Required),
		validation.Field(&a.Email, validation.Required, is.Email),
		validation.Field(&a.Category, validation.Required, validation.By(knownCategory)),
		validation.Field(&a.Reason, validation.Required, validation.Length(1, 2000)),
		validation.Field(&a.Evidence, validation.Length(0, 5000)),
		validation.Field(&a.Attachments, validation.Length(0, p.MaxAppealAttachments)),
	)
	if err != nil {
		return err
	}

	for _, att := range a.Attachments {
		if !p.AcceptsContentType(att.ContentType) {
			return fmt.Errorf("attachment %q: content type %q not allowed", att.Name, att.ContentType)
		}
		if att.Size <= 0 || att.Size > p.MaxAttachmentBytes {
			return fmt.Errorf("attachment %q: size %d exceeds %d bytes", att.Name, att.Size, p.MaxAttachmentBytes)
		}
	}

	return nil
}

func knownCategory(value interface{}) error {
	c, _ := value.(ViolationCategory)
	if !c.Valid() {
		return fmt.Errorf("unknown violation type %q", c)
	}
	return nil
}

// Advance moves the appeal to status. Resolving requires an outcome.
func (a *Appeal) Advance(status AppealStatus, outcome AppealOutcome, at time.Time) error {
	switch {
	case a.Status == AppealSubmitted && status == AppealUnderReview:
	case (a.Status == AppealSubmitted || a.Status == AppealUnderReview) && status == AppealResolved:
		if !outcome.Valid() {
			return fmt.Errorf("%w: resolving needs an outcome", ErrInvalidAppealTransition)
		}
		a.Outcome = outcome
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidAppealTransition, a.Status, status)
	}
	a.Status = status
	a.UpdatedAt = at
	return nil
}
