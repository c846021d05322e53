// Package payment charges votes, donations, tickets and registration fees.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/artxchange/artx-api/internal/domain"
)

var (
	ErrDeclined    = errors.New("payment declined")
	ErrUnavailable = errors.New("payment provider unavailable")
)

type ChargeRequest struct {
	AccountID   string
	Amount      domain.Cents
	Method      domain.PaymentMethod
	Description string
	// Token is the provider's client-side payment method reference.
	Token string
	// IdempotencyKey makes retried charges for the same action collapse
	// into one.
	IdempotencyKey string
}

type Charge struct {
	ID        string
	Amount    domain.Cents
	Method    domain.PaymentMethod
	CreatedAt time.Time
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
	Refund(ctx context.Context, chargeID string) error
}
