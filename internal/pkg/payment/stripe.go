package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/artxchange/artx-api/internal/domain"
)

// Stripe charges through PaymentIntents, confirmed on creation, in EUR.
type Stripe struct {
	api *client.API
}

// NewStripe returns a Stripe gateway. backends may be nil to use the live
// Stripe endpoints.
func NewStripe(secretKey string, backends *stripe.Backends) *Stripe {
	return &Stripe{
		api: client.New(secretKey, backends),
	}
}

func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(req.Amount)),
		Currency:           stripe.String(string(stripe.CurrencyEUR)),
		PaymentMethodTypes: stripe.StringSlice([]string{methodType(req.Method)}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	if req.Token != "" {
		params.PaymentMethod = stripe.String(req.Token)
	}
	params.Context = ctx
	params.AddMetadata("account_id", req.AccountID)
	params.AddMetadata("method", string(req.Method))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Charge{}, classify(err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return Charge{}, fmt.Errorf("%w: payment intent %s is %s", ErrDeclined, pi.ID, pi.Status)
	default:
		return Charge{}, fmt.Errorf("%w: payment intent %s is %s", ErrUnavailable, pi.ID, pi.Status)
	}

	return Charge{
		ID:        pi.ID,
		Amount:    domain.Cents(pi.Amount),
		Method:    req.Method,
		CreatedAt: time.Unix(pi.Created, 0),
	}, nil
}

func (s *Stripe) Refund(ctx context.Context, chargeID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
	}
	params.Context = ctx

	if _, err := s.api.Refunds.New(params); err != nil {
		return classify(err)
	}

	return nil
}

func methodType(m domain.PaymentMethod) string {
	switch m {
	case domain.MethodSEPA:
		return "sepa_debit"
	case domain.MethodPayPal:
		return "paypal"
	default:
		// Apple Pay and Google Pay reach Stripe as card payments.
		return "card"
	}
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrDeclined, serr.Msg)
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
