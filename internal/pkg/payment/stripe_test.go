package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"

	"github.com/artxchange/artx-api/internal/domain"
)

func newTestStripe(t *testing.T, handler http.HandlerFunc) *Stripe {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return NewStripe("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestStripeCharge(t *testing.T) {
	var form url.Values
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_123","object":"payment_intent","amount":10,"currency":"eur","status":"succeeded","created":1760000000}`)
	})

	c, err := s.Charge(context.Background(), ChargeRequest{
		AccountID: "a1",
		Amount:    10,
		Method:    domain.MethodApplePay,
		Token:     "pm_card_visa",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", c.ID)
	assert.Equal(t, domain.Cents(10), c.Amount)

	assert.Equal(t, "10", form.Get("amount"))
	assert.Equal(t, "eur", form.Get("currency"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "true", form.Get("confirm"))
}

func TestStripeCardDeclined(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	})

	_, err := s.Charge(context.Background(), ChargeRequest{Amount: 500, Method: domain.MethodPayPal})
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestStripeServerError(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"type":"api_error","message":"boom"}}`)
	})

	_, err := s.Charge(context.Background(), ChargeRequest{Amount: 500, Method: domain.MethodSEPA})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMethodType(t *testing.T) {
	assert.Equal(t, "card", methodType(domain.MethodCreditCard))
	assert.Equal(t, "card", methodType(domain.MethodGooglePay))
	assert.Equal(t, "sepa_debit", methodType(domain.MethodSEPA))
	assert.Equal(t, "paypal", methodType(domain.MethodPayPal))
}
