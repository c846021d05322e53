package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artxchange/artx-api/internal/domain"
)

func TestSimulatorChargeAndRefund(t *testing.T) {
	s := NewSimulator(0)
	ctx := context.Background()

	c, err := s.Charge(ctx, ChargeRequest{AccountID: "a1", Amount: 10, Method: domain.MethodPayPal})
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(10), c.Amount)
	assert.Len(t, s.Charges(), 1)

	require.NoError(t, s.Refund(ctx, c.ID))
	assert.True(t, s.Refunded(c.ID))
	assert.Empty(t, s.Charges())

	assert.Error(t, s.Refund(ctx, "sim_unknown"))
}

func TestSimulatorIdempotencyKey(t *testing.T) {
	s := NewSimulator(0)
	ctx := context.Background()
	req := ChargeRequest{Amount: 400, IdempotencyKey: "signup:artist@example.com"}

	first, err := s.Charge(ctx, req)
	require.NoError(t, err)
	second, err := s.Charge(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.Charges(), 1)
}

func TestSimulatorTimeout(t *testing.T) {
	s := NewSimulator(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Charge(ctx, ChargeRequest{Amount: 10})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, s.Charges())
}

func TestSimulatorFail(t *testing.T) {
	s := NewSimulator(0)
	s.Fail(ErrDeclined)

	_, err := s.Charge(context.Background(), ChargeRequest{Amount: 10})
	assert.True(t, errors.Is(err, ErrDeclined))

	s.Fail(nil)
	_, err = s.Charge(context.Background(), ChargeRequest{Amount: 10})
	assert.NoError(t, err)
}
