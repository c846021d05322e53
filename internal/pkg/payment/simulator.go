package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Simulator is an in-process Gateway. It waits Delay before answering and
// can be told to fail. Used in tests and when no provider key is set.
type Simulator struct {
	Delay time.Duration

	mu      sync.Mutex
	fail    error
	charges map[string]Charge
	keys    map[string]string
	refunds map[string]bool
}

func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{
		Delay:   delay,
		charges: make(map[string]Charge),
		keys:    make(map[string]string),
		refunds: make(map[string]bool),
	}
}

// Fail makes every following Charge return err. Fail(nil) resets it.
func (s *Simulator) Fail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *Simulator) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	if err := s.wait(ctx); err != nil {
		return Charge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return Charge{}, s.fail
	}
	if req.Amount <= 0 {
		return Charge{}, fmt.Errorf("%w: amount %s", ErrDeclined, req.Amount)
	}
	if id, ok := s.keys[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return s.charges[id], nil
	}

	c := Charge{
		ID:        "sim_" + uuid.NewString(),
		Amount:    req.Amount,
		Method:    req.Method,
		CreatedAt: time.Now(),
	}
	s.charges[c.ID] = c
	if req.IdempotencyKey != "" {
		s.keys[req.IdempotencyKey] = c.ID
	}

	return c, nil
}

func (s *Simulator) Refund(ctx context.Context, chargeID string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.charges[chargeID]; !ok {
		return fmt.Errorf("unknown charge %q", chargeID)
	}
	s.refunds[chargeID] = true

	return nil
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(s.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}

// Charges returns every charge that was not refunded.
func (s *Simulator) Charges() []Charge {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Charge, 0, len(s.charges))
	for id, c := range s.charges {
		if !s.refunds[id] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Simulator) Refunded(chargeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refunds[chargeID]
}
