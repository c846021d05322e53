package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artxchange/artx-api/internal/domain"
)

// Memory keeps submitted appeals in process.
type Memory struct {
	Delay time.Duration

	mu        sync.Mutex
	fail      error
	submitted []domain.Appeal
}

func NewMemory() *Memory {
	return &Memory{}
}

// Fail makes every following SubmitAppeal return err. Fail(nil) resets it.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *Memory) SubmitAppeal(ctx context.Context, appeal domain.Appeal) (string, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return "", m.fail
	}
	m.submitted = append(m.submitted, appeal)

	return "mod_" + uuid.NewString(), nil
}

func (m *Memory) Submitted() []domain.Appeal {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Appeal, len(m.submitted))
	copy(out, m.submitted)
	return out
}
