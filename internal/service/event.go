package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/payment"
	"github.com/artxchange/artx-api/internal/repository"
)

type EventInput struct {
	AccountID   string
	Title       string
	Description string
	Type        domain.EventType
	StartsAt    time.Time
	Location    string
	Address     string
	Capacity    int
	Price       domain.Cents
	Hashtags    []string
}

func (e *Engine) CanCreateEvent(ctx context.Context, accountID string) (domain.Decision, error) {
	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return domain.Decision{}, err
	}

	return e.decide(domain.ActionCreateEvent, acc.EventDecision(now, p)), nil
}

func (e *Engine) CreateEvent(ctx context.Context, in EventInput) (domain.Event, error) {
	switch {
	case !slices.Contains(domain.EventTypes, in.Type):
		return domain.Event{}, invalid("unknown event type %q", in.Type)
	case in.Capacity < 1:
		return domain.Event{}, invalid("capacity must be positive")
	case in.Price < 0:
		return domain.Event{}, invalid("price must not be negative")
	case len(in.Hashtags) > maxHashtags:
		return domain.Event{}, invalid("at most %d hashtags", maxHashtags)
	}

	var created domain.Event
	err := e.withAccount(ctx, in.AccountID, func(acc *domain.Account, now time.Time, p domain.Policy) error {
		d := e.decide(domain.ActionCreateEvent, acc.EventDecision(now, p))
		if !d.Allowed {
			return d.Err(domain.ActionCreateEvent)
		}
		if !in.StartsAt.After(now) {
			return invalid("event must start in the future")
		}
		if err := acc.RecordEvent(now, p); err != nil {
			return violated(err)
		}

		event := domain.Event{
			ID:          uuid.NewString(),
			CreatorID:   acc.ID,
			Title:       in.Title,
			Description: in.Description,
			Type:        in.Type,
			StartsAt:    in.StartsAt,
			Location:    in.Location,
			Address:     in.Address,
			Capacity:    in.Capacity,
			Price:       in.Price,
			Hashtags:    in.Hashtags,
			CreatedAt:   now,
		}

		var err error
		if _, created, err = e.events.CommitEvent(ctx, *acc, event); err != nil {
			return fmt.Errorf("e.events.CommitEvent -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	return created, nil
}

type RegistrationInput struct {
	AccountID    string
	EventID      string
	Name         string
	Email        string
	Message      string
	Quantity     int
	Method       domain.PaymentMethod
	PaymentToken string
}

// RegisterForEvent reserves tickets, charging for paid events. Registrations
// for one event are serialized so a full event is never charged for.
func (e *Engine) RegisterForEvent(ctx context.Context, in RegistrationInput) (domain.EventRegistration, error) {
	acc, now, p, err := e.current(ctx, in.AccountID)
	if err != nil {
		return domain.EventRegistration{}, err
	}
	if d := acc.StatusDecision(); !d.Allowed {
		return domain.EventRegistration{}, e.decide(domain.ActionRegisterEvent, d).Err(domain.ActionRegisterEvent)
	}

	var reg domain.EventRegistration
	err = e.withKey(ctx, "event:"+in.EventID, func() error {
		event, err := e.events.FindByID(ctx, in.EventID)
		if err != nil {
			return fmt.Errorf("e.events.FindByID -> %w", err)
		}

		d := event.RegistrationDecision(now, in.Quantity, p)
		paid := event.Price > 0
		if d.Allowed && paid && !p.AcceptsTicketMethod(in.Method) {
			d = domain.Deny(domain.ReasonMethodNotAccepted)
		}
		if !e.decide(domain.ActionRegisterEvent, d).Allowed {
			return d.Err(domain.ActionRegisterEvent)
		}

		reg = domain.EventRegistration{
			ID:        uuid.NewString(),
			EventID:   event.ID,
			AccountID: acc.ID,
			Name:      in.Name,
			Email:     in.Email,
			Message:   in.Message,
			Quantity:  in.Quantity,
			Total:     event.Price.Times(in.Quantity),
			CreatedAt: now,
		}

		var c payment.Charge
		if paid {
			c, err = e.charge(ctx, payment.ChargeRequest{
				AccountID:      acc.ID,
				Amount:         reg.Total,
				Method:         in.Method,
				Description:    fmt.Sprintf("%d ticket(s) for %s", in.Quantity, event.Title),
				Token:          in.PaymentToken,
				IdempotencyKey: "registration:" + reg.ID,
			})
			if err != nil {
				return err
			}
			reg.Method = in.Method
			reg.ChargeID = c.ID
		}

		if _, err = e.events.CommitRegistration(ctx, reg); err != nil {
			if paid {
				e.refund(ctx, c, err)
			}
			if errors.Is(err, repository.ErrEventFull) {
				return domain.Deny(domain.ReasonEventFull).Err(domain.ActionRegisterEvent)
			}
			return fmt.Errorf("e.events.CommitRegistration -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.EventRegistration{}, err
	}

	return reg, nil
}
