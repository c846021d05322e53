package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrEventFull     = dao.ErrEventFull
)

type EventDAO interface {
	InsertEvent(ctx context.Context, account dao.Account, event dao.Event) (dao.Account, dao.Event, error)
	FindByID(ctx context.Context, id string) (dao.Event, error)
	InsertRegistration(ctx context.Context, reg dao.EventRegistration) (dao.Event, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) CommitEvent(ctx context.Context, account domain.Account, event domain.Event) (domain.Account, domain.Event, error) {
	savedAccount, savedEvent, err := r.dao.InsertEvent(ctx, accountToDAO(account), dao.Event{
		ID:          event.ID,
		CreatorID:   event.CreatorID,
		Title:       event.Title,
		Description: event.Description,
		Type:        string(event.Type),
		StartsAt:    event.StartsAt,
		Location:    event.Location,
		Address:     event.Address,
		Capacity:    event.Capacity,
		Registered:  event.Registered,
		PriceCents:  int64(event.Price),
		Hashtags:    slices.Clone(event.Hashtags),
		CreatedAt:   event.CreatedAt,
	})
	if err != nil {
		return domain.Account{}, domain.Event{}, fmt.Errorf("r.dao.InsertEvent -> %w", err)
	}

	return accountToDomain(savedAccount), eventToDomain(savedEvent), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventToDomain(found), nil
}

func (r *EventRepository) CommitRegistration(ctx context.Context, reg domain.EventRegistration) (domain.Event, error) {
	event, err := r.dao.InsertRegistration(ctx, dao.EventRegistration{
		ID:         reg.ID,
		EventID:    reg.EventID,
		AccountID:  reg.AccountID,
		Name:       reg.Name,
		Email:      reg.Email,
		Message:    reg.Message,
		Quantity:   reg.Quantity,
		TotalCents: int64(reg.Total),
		Method:     string(reg.Method),
		ChargeID:   reg.ChargeID,
		CreatedAt:  reg.CreatedAt,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.InsertRegistration -> %w", err)
	}

	return eventToDomain(event), nil
}

func eventToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:          e.ID,
		CreatorID:   e.CreatorID,
		Title:       e.Title,
		Description: e.Description,
		Type:        domain.EventType(e.Type),
		StartsAt:    e.StartsAt,
		Location:    e.Location,
		Address:     e.Address,
		Capacity:    e.Capacity,
		Registered:  e.Registered,
		Price:       domain.Cents(e.PriceCents),
		Hashtags:    e.Hashtags,
		CreatedAt:   e.CreatedAt,
	}
}
