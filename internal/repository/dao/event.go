package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("event has no capacity left")
)

type Event struct {
	ID          string `gorm:"primaryKey"`
	CreatorID   string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Type        string    `gorm:"not null"`
	StartsAt    time.Time `gorm:"not null"`
	Location    string
	Address     string
	Capacity    int      `gorm:"not null"`
	Registered  int      `gorm:"not null;default:0"`
	PriceCents  int64    `gorm:"not null;default:0"`
	Hashtags    []string `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventRegistration struct {
	ID         string `gorm:"primaryKey"`
	EventID    string `gorm:"not null;index"`
	AccountID  string `gorm:"not null;index"`
	Name       string `gorm:"not null"`
	Email      string `gorm:"not null"`
	Message    string
	Quantity   int   `gorm:"not null"`
	TotalCents int64 `gorm:"not null"`
	Method     string
	ChargeID   string
	CreatedAt  time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) InsertEvent(ctx context.Context, account Account, event Event) (Account, Event, error) {
	var saved Account
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if saved, err = saveAccount(tx, account); err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return Account{}, Event{}, err
	}

	return saved, event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id string) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// InsertRegistration reserves the tickets with a conditional update so two
// registrations can never overbook the event.
func (d *EventDAO) InsertRegistration(ctx context.Context, reg EventRegistration) (Event, error) {
	var event Event
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND registered + ? <= capacity", reg.EventID, reg.Quantity).
			UpdateColumn("registered", gorm.Expr("registered + ?", reg.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.First(&Event{}, "id = ?", reg.EventID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrEventNotFound
				}
				return err
			}
			return ErrEventFull
		}

		if err := tx.Create(&reg).Error; err != nil {
			return err
		}
		return tx.First(&event, "id = ?", reg.EventID).Error
	})
	if err != nil {
		return Event{}, err
	}

	return event, nil
}
