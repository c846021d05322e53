package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAccountEmailExists = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrVersionConflict    = errors.New("account was modified concurrently")
)

type Account struct {
	ID string `gorm:"primaryKey"`

	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Kind         string `gorm:"not null"` // "artist", "event-creator" or "guerrilla-partner"
	Role         string `gorm:"not null;default:member"`
	Bio          string

	Categories            []string `gorm:"serializer:json"`
	Country               string
	PassportID            string
	CompanyName           string
	Handelsregisternummer string
	TaxVATNumber          string

	MonthlySubmissions    int `gorm:"not null;default:0"`
	MaxMonthlySubmissions int `gorm:"not null;default:0"`
	LastSubmissionDate    time.Time
	MonthlyEvents         int `gorm:"not null;default:0"`
	LastEventDate         time.Time
	DailyVotes            int `gorm:"not null;default:0"`
	LastVoteDate          time.Time
	DailyDonations        int `gorm:"not null;default:0"`
	LastDonationDate      time.Time

	Status          string `gorm:"not null;default:active"`
	StatusReason    string
	StatusChangedAt time.Time
	SuspendedUntil  *time.Time
	StatusActionID  string

	SubmissionsSuspendedUntil *time.Time
	SubmissionsBanned         bool `gorm:"not null;default:false"`
	SubmissionsActionID       string

	RegistrationFeePaid bool `gorm:"not null;default:false"`
	JoinDate            time.Time

	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type AccountDAO struct {
	db *gorm.DB
}

func NewAccountDAO(db *gorm.DB) *AccountDAO {
	return &AccountDAO{
		db: db,
	}
}

func (d *AccountDAO) Insert(ctx context.Context, account Account) (Account, error) {
	account.Version = 1

	result := d.db.WithContext(ctx).Create(&account)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Account{}, ErrAccountEmailExists
		}

		return Account{}, result.Error
	}

	return account, nil
}

func (d *AccountDAO) FindByID(ctx context.Context, id string) (Account, error) {
	var account Account

	result := d.db.WithContext(ctx).First(&account, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, result.Error
	}

	return account, nil
}

func (d *AccountDAO) FindByEmail(ctx context.Context, email string) (Account, error) {
	var account Account

	result := d.db.WithContext(ctx).First(&account, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, result.Error
	}

	return account, nil
}

// Update writes account if its stored version still equals account.Version.
func (d *AccountDAO) Update(ctx context.Context, account Account) (Account, error) {
	return saveAccount(d.db.WithContext(ctx), account)
}

// saveAccount is the compare-and-swap every commit goes through. The caller
// passes the version it read; the saved row carries the next one.
func saveAccount(tx *gorm.DB, account Account) (Account, error) {
	read := account.Version
	account.Version = read + 1

	result := tx.Model(&account).
		Where("version = ?", read).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(account)
	if result.Error != nil {
		return Account{}, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&Account{}).Where("id = ?", account.ID).Count(&count).Error; err != nil {
			return Account{}, err
		}
		if count == 0 {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, fmt.Errorf("%w: account %s at version %d", ErrVersionConflict, account.ID, read)
	}

	return account, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
