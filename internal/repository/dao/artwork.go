package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrVoteExists      = errors.New("vote already recorded")
)

type Artwork struct {
	ID          string   `gorm:"primaryKey"`
	ArtistID    string   `gorm:"not null;index"`
	Title       string   `gorm:"not null"`
	Description string
	ImageURL    string
	Category    string
	Hashtags    []string `gorm:"serializer:json"`
	Votes       int      `gorm:"not null;default:0"`
	Removed     bool     `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Vote struct {
	ID        string `gorm:"primaryKey"`
	AccountID string `gorm:"not null;uniqueIndex:idx_votes_account_artwork"`
	ArtworkID string `gorm:"not null;uniqueIndex:idx_votes_account_artwork;index"`
	DeviceID  string
	FeeCents  int64  `gorm:"not null"`
	Method    string `gorm:"not null"`
	ChargeID  string `gorm:"not null"`
	Voided    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

type Donation struct {
	ID            string `gorm:"primaryKey"`
	FromAccountID string `gorm:"not null;index"`
	ToArtistID    string `gorm:"not null;index"`
	ArtworkID     string
	AmountCents   int64 `gorm:"not null"`
	ArtistCents   int64 `gorm:"not null"`
	TaxCents      int64 `gorm:"not null"`
	Message       string
	Method        string `gorm:"not null"`
	TermsAccepted bool   `gorm:"not null"`
	ChargeID      string `gorm:"not null"`
	CreatedAt     time.Time
}

type ArtworkDAO struct {
	db *gorm.DB
}

func NewArtworkDAO(db *gorm.DB) *ArtworkDAO {
	return &ArtworkDAO{
		db: db,
	}
}

// InsertArtwork stores a submission together with the submitting account's
// counters.
func (d *ArtworkDAO) InsertArtwork(ctx context.Context, account Account, artwork Artwork) (Account, Artwork, error) {
	var saved Account
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if saved, err = saveAccount(tx, account); err != nil {
			return err
		}
		return tx.Create(&artwork).Error
	})
	if err != nil {
		return Account{}, Artwork{}, err
	}

	return saved, artwork, nil
}

func (d *ArtworkDAO) FindByID(ctx context.Context, id string) (Artwork, error) {
	var artwork Artwork

	result := d.db.WithContext(ctx).First(&artwork, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Artwork{}, ErrArtworkNotFound
		}

		return Artwork{}, result.Error
	}

	return artwork, nil
}

func (d *ArtworkDAO) VoteExists(ctx context.Context, accountID, artworkID string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Vote{}).
		Where("account_id = ? AND artwork_id = ?", accountID, artworkID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// InsertVote stores vote, bumps the artwork tally and saves the voter's
// counters in one transaction.
func (d *ArtworkDAO) InsertVote(ctx context.Context, account Account, vote Vote) (Account, Artwork, error) {
	var (
		saved   Account
		artwork Artwork
	)
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if saved, err = saveAccount(tx, account); err != nil {
			return err
		}

		if err = tx.Create(&vote).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrVoteExists
			}
			return err
		}

		result := tx.Model(&Artwork{}).
			Where("id = ? AND removed = ?", vote.ArtworkID, false).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrArtworkNotFound
		}

		return tx.First(&artwork, "id = ?", vote.ArtworkID).Error
	})
	if err != nil {
		return Account{}, Artwork{}, err
	}

	return saved, artwork, nil
}

func (d *ArtworkDAO) InsertDonation(ctx context.Context, account Account, donation Donation) (Account, error) {
	var saved Account
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if saved, err = saveAccount(tx, account); err != nil {
			return err
		}
		return tx.Create(&donation).Error
	})
	if err != nil {
		return Account{}, err
	}

	return saved, nil
}

func (d *ArtworkDAO) ListVotes(ctx context.Context, accountID string) ([]Vote, error) {
	var votes []Vote

	result := d.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at").Find(&votes)
	if result.Error != nil {
		return nil, result.Error
	}

	return votes, nil
}
