package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEnforcementNotFound = errors.New("enforcement action not found")
	ErrAppealNotFound      = errors.New("appeal not found")
	ErrAppealExists        = errors.New("an open appeal already exists for this enforcement action")
)

type Consequence struct {
	Kind          string `json:"kind"`
	Days          int    `json:"days,omitempty"`
	Scope         string `json:"scope"`
	ResetVotes    bool   `json:"reset_votes,omitempty"`
	RemoveContent bool   `json:"remove_content,omitempty"`
	Label         string `json:"label"`
}

type Enforcement struct {
	ID             string      `gorm:"primaryKey"`
	AccountID      string      `gorm:"not null;index:idx_enforcements_account_category"`
	Category       string      `gorm:"not null;index:idx_enforcements_account_category"`
	Tier           int         `gorm:"not null"`
	Consequence    Consequence `gorm:"serializer:json"`
	ArtworkID      string
	Note           string
	AppliedAt      time.Time `gorm:"not null"`
	ResetsAt       *time.Time
	AppealDeadline time.Time `gorm:"not null"`
	Reverted       bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Appeal struct {
	ID string `gorm:"primaryKey"`
	// Only one unresolved appeal may exist per enforcement action.
	EnforcementID  string `gorm:"not null;uniqueIndex:idx_appeals_open_enforcement,where:status <> 'resolved'"`
	AccountID      string `gorm:"not null;index"`
	Email          string `gorm:"not null"`
	Category       string `gorm:"not null"`
	Reason         string `gorm:"not null"`
	Evidence       string
	Attachments    []Attachment `gorm:"serializer:json"`
	Status         string       `gorm:"not null"`
	Outcome        string
	ModerationRef  string
	ResolutionNote string
	SubmittedAt    time.Time `gorm:"not null"`
	UpdatedAt      time.Time
}

type ModerationDAO struct {
	db *gorm.DB
}

func NewModerationDAO(db *gorm.DB) *ModerationDAO {
	return &ModerationDAO{
		db: db,
	}
}

// CountOffenses counts the account's standing actions in category. Reverted
// actions do not count towards the next tier.
func (d *ModerationDAO) CountOffenses(ctx context.Context, accountID, category string) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Enforcement{}).
		Where("account_id = ? AND category = ? AND reverted = ?", accountID, category, false).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// InsertEnforcement stores action, saves the account's new status and applies
// the action's side effects on votes and content.
func (d *ModerationDAO) InsertEnforcement(ctx context.Context, account Account, action Enforcement) (Account, error) {
	var saved Account
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if saved, err = saveAccount(tx, account); err != nil {
			return err
		}
		if err = tx.Create(&action).Error; err != nil {
			return err
		}

		if action.Consequence.ResetVotes {
			if err = voidVotes(tx, account.ID); err != nil {
				return err
			}
		}
		if action.Consequence.RemoveContent && action.ArtworkID != "" {
			err = tx.Model(&Artwork{}).
				Where("id = ? AND artist_id = ?", action.ArtworkID, account.ID).
				UpdateColumn("removed", true).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return saved, nil
}

// voidVotes takes every live vote of the account off its artwork's tally.
// The vote rows stay so the account cannot vote for the same artwork again.
func voidVotes(tx *gorm.DB, accountID string) error {
	var artworkIDs []string
	err := tx.Model(&Vote{}).
		Where("account_id = ? AND voided = ?", accountID, false).
		Pluck("artwork_id", &artworkIDs).Error
	if err != nil {
		return err
	}
	if len(artworkIDs) == 0 {
		return nil
	}

	err = tx.Model(&Vote{}).
		Where("account_id = ? AND voided = ?", accountID, false).
		UpdateColumn("voided", true).Error
	if err != nil {
		return err
	}

	return tx.Model(&Artwork{}).
		Where("id IN ? AND votes > 0", artworkIDs).
		UpdateColumn("votes", gorm.Expr("votes - ?", 1)).Error
}

func (d *ModerationDAO) FindEnforcement(ctx context.Context, id string) (Enforcement, error) {
	var action Enforcement

	result := d.db.WithContext(ctx).First(&action, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Enforcement{}, ErrEnforcementNotFound
		}

		return Enforcement{}, result.Error
	}

	return action, nil
}

func (d *ModerationDAO) ListEnforcements(ctx context.Context, accountID string) ([]Enforcement, error) {
	var actions []Enforcement

	result := d.db.WithContext(ctx).Where("account_id = ?", accountID).Order("applied_at").Find(&actions)
	if result.Error != nil {
		return nil, result.Error
	}

	return actions, nil
}

func (d *ModerationDAO) OpenAppealExists(ctx context.Context, enforcementID string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Appeal{}).
		Where("enforcement_id = ? AND status <> ?", enforcementID, "resolved").
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *ModerationDAO) InsertAppeal(ctx context.Context, appeal Appeal) (Appeal, error) {
	result := d.db.WithContext(ctx).Create(&appeal)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Appeal{}, ErrAppealExists
		}

		return Appeal{}, result.Error
	}

	return appeal, nil
}

func (d *ModerationDAO) FindAppeal(ctx context.Context, id string) (Appeal, error) {
	var appeal Appeal

	result := d.db.WithContext(ctx).First(&appeal, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Appeal{}, ErrAppealNotFound
		}

		return Appeal{}, result.Error
	}

	return appeal, nil
}

func (d *ModerationDAO) UpdateAppeal(ctx context.Context, appeal Appeal) (Appeal, error) {
	result := d.db.WithContext(ctx).Model(&appeal).
		Select("Status", "Outcome", "ModerationRef", "ResolutionNote", "UpdatedAt").
		Updates(appeal)
	if result.Error != nil {
		return Appeal{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Appeal{}, ErrAppealNotFound
	}

	return appeal, nil
}

// ResolveAppeal stores the resolved appeal. For an overturned appeal the
// caller passes the reverted account and action, which are saved with it.
func (d *ModerationDAO) ResolveAppeal(ctx context.Context, appeal Appeal, account *Account, action *Enforcement) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&appeal).
			Select("Status", "Outcome", "ResolutionNote", "UpdatedAt").
			Updates(appeal)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAppealNotFound
		}

		if account != nil {
			if _, err := saveAccount(tx, *account); err != nil {
				return err
			}
		}
		if action != nil {
			err := tx.Model(&Enforcement{}).Where("id = ?", action.ID).UpdateColumn("reverted", true).Error
			if err != nil {
				return err
			}
			if action.Consequence.RemoveContent && action.ArtworkID != "" {
				err = tx.Model(&Artwork{}).Where("id = ?", action.ArtworkID).UpdateColumn("removed", false).Error
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
}
