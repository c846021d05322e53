package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/moderation"
	"github.com/artxchange/artx-api/internal/repository"
)

type EnforcementInput struct {
	AccountID string
	Category  domain.ViolationCategory
	// At is when the violation was recorded. Zero means now.
	At        time.Time
	ArtworkID string
	Note      string
}

// RecordEnforcement applies the next tier of the category's ladder to the
// account and opens the appeal window.
func (e *Engine) RecordEnforcement(ctx context.Context, in EnforcementInput) (domain.EnforcementAction, error) {
	if !in.Category.Valid() {
		return domain.EnforcementAction{}, invalid("unknown violation type %q", in.Category)
	}

	var action domain.EnforcementAction
	err := e.withAccount(ctx, in.AccountID, func(acc *domain.Account, now time.Time, p domain.Policy) error {
		prior, err := e.moderation.CountOffenses(ctx, acc.ID, in.Category)
		if err != nil {
			return fmt.Errorf("e.moderation.CountOffenses -> %w", err)
		}

		at := in.At
		if at.IsZero() {
			at = now
		}
		tier := domain.TierFor(prior)
		action = domain.EnforcementAction{
			ID:             uuid.NewString(),
			AccountID:      acc.ID,
			Category:       in.Category,
			Tier:           tier,
			Consequence:    p.Ladder(in.Category).At(tier),
			ArtworkID:      in.ArtworkID,
			Note:           in.Note,
			AppliedAt:      at,
			AppealDeadline: at.Add(p.AppealWindow),
		}
		action.ResetsAt = acc.ApplyConsequence(action)

		if _, err = e.moderation.CommitEnforcement(ctx, *acc, action); err != nil {
			return fmt.Errorf("e.moderation.CommitEnforcement -> %w", err)
		}

		zap.L().Info("enforcement recorded",
			zap.String("account_id", acc.ID),
			zap.String("category", string(in.Category)),
			zap.Int("tier", tier),
			zap.String("consequence", action.Consequence.Label),
		)
		return nil
	})
	if err != nil {
		return domain.EnforcementAction{}, err
	}

	return action, nil
}

func (e *Engine) Enforcements(ctx context.Context, accountID string) ([]domain.EnforcementAction, error) {
	actions, err := e.moderation.ListEnforcements(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("e.moderation.ListEnforcements -> %w", err)
	}

	return actions, nil
}

func (e *Engine) appealDecision(ctx context.Context, accountID, enforcementID string) (domain.EnforcementAction, domain.Decision, error) {
	action, err := e.moderation.FindEnforcement(ctx, enforcementID)
	if err != nil {
		return domain.EnforcementAction{}, domain.Decision{}, fmt.Errorf("e.moderation.FindEnforcement -> %w", err)
	}
	if action.AccountID != accountID {
		return domain.EnforcementAction{}, domain.Decision{}, ErrNotOwner
	}

	open, err := e.moderation.HasOpenAppeal(ctx, enforcementID)
	if err != nil {
		return domain.EnforcementAction{}, domain.Decision{}, fmt.Errorf("e.moderation.HasOpenAppeal -> %w", err)
	}

	d := action.AppealDecision(e.clock.Now(), e.Policy().AppealWindow, open)
	return action, e.decide(domain.ActionAppeal, d), nil
}

// CanAppeal reports whether the account may appeal the action now. Account
// status never blocks an appeal.
func (e *Engine) CanAppeal(ctx context.Context, accountID, enforcementID string) (domain.Decision, error) {
	_, d, err := e.appealDecision(ctx, accountID, enforcementID)
	return d, err
}

type AppealInput struct {
	AccountID     string
	EnforcementID string
	Email         string
	Category      domain.ViolationCategory
	Reason        string
	Evidence      string
	Attachments   []domain.Attachment
}

// SubmitAppeal hands the appeal to the moderation queue and stores it once
// the queue accepted it.
func (e *Engine) SubmitAppeal(ctx context.Context, in AppealInput) (domain.Appeal, error) {
	var created domain.Appeal
	err := e.withKey(ctx, "enforcement:"+in.EnforcementID, func() error {
		action, d, err := e.appealDecision(ctx, in.AccountID, in.EnforcementID)
		if err != nil {
			return err
		}
		if !d.Allowed {
			return d.Err(domain.ActionAppeal)
		}
		if in.Category != action.Category {
			return domain.Deny(domain.ReasonCategoryMismatch).Err(domain.ActionAppeal)
		}

		now := e.clock.Now()
		appeal := domain.Appeal{
			ID:            uuid.NewString(),
			EnforcementID: action.ID,
			AccountID:     in.AccountID,
			Email:         in.Email,
			Category:      in.Category,
			Reason:        in.Reason,
			Evidence:      in.Evidence,
			Attachments:   in.Attachments,
			Status:        domain.AppealSubmitted,
			SubmittedAt:   now,
			UpdatedAt:     now,
		}
		if err = appeal.Validate(e.Policy()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		if appeal.ModerationRef, err = e.submitToQueue(ctx, appeal); err != nil {
			return err
		}

		if created, err = e.moderation.CreateAppeal(ctx, appeal); err != nil {
			if errors.Is(err, repository.ErrAppealExists) {
				return domain.Deny(domain.ReasonAppealExists).Err(domain.ActionAppeal)
			}
			return fmt.Errorf("e.moderation.CreateAppeal -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Appeal{}, err
	}

	return created, nil
}

// ApplyModerationUpdate feeds a decision from the moderation queue back into
// the appeal's lifecycle.
func (e *Engine) ApplyModerationUpdate(ctx context.Context, u moderation.Update) error {
	switch u.Status {
	case domain.AppealUnderReview:
		_, err := e.StartReview(ctx, u.AppealID, u.Ref)
		return err
	case domain.AppealResolved:
		_, err := e.ResolveAppeal(ctx, u.AppealID, u.Outcome, u.Note)
		return err
	default:
		return invalid("unexpected appeal status %q", u.Status)
	}
}

func (e *Engine) withAppeal(ctx context.Context, appealID string, fn func(appeal *domain.Appeal) error) error {
	appeal, err := e.moderation.FindAppeal(ctx, appealID)
	if err != nil {
		return fmt.Errorf("e.moderation.FindAppeal -> %w", err)
	}

	return e.withKey(ctx, "enforcement:"+appeal.EnforcementID, func() error {
		// Re-read under the lock.
		appeal, err := e.moderation.FindAppeal(ctx, appealID)
		if err != nil {
			return fmt.Errorf("e.moderation.FindAppeal -> %w", err)
		}
		return fn(&appeal)
	})
}

func (e *Engine) StartReview(ctx context.Context, appealID, ref string) (domain.Appeal, error) {
	var updated domain.Appeal
	err := e.withAppeal(ctx, appealID, func(appeal *domain.Appeal) error {
		if err := appeal.Advance(domain.AppealUnderReview, "", e.clock.Now()); err != nil {
			return err
		}
		if ref != "" {
			appeal.ModerationRef = ref
		}

		var err error
		if updated, err = e.moderation.UpdateAppeal(ctx, *appeal); err != nil {
			return fmt.Errorf("e.moderation.UpdateAppeal -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Appeal{}, err
	}

	return updated, nil
}

// ResolveAppeal closes the appeal. An overturned appeal reverts the action:
// the restriction it imposed is lifted and removed content is restored.
// Votes voided by the action stay voided.
func (e *Engine) ResolveAppeal(ctx context.Context, appealID string, outcome domain.AppealOutcome, note string) (domain.Appeal, error) {
	var resolved domain.Appeal
	err := e.withAppeal(ctx, appealID, func(appeal *domain.Appeal) error {
		if err := appeal.Advance(domain.AppealResolved, outcome, e.clock.Now()); err != nil {
			return err
		}
		appeal.ResolutionNote = note
		resolved = *appeal

		if outcome != domain.OutcomeOverturned {
			if err := e.moderation.CommitResolution(ctx, *appeal, nil, nil); err != nil {
				return fmt.Errorf("e.moderation.CommitResolution -> %w", err)
			}
			return nil
		}

		action, err := e.moderation.FindEnforcement(ctx, appeal.EnforcementID)
		if err != nil {
			return fmt.Errorf("e.moderation.FindEnforcement -> %w", err)
		}

		return e.withAccount(ctx, action.AccountID, func(acc *domain.Account, now time.Time, _ domain.Policy) error {
			history, err := e.moderation.ListEnforcements(ctx, acc.ID)
			if err != nil {
				return fmt.Errorf("e.moderation.ListEnforcements -> %w", err)
			}

			acc.RevertConsequence(action, history, now)
			action.Reverted = true

			if err := e.moderation.CommitResolution(ctx, *appeal, acc, &action); err != nil {
				return fmt.Errorf("e.moderation.CommitResolution -> %w", err)
			}

			zap.L().Info("enforcement overturned",
				zap.String("account_id", acc.ID),
				zap.String("enforcement_id", action.ID),
			)
			return nil
		})
	})
	if err != nil {
		return domain.Appeal{}, err
	}

	return resolved, nil
}
