package repository

import (
	"context"
	"fmt"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/repository/dao"
)

var (
	ErrEnforcementNotFound = dao.ErrEnforcementNotFound
	ErrAppealNotFound      = dao.ErrAppealNotFound
	ErrAppealExists        = dao.ErrAppealExists
)

type ModerationDAO interface {
	CountOffenses(ctx context.Context, accountID, category string) (int64, error)
	InsertEnforcement(ctx context.Context, account dao.Account, action dao.Enforcement) (dao.Account, error)
	FindEnforcement(ctx context.Context, id string) (dao.Enforcement, error)
	ListEnforcements(ctx context.Context, accountID string) ([]dao.Enforcement, error)
	OpenAppealExists(ctx context.Context, enforcementID string) (bool, error)
	InsertAppeal(ctx context.Context, appeal dao.Appeal) (dao.Appeal, error)
	FindAppeal(ctx context.Context, id string) (dao.Appeal, error)
	UpdateAppeal(ctx context.Context, appeal dao.Appeal) (dao.Appeal, error)
	ResolveAppeal(ctx context.Context, appeal dao.Appeal, account *dao.Account, action *dao.Enforcement) error
}

type ModerationRepository struct {
	dao ModerationDAO
}

func NewModerationRepository(dao ModerationDAO) *ModerationRepository {
	return &ModerationRepository{
		dao: dao,
	}
}

func (r *ModerationRepository) CountOffenses(ctx context.Context, accountID string, category domain.ViolationCategory) (int, error) {
	count, err := r.dao.CountOffenses(ctx, accountID, string(category))
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountOffenses -> %w", err)
	}

	return int(count), nil
}

func (r *ModerationRepository) CommitEnforcement(ctx context.Context, account domain.Account, action domain.EnforcementAction) (domain.Account, error) {
	saved, err := r.dao.InsertEnforcement(ctx, accountToDAO(account), enforcementToDAO(action))
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.InsertEnforcement -> %w", err)
	}

	return accountToDomain(saved), nil
}

func (r *ModerationRepository) FindEnforcement(ctx context.Context, id string) (domain.EnforcementAction, error) {
	found, err := r.dao.FindEnforcement(ctx, id)
	if err != nil {
		return domain.EnforcementAction{}, fmt.Errorf("r.dao.FindEnforcement -> %w", err)
	}

	return enforcementToDomain(found), nil
}

func (r *ModerationRepository) ListEnforcements(ctx context.Context, accountID string) ([]domain.EnforcementAction, error) {
	found, err := r.dao.ListEnforcements(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListEnforcements -> %w", err)
	}

	actions := make([]domain.EnforcementAction, 0, len(found))
	for _, a := range found {
		actions = append(actions, enforcementToDomain(a))
	}

	return actions, nil
}

func (r *ModerationRepository) HasOpenAppeal(ctx context.Context, enforcementID string) (bool, error) {
	open, err := r.dao.OpenAppealExists(ctx, enforcementID)
	if err != nil {
		return false, fmt.Errorf("r.dao.OpenAppealExists -> %w", err)
	}

	return open, nil
}

func (r *ModerationRepository) CreateAppeal(ctx context.Context, appeal domain.Appeal) (domain.Appeal, error) {
	created, err := r.dao.InsertAppeal(ctx, appealToDAO(appeal))
	if err != nil {
		return domain.Appeal{}, fmt.Errorf("r.dao.InsertAppeal -> %w", err)
	}

	return appealToDomain(created), nil
}

func (r *ModerationRepository) FindAppeal(ctx context.Context, id string) (domain.Appeal, error) {
	found, err := r.dao.FindAppeal(ctx, id)
	if err != nil {
		return domain.Appeal{}, fmt.Errorf("r.dao.FindAppeal -> %w", err)
	}

	return appealToDomain(found), nil
}

func (r *ModerationRepository) UpdateAppeal(ctx context.Context, appeal domain.Appeal) (domain.Appeal, error) {
	updated, err := r.dao.UpdateAppeal(ctx, appealToDAO(appeal))
	if err != nil {
		return domain.Appeal{}, fmt.Errorf("r.dao.UpdateAppeal -> %w", err)
	}

	return appealToDomain(updated), nil
}

func (r *ModerationRepository) CommitResolution(ctx context.Context, appeal domain.Appeal, account *domain.Account, action *domain.EnforcementAction) error {
	var (
		daoAccount *dao.Account
		daoAction  *dao.Enforcement
	)
	if account != nil {
		a := accountToDAO(*account)
		daoAccount = &a
	}
	if action != nil {
		e := enforcementToDAO(*action)
		daoAction = &e
	}

	if err := r.dao.ResolveAppeal(ctx, appealToDAO(appeal), daoAccount, daoAction); err != nil {
		return fmt.Errorf("r.dao.ResolveAppeal -> %w", err)
	}

	return nil
}

func enforcementToDAO(a domain.EnforcementAction) dao.Enforcement {
	c := a.Consequence
	return dao.Enforcement{
		ID:        a.ID,
		AccountID: a.AccountID,
		Category:  string(a.Category),
		Tier:      a.Tier,
		Consequence: dao.Consequence{
			Kind:          string(c.Kind),
			Days:          c.Days,
			Scope:         string(c.Scope),
			ResetVotes:    c.ResetVotes,
			RemoveContent: c.RemoveContent,
			Label:         c.Label,
		},
		ArtworkID:      a.ArtworkID,
		Note:           a.Note,
		AppliedAt:      a.AppliedAt,
		ResetsAt:       a.ResetsAt,
		AppealDeadline: a.AppealDeadline,
		Reverted:       a.Reverted,
	}
}

func enforcementToDomain(a dao.Enforcement) domain.EnforcementAction {
	c := a.Consequence
	return domain.EnforcementAction{
		ID:        a.ID,
		AccountID: a.AccountID,
		Category:  domain.ViolationCategory(a.Category),
		Tier:      a.Tier,
		Consequence: domain.Consequence{
			Kind:          domain.ConsequenceKind(c.Kind),
			Days:          c.Days,
			Scope:         domain.Scope(c.Scope),
			ResetVotes:    c.ResetVotes,
			RemoveContent: c.RemoveContent,
			Label:         c.Label,
		},
		ArtworkID:      a.ArtworkID,
		Note:           a.Note,
		AppliedAt:      a.AppliedAt,
		ResetsAt:       a.ResetsAt,
		AppealDeadline: a.AppealDeadline,
		Reverted:       a.Reverted,
	}
}

func appealToDAO(a domain.Appeal) dao.Appeal {
	attachments := make([]dao.Attachment, 0, len(a.Attachments))
	for _, att := range a.Attachments {
		attachments = append(attachments, dao.Attachment{Name: att.Name, ContentType: att.ContentType, Size: att.Size})
	}

	return dao.Appeal{
		ID:             a.ID,
		EnforcementID:  a.EnforcementID,
		AccountID:      a.AccountID,
		Email:          a.Email,
		Category:       string(a.Category),
		Reason:         a.Reason,
		Evidence:       a.Evidence,
		Attachments:    attachments,
		Status:         string(a.Status),
		Outcome:        string(a.Outcome),
		ModerationRef:  a.ModerationRef,
		ResolutionNote: a.ResolutionNote,
		SubmittedAt:    a.SubmittedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func appealToDomain(a dao.Appeal) domain.Appeal {
	var attachments []domain.Attachment
	for _, att := range a.Attachments {
		attachments = append(attachments, domain.Attachment{Name: att.Name, ContentType: att.ContentType, Size: att.Size})
	}

	return domain.Appeal{
		ID:             a.ID,
		EnforcementID:  a.EnforcementID,
		AccountID:      a.AccountID,
		Email:          a.Email,
		Category:       domain.ViolationCategory(a.Category),
		Reason:         a.Reason,
		Evidence:       a.Evidence,
		Attachments:    attachments,
		Status:         domain.AppealStatus(a.Status),
		Outcome:        domain.AppealOutcome(a.Outcome),
		ModerationRef:  a.ModerationRef,
		ResolutionNote: a.ResolutionNote,
		SubmittedAt:    a.SubmittedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
