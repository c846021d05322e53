package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/repository/dao"
)

var (
	ErrAccountEmailExists = dao.ErrAccountEmailExists
	ErrAccountNotFound    = dao.ErrAccountNotFound
	ErrVersionConflict    = dao.ErrVersionConflict
)

type AccountDAO interface {
	Insert(ctx context.Context, account dao.Account) (dao.Account, error)
	FindByID(ctx context.Context, id string) (dao.Account, error)
	FindByEmail(ctx context.Context, email string) (dao.Account, error)
	Update(ctx context.Context, account dao.Account) (dao.Account, error)
}

type AccountRepository struct {
	dao AccountDAO
}

func NewAccountRepository(dao AccountDAO) *AccountRepository {
	return &AccountRepository{
		dao: dao,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	created, err := r.dao.Insert(ctx, accountToDAO(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return accountToDomain(created), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return accountToDomain(found), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return accountToDomain(found), nil
}

func (r *AccountRepository) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	updated, err := r.dao.Update(ctx, accountToDAO(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return accountToDomain(updated), nil
}

func accountToDAO(a domain.Account) dao.Account {
	return dao.Account{
		ID:                        a.ID,
		Email:                     a.Email,
		Name:                      a.Name,
		PasswordHash:              a.PasswordHash,
		Kind:                      string(a.Kind),
		Role:                      string(a.Role),
		Bio:                       a.Bio,
		Categories:                slices.Clone(a.Categories),
		Country:                   a.Country,
		PassportID:                a.PassportID,
		CompanyName:               a.CompanyName,
		Handelsregisternummer:     a.Handelsregisternummer,
		TaxVATNumber:              a.TaxVATNumber,
		MonthlySubmissions:        a.MonthlySubmissions,
		MaxMonthlySubmissions:     a.MaxMonthlySubmissions,
		LastSubmissionDate:        a.LastSubmissionDate,
		MonthlyEvents:             a.MonthlyEvents,
		LastEventDate:             a.LastEventDate,
		DailyVotes:                a.DailyVotes,
		LastVoteDate:              a.LastVoteDate,
		DailyDonations:            a.DailyDonations,
		LastDonationDate:          a.LastDonationDate,
		Status:                    string(a.Status),
		StatusReason:              a.StatusReason,
		StatusChangedAt:           a.StatusChangedAt,
		SuspendedUntil:            a.SuspendedUntil,
		StatusActionID:            a.StatusActionID,
		SubmissionsSuspendedUntil: a.SubmissionsSuspendedUntil,
		SubmissionsBanned:         a.SubmissionsBanned,
		SubmissionsActionID:       a.SubmissionsActionID,
		RegistrationFeePaid:       a.RegistrationFeePaid,
		JoinDate:                  a.JoinDate,
		Version:                   a.Version,
	}
}

func accountToDomain(a dao.Account) domain.Account {
	return domain.Account{
		ID:                        a.ID,
		Email:                     a.Email,
		Name:                      a.Name,
		PasswordHash:              a.PasswordHash,
		Kind:                      domain.AccountKind(a.Kind),
		Role:                      domain.Role(a.Role),
		Bio:                       a.Bio,
		Categories:                a.Categories,
		Country:                   a.Country,
		PassportID:                a.PassportID,
		CompanyName:               a.CompanyName,
		Handelsregisternummer:     a.Handelsregisternummer,
		TaxVATNumber:              a.TaxVATNumber,
		MonthlySubmissions:        a.MonthlySubmissions,
		MaxMonthlySubmissions:     a.MaxMonthlySubmissions,
		LastSubmissionDate:        a.LastSubmissionDate,
		MonthlyEvents:             a.MonthlyEvents,
		LastEventDate:             a.LastEventDate,
		DailyVotes:                a.DailyVotes,
		LastVoteDate:              a.LastVoteDate,
		DailyDonations:            a.DailyDonations,
		LastDonationDate:          a.LastDonationDate,
		Status:                    domain.AccountStatus(a.Status),
		StatusReason:              a.StatusReason,
		StatusChangedAt:           a.StatusChangedAt,
		SuspendedUntil:            a.SuspendedUntil,
		StatusActionID:            a.StatusActionID,
		SubmissionsSuspendedUntil: a.SubmissionsSuspendedUntil,
		SubmissionsBanned:         a.SubmissionsBanned,
		SubmissionsActionID:       a.SubmissionsActionID,
		RegistrationFeePaid:       a.RegistrationFeePaid,
		JoinDate:                  a.JoinDate,
		Version:                   a.Version,
	}
}
