package service

import (
	"context"
	"fmt"

	"github.com/artxchange/artx-api/internal/domain"
)

type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{
		repo: repo,
	}
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return account, nil
}

// SetRole changes an account's role. It is used to appoint moderators.
func (s *AccountService) SetRole(ctx context.Context, email string, role domain.Role) (domain.Account, error) {
	if role != domain.RoleMember && role != domain.RoleModerator {
		return domain.Account{}, invalid("unknown role %q", role)
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}
	account.Role = role

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}
