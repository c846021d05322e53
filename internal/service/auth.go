package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/payment"
	"github.com/artxchange/artx-api/internal/repository"
)

type AuthAccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
}

type AuthService struct {
	repo   AuthAccountRepository
	engine *Engine
}

func NewAuthService(repo AuthAccountRepository, engine *Engine) *AuthService {
	return &AuthService{
		repo:   repo,
		engine: engine,
	}
}

type SignupInput struct {
	Account      domain.Account
	Password     string
	Method       domain.PaymentMethod
	PaymentToken string
}

// Signup charges the registration fee and creates the account. Nothing is
// created when the charge fails, and the fee is refunded when the account
// cannot be stored.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.Account, error) {
	account := in.Account
	if !account.Kind.Valid() {
		return domain.Account{}, invalid("unknown account kind %q", account.Kind)
	}
	if err := s.checkEmailExists(ctx, account.Email); err != nil {
		return domain.Account{}, err
	}

	p := s.engine.Policy()
	if !p.AcceptsSignupMethod(in.Method) {
		d := s.engine.decide(domain.ActionSignup, domain.Deny(domain.ReasonMethodNotAccepted))
		return domain.Account{}, d.Err(domain.ActionSignup)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := s.engine.clock.Now()
	account.ID = uuid.NewString()
	account.PasswordHash = hashedPassword
	account.Role = domain.RoleMember
	account.Status = domain.StatusActive
	account.StatusChangedAt = now
	account.JoinDate = now

	c, err := s.engine.charge(ctx, payment.ChargeRequest{
		AccountID:      account.ID,
		Amount:         p.RegistrationFeeCents,
		Method:         in.Method,
		Description:    "ArtXchange registration fee",
		Token:          in.PaymentToken,
		IdempotencyKey: "signup:" + account.ID,
	})
	if err != nil {
		return domain.Account{}, err
	}
	account.RegistrationFeePaid = true

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		s.engine.refund(ctx, c, err)
		return domain.Account{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}

		return domain.Account{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return domain.Account{}, ErrWrongPassword
	}

	return account, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) checkEmailExists(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return ErrAccountEmailExists
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}
	return nil
}
