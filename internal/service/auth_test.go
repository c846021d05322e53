package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/payment"
)

type failingCreate struct {
	AuthAccountRepository
}

func (failingCreate) Create(context.Context, domain.Account) (domain.Account, error) {
	return domain.Account{}, errors.New("connection reset")
}

func signupInput(email string) SignupInput {
	return SignupInput{
		Account: domain.Account{
			Email: email,
			Name:  "Mia Schulz",
			Kind:  domain.KindArtist,
		},
		Password: "Str0ng!pass",
		Method:   domain.MethodCreditCard,
	}
}

func TestSignupChargesRegistrationFee(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store.Accounts(), f.engine)

	acc, err := auth.Signup(context.Background(), signupInput("mia@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.True(t, acc.RegistrationFeePaid)
	assert.Equal(t, domain.StatusActive, acc.Status)
	assert.Equal(t, domain.RoleMember, acc.Role)
	assert.NotEqual(t, "Str0ng!pass", acc.PasswordHash)

	require.Len(t, f.payments.Charges(), 1)
	assert.Equal(t, domain.Euros(4), f.payments.Charges()[0].Amount)

	_, err = auth.Signup(context.Background(), signupInput("mia@example.com"))
	assert.ErrorIs(t, err, ErrAccountEmailExists)
	assert.Len(t, f.payments.Charges(), 1)
}

func TestSignupFailures(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store.Accounts(), f.engine)

	in := signupInput("nokind@example.com")
	in.Account.Kind = "collector"
	_, err := auth.Signup(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = signupInput("bitcoin@example.com")
	in.Method = "bitcoin"
	_, err = auth.Signup(context.Background(), in)
	requireDenial(t, err, domain.ReasonMethodNotAccepted)

	f.payments.Fail(payment.ErrDeclined)
	_, err = auth.Signup(context.Background(), signupInput("declined@example.com"))
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	_, err = f.store.Accounts().FindByEmail(context.Background(), "declined@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSignupRefundsWhenAccountCannotBeStored(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(failingCreate{f.store.Accounts()}, f.engine)

	_, err := auth.Signup(context.Background(), signupInput("mia@example.com"))
	require.Error(t, err)
	assert.Empty(t, f.payments.Charges())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store.Accounts(), f.engine)

	created, err := auth.Signup(context.Background(), signupInput("mia@example.com"))
	require.NoError(t, err)

	acc, err := auth.Login(context.Background(), "mia@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)

	_, err = auth.Login(context.Background(), "mia@example.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = auth.Login(context.Background(), "nobody@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	accounts := NewAccountService(f.store.Accounts())

	updated, err := accounts.SetRole(context.Background(), acc.Email, domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, updated.Role)

	got, err := accounts.GetAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, got.Role)
}
