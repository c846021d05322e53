package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSignup() SignupRequest {
	return SignupRequest{
		Email:           "mia@example.com",
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
		Name:            "Mia Schulz",
		Kind:            "artist",
		Categories:      []string{"painting"},
		PaymentMethod:   "sepa",
	}
}

func TestSignupRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SignupRequest)
		wantErr bool
	}{
		{name: "valid artist", mutate: func(*SignupRequest) {}},
		{name: "password without symbol", mutate: func(r *SignupRequest) {
			r.Password, r.ConfirmPassword = "Str0ngpass", "Str0ngpass"
		}, wantErr: true},
		{name: "password too short", mutate: func(r *SignupRequest) {
			r.Password, r.ConfirmPassword = "S0!a", "S0!a"
		}, wantErr: true},
		{name: "confirm mismatch", mutate: func(r *SignupRequest) { r.ConfirmPassword = "Other!pass1" }, wantErr: true},
		{name: "unknown kind", mutate: func(r *SignupRequest) { r.Kind = "collector" }, wantErr: true},
		{name: "unknown payment method", mutate: func(r *SignupRequest) { r.PaymentMethod = "bitcoin" }, wantErr: true},
		{name: "artist without categories", mutate: func(r *SignupRequest) { r.Categories = nil }, wantErr: true},
		{name: "partner without company details", mutate: func(r *SignupRequest) {
			r.Kind = "guerrilla-partner"
			r.Country = "DE"
			r.PassportID = "C01X00T47"
		}, wantErr: true},
		{name: "complete partner", mutate: func(r *SignupRequest) {
			r.Kind = "guerrilla-partner"
			r.Country = "DE"
			r.PassportID = "C01X00T47"
			r.CompanyName = "Wall Works GmbH"
			r.Handelsregisternummer = "HRB 123456"
			r.TaxVATNumber = "DE123456789"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignupRequestAccount(t *testing.T) {
	req := validSignup()
	acc := req.Account()

	assert.Equal(t, "mia@example.com", acc.Email)
	assert.Equal(t, "artist", string(acc.Kind))
	assert.Equal(t, []string{"painting"}, acc.Categories)
}

func TestAppealRequestValidate(t *testing.T) {
	req := AppealRequest{Email: "mia@example.com", ViolationType: "harassment", Reason: "Misunderstanding"}
	assert.NoError(t, req.Validate())

	req.ViolationType = "littering"
	assert.Error(t, req.Validate())
}

func TestRegistrationRequestAllowsMissingMethod(t *testing.T) {
	req := RegistrationRequest{Name: "Guest", Email: "guest@example.com", Quantity: 2}
	assert.NoError(t, req.Validate())

	req.PaymentMethod = "cash"
	assert.Error(t, req.Validate())
}
