package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/artxchange/artx-api/internal/domain"
)

const (
	passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d)(?=.*[^A-Za-z\d]).{8,}$`
)

var (
	errInvalidPassword         = errors.New("the password must be at least 8 characters and contain 1 letter, 1 number and 1 symbol")
	errConfirmPasswordMismatch = errors.New("confirm password doesn't match the password")

	passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)
)

type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	Bio             string `json:"bio,omitempty"`
	// Art categories for artists, event categories for event creators.
	Categories []string `json:"categories,omitempty"`

	Country               string `json:"country,omitempty"`
	PassportID            string `json:"passport_id,omitempty"`
	CompanyName           string `json:"company_name,omitempty"`
	Handelsregisternummer string `json:"handelsregisternummer,omitempty"`
	TaxVATNumber          string `json:"tax_vat_number,omitempty"`

	PaymentMethod string `json:"payment_method"`
	PaymentToken  string `json:"payment_token,omitempty"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.ConfirmPassword, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Kind, validation.Required, validation.In(
			string(domain.KindArtist), string(domain.KindEventCreator), string(domain.KindGuerrillaPartner),
		)),
		validation.Field(&req.Bio, validation.Length(0, 1000)),
		validation.Field(&req.PaymentMethod, validation.Required, validation.By(paymentMethod)),
	)
	if err != nil {
		return err
	}

	switch domain.AccountKind(req.Kind) {
	case domain.KindArtist:
		err = validation.ValidateStruct(req,
			validation.Field(&req.Categories, validation.Required),
		)
	case domain.KindEventCreator:
		err = validation.ValidateStruct(req,
			validation.Field(&req.Categories, validation.Required),
			validation.Field(&req.Country, validation.Required),
			validation.Field(&req.PassportID, validation.Required),
		)
	case domain.KindGuerrillaPartner:
		err = validation.ValidateStruct(req,
			validation.Field(&req.Country, validation.Required),
			validation.Field(&req.PassportID, validation.Required),
			validation.Field(&req.CompanyName, validation.Required),
			validation.Field(&req.Handelsregisternummer, validation.Required),
			validation.Field(&req.TaxVATNumber, validation.Required),
		)
	}
	if err != nil {
		return err
	}

	if ok, _ := passwordExp.MatchString(req.Password); !ok {
		return errInvalidPassword
	}

	if req.Password != req.ConfirmPassword {
		return errConfirmPasswordMismatch
	}

	return nil
}

func (req *SignupRequest) Account() domain.Account {
	return domain.Account{
		Email:                 req.Email,
		Name:                  req.Name,
		Kind:                  domain.AccountKind(req.Kind),
		Bio:                   req.Bio,
		Categories:            req.Categories,
		Country:               req.Country,
		PassportID:            req.PassportID,
		CompanyName:           req.CompanyName,
		Handelsregisternummer: req.Handelsregisternummer,
		TaxVATNumber:          req.TaxVATNumber,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

// paymentMethod accepts an empty value. Pair it with validation.Required
// where the method is mandatory.
func paymentMethod(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, m := range domain.PaymentMethods {
		if string(m) == s {
			return nil
		}
	}
	return errors.New("unknown payment method")
}
