package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type SubmitArtworkRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
	Hashtags    []string `json:"hashtags"`
}

func (req *SubmitArtworkRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.ImageURL, validation.Required, is.URL),
		validation.Field(&req.Category, validation.Required),
		validation.Field(&req.Hashtags, validation.Length(0, 10)),
	)
}

type VoteRequest struct {
	DeviceID      string `json:"device_id"`
	PaymentMethod string `json:"payment_method"`
	PaymentToken  string `json:"payment_token"`
	TermsAccepted bool   `json:"terms_accepted"`
}

func (req *VoteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PaymentMethod, validation.Required, validation.By(paymentMethod)),
	)
}

type DonationRequest struct {
	ArtworkID     string `json:"artwork_id"`
	AmountCents   int64  `json:"amount_cents"`
	Message       string `json:"message"`
	PaymentMethod string `json:"payment_method"`
	PaymentToken  string `json:"payment_token"`
	TermsAccepted bool   `json:"terms_accepted"`
}

// Validate leaves bounds on amount and message to the engine so they come
// back as denials.
func (req *DonationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AmountCents, validation.Required),
		validation.Field(&req.PaymentMethod, validation.Required, validation.By(paymentMethod)),
	)
}
