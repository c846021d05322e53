package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/artxchange/artx-api/internal/domain"
)

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	StartsAt    time.Time `json:"starts_at"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Capacity    int       `json:"capacity"`
	PriceCents  int64     `json:"price_cents"`
	Hashtags    []string  `json:"hashtags"`
}

func (req *CreateEventRequest) Validate() error {
	types := make([]interface{}, len(domain.EventTypes))
	for i, t := range domain.EventTypes {
		types[i] = string(t)
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.Type, validation.Required, validation.In(types...)),
		validation.Field(&req.StartsAt, validation.Required),
		validation.Field(&req.Location, validation.Required),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&req.PriceCents, validation.Min(int64(0))),
		validation.Field(&req.Hashtags, validation.Length(0, 10)),
	)
}

type RegistrationRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Message       string `json:"message"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"payment_method"`
	PaymentToken  string `json:"payment_token"`
}

func (req *RegistrationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Message, validation.Length(0, 1000)),
		validation.Field(&req.Quantity, validation.Required),
		validation.Field(&req.PaymentMethod, validation.By(paymentMethod)),
	)
}
