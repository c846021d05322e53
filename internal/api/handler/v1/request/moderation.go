package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/artxchange/artx-api/internal/domain"
)

func violationTypes() []interface{} {
	out := make([]interface{}, len(domain.ViolationCategories))
	for i, c := range domain.ViolationCategories {
		out[i] = string(c)
	}
	return out
}

type EnforcementRequest struct {
	ViolationType string    `json:"violation_type"`
	At            time.Time `json:"at"`
	ArtworkID     string    `json:"artwork_id"`
	Note          string    `json:"note"`
}

func (req *EnforcementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ViolationType, validation.Required, validation.In(violationTypes()...)),
		validation.Field(&req.Note, validation.Length(0, 2000)),
	)
}

// AppealRequest is the text part of the multipart appeal form. Files are
// sent as "attachments".
type AppealRequest struct {
	Email         string `form:"email"`
	ViolationType string `form:"violation_type"`
	Reason        string `form:"reason"`
	Evidence      string `form:"evidence"`
}

func (req *AppealRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.ViolationType, validation.Required, validation.In(violationTypes()...)),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 2000)),
		validation.Field(&req.Evidence, validation.Length(0, 5000)),
	)
}

type ResolutionRequest struct {
	Outcome string `json:"outcome"`
	Note    string `json:"note"`
}

func (req *ResolutionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Outcome, validation.Required, validation.In(
			string(domain.OutcomeUpheld), string(domain.OutcomeOverturned),
		)),
		validation.Field(&req.Note, validation.Length(0, 2000)),
	)
}
