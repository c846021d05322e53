package response

import (
	"time"

	"github.com/artxchange/artx-api/internal/domain"
)

type DecisionResponse struct {
	Allowed  bool                `json:"allowed"`
	Reason   domain.DenialReason `json:"reason,omitempty"`
	Message  string              `json:"message,omitempty"`
	ResetsAt *time.Time          `json:"resets_at,omitempty"`
}

func NewDecisionResponse(action domain.Action, d domain.Decision) DecisionResponse {
	if d.Allowed {
		return DecisionResponse{Allowed: true}
	}

	denial := &domain.Denial{Action: action, Reason: d.Reason, ResetsAt: d.ResetsAt}
	return DecisionResponse{
		Reason:   d.Reason,
		Message:  denial.Message(),
		ResetsAt: d.ResetsAt,
	}
}
