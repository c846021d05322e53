package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvariantViolation = errors.New("invariant violation")

type Action string

const (
	ActionSubmitArtwork Action = "submit_artwork"
	ActionVote          Action = "vote"
	ActionDonate        Action = "donate"
	ActionCreateEvent   Action = "create_event"
	ActionRegisterEvent Action = "register_event"
	ActionAppeal        Action = "appeal"
	ActionSignup        Action = "signup"
)

type DenialReason string

const (
	ReasonMonthlyLimit        DenialReason = "monthly limit reached"
	ReasonDailyLimit          DenialReason = "daily limit reached"
	ReasonAlreadyVoted        DenialReason = "already voted"
	ReasonDeadlinePassed      DenialReason = "deadline passed"
	ReasonAppealExists        DenialReason = "appeal already exists"
	ReasonAccountSuspended    DenialReason = "account suspended"
	ReasonAccountBanned       DenialReason = "account banned"
	ReasonSubmissionsPaused   DenialReason = "submissions suspended"
	ReasonSubmissionsBanned   DenialReason = "submissions banned"
	ReasonKindNotPermitted    DenialReason = "account kind not permitted"
	ReasonAmountOutOfRange    DenialReason = "amount out of range"
	ReasonMessageTooLong      DenialReason = "message too long"
	ReasonMethodNotAccepted   DenialReason = "payment method not accepted"
	ReasonTermsNotAccepted    DenialReason = "terms not accepted"
	ReasonSelfDonation        DenialReason = "self donation"
	ReasonEventFull           DenialReason = "event full"
	ReasonQuantityOutOfRange  DenialReason = "ticket quantity out of range"
	ReasonCategoryMismatch    DenialReason = "violation type mismatch"
	ReasonActionReverted      DenialReason = "enforcement already reverted"
	ReasonContentUnavailable  DenialReason = "content unavailable"
	ReasonEventAlreadyStarted DenialReason = "event already started"
)

// Decision is the outcome of an eligibility check. ResetsAt is set when the
// denial lifts on its own at a known time.
type Decision struct {
	Allowed  bool         `json:"allowed"`
	Reason   DenialReason `json:"reason,omitempty"`
	ResetsAt *time.Time   `json:"resets_at,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenialReason) Decision {
	return Decision{Reason: reason}
}

func DenyUntil(reason DenialReason, resetsAt time.Time) Decision {
	return Decision{Reason: reason, ResetsAt: &resetsAt}
}

// Err converts a denial into a *Denial error. It returns nil when allowed.
func (d Decision) Err(action Action) error {
	if d.Allowed {
		return nil
	}
	return &Denial{Action: action, Reason: d.Reason, ResetsAt: d.ResetsAt}
}

// Denial is a policy decision against an action. It is an expected outcome
// and is never retried.
type Denial struct {
	Action   Action
	Reason   DenialReason
	ResetsAt *time.Time
}

func (d *Denial) Error() string {
	if d.ResetsAt != nil {
		return fmt.Sprintf("%s denied: %s (until %s)", d.Action, d.Reason, d.ResetsAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s denied: %s", d.Action, d.Reason)
}

// Message is the text shown to the user for this denial.
func (d *Denial) Message() string {
	switch d.Reason {
	case ReasonMonthlyLimit:
		return "You've reached your monthly limit. Limit resets on the 1st of next month."
	case ReasonDailyLimit:
		return "You've reached today's limit. Try again tomorrow."
	case ReasonAlreadyVoted:
		return "You have already voted for this artwork."
	case ReasonDeadlinePassed:
		return "The appeal window for this enforcement action has closed."
	case ReasonAppealExists:
		return "One appeal per enforcement action is allowed."
	case ReasonAccountSuspended:
		if d.ResetsAt != nil {
			return "Your account is suspended until " + d.ResetsAt.Format("2 January 2006 15:04") + "."
		}
		return "Your account is suspended."
	case ReasonAccountBanned:
		return "Your account has been permanently banned. You may submit an appeal."
	case ReasonSubmissionsPaused:
		return "Your submissions are paused. You can submit again once the restriction ends."
	case ReasonSubmissionsBanned:
		return "You are permanently banned from submitting artworks."
	case ReasonKindNotPermitted:
		return "Your account type cannot perform this action."
	case ReasonAmountOutOfRange:
		return "The amount is outside the allowed range."
	case ReasonMessageTooLong:
		return "Your message is too long."
	case ReasonMethodNotAccepted:
		return "This payment method is not available here."
	case ReasonTermsNotAccepted:
		return "Please accept the terms to continue."
	case ReasonSelfDonation:
		return "You cannot donate to yourself."
	case ReasonEventFull:
		return "Not enough places left for this event."
	case ReasonQuantityOutOfRange:
		return "The number of tickets is outside the allowed range."
	case ReasonCategoryMismatch:
		return "The violation type does not match the enforcement action."
	case ReasonActionReverted:
		return "This enforcement action has already been reverted."
	case ReasonContentUnavailable:
		return "This content is no longer available."
	case ReasonEventAlreadyStarted:
		return "Registration for this event has closed."
	default:
		return string(d.Reason)
	}
}

// IsDenial reports whether err is a policy denial, optionally of one of the
// given reasons.
func IsDenial(err error, reasons ...DenialReason) bool {
	var d *Denial
	if !errors.As(err, &d) {
		return false
	}
	if len(reasons) == 0 {
		return true
	}
	for _, r := range reasons {
		if d.Reason == r {
			return true
		}
	}
	return false
}
