package domain

import (
	"fmt"
	"slices"
	"time"
	_ "time/tzdata" // Policy timezones must resolve without a system zoneinfo.
)

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit-card"
	MethodSEPA       PaymentMethod = "sepa"
	MethodPayPal     PaymentMethod = "paypal"
	MethodApplePay   PaymentMethod = "apple-pay"
	MethodGooglePay  PaymentMethod = "google-pay"
)

var PaymentMethods = []PaymentMethod{MethodCreditCard, MethodSEPA, MethodPayPal, MethodApplePay, MethodGooglePay}

// Policy holds every limit the engine enforces.
type Policy struct {
	MaxMonthlySubmissions     int             `mapstructure:"max_monthly_submissions" yaml:"max_monthly_submissions"`
	MaxMonthlyEvents          int             `mapstructure:"max_monthly_events" yaml:"max_monthly_events"`
	MaxDailyVotes             int             `mapstructure:"max_daily_votes" yaml:"max_daily_votes"`
	MaxDailyDonations         int             `mapstructure:"max_daily_donations" yaml:"max_daily_donations"`
	VoteFeeCents              Cents           `mapstructure:"vote_fee_cents" yaml:"vote_fee_cents"`
	MinDonationCents          Cents           `mapstructure:"min_donation_cents" yaml:"min_donation_cents"`
	MaxDonationCents          Cents           `mapstructure:"max_donation_cents" yaml:"max_donation_cents"`
	DonationTaxPercent        int64           `mapstructure:"donation_tax_percent" yaml:"donation_tax_percent"`
	DonationMessageMax        int             `mapstructure:"donation_message_max" yaml:"donation_message_max"`
	AppealWindow              time.Duration   `mapstructure:"appeal_window" yaml:"appeal_window"`
	MaxAppealAttachments      int             `mapstructure:"max_appeal_attachments" yaml:"max_appeal_attachments"`
	MaxAttachmentBytes        int64           `mapstructure:"max_attachment_bytes" yaml:"max_attachment_bytes"`
	AppealContentTypes        []string        `mapstructure:"appeal_content_types" yaml:"appeal_content_types"`
	RegistrationFeeCents      Cents           `mapstructure:"registration_fee_cents" yaml:"registration_fee_cents"`
	MaxTicketsPerRegistration int             `mapstructure:"max_tickets_per_registration" yaml:"max_tickets_per_registration"`
	Timezone                  string          `mapstructure:"timezone" yaml:"timezone"`
	VoteMethods               []PaymentMethod `mapstructure:"vote_methods" yaml:"vote_methods"`
	DonationMethods           []PaymentMethod `mapstructure:"donation_methods" yaml:"donation_methods"`
	SignupMethods             []PaymentMethod `mapstructure:"signup_methods" yaml:"signup_methods"`
	TicketMethods             []PaymentMethod `mapstructure:"ticket_methods" yaml:"ticket_methods"`

	Ladders map[ViolationCategory]Ladder `mapstructure:"-" yaml:"ladders"`

	loc *time.Location
}

func DefaultPolicy() Policy {
	p := Policy{
		MaxMonthlySubmissions:     10,
		MaxMonthlyEvents:          10,
		MaxDailyVotes:             10,
		MaxDailyDonations:         10,
		VoteFeeCents:              10,
		MinDonationCents:          Euros(1),
		MaxDonationCents:          Euros(10),
		DonationTaxPercent:        14,
		DonationMessageMax:        200,
		AppealWindow:              14 * 24 * time.Hour,
		MaxAppealAttachments:      5,
		MaxAttachmentBytes:        10 * 1024 * 1024,
		AppealContentTypes:        []string{"application/pdf", "image/jpeg", "image/png"},
		RegistrationFeeCents:      Euros(4),
		MaxTicketsPerRegistration: 5,
		Timezone:                  "Europe/Berlin",
		VoteMethods:               []PaymentMethod{MethodApplePay, MethodGooglePay, MethodPayPal},
		DonationMethods:           []PaymentMethod{MethodApplePay, MethodGooglePay, MethodPayPal},
		SignupMethods:             slices.Clone(PaymentMethods),
		TicketMethods:             slices.Clone(PaymentMethods),
		Ladders:                   DefaultLadders(),
	}
	p.loc, _ = time.LoadLocation(p.Timezone)
	return p
}

// Resolve validates p and loads its timezone. Missing ladders fall back to
// the defaults.
func (p *Policy) Resolve() error {
	if p.MaxMonthlySubmissions <= 0 || p.MaxMonthlyEvents <= 0 || p.MaxDailyVotes <= 0 || p.MaxDailyDonations <= 0 {
		return fmt.Errorf("policy caps must be positive")
	}
	if p.MinDonationCents <= 0 || p.MaxDonationCents < p.MinDonationCents {
		return fmt.Errorf("invalid donation bounds %s..%s", p.MinDonationCents, p.MaxDonationCents)
	}
	if p.DonationTaxPercent < 0 || p.DonationTaxPercent > 100 {
		return fmt.Errorf("invalid donation tax percent %d", p.DonationTaxPercent)
	}
	if p.AppealWindow <= 0 {
		return fmt.Errorf("appeal window must be positive")
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("time.LoadLocation -> %w", err)
	}
	p.loc = loc

	defaults := DefaultLadders()
	if p.Ladders == nil {
		p.Ladders = defaults
	}
	for _, c := range ViolationCategories {
		if _, ok := p.Ladders[c]; !ok {
			p.Ladders[c] = defaults[c]
		}
	}

	return nil
}

func (p Policy) Location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

func (p Policy) Ladder(c ViolationCategory) Ladder {
	if l, ok := p.Ladders[c]; ok {
		return l
	}
	return DefaultLadders()[c]
}

func (p Policy) AcceptsVoteMethod(m PaymentMethod) bool {
	return slices.Contains(p.VoteMethods, m)
}

func (p Policy) AcceptsDonationMethod(m PaymentMethod) bool {
	return slices.Contains(p.DonationMethods, m)
}

func (p Policy) AcceptsSignupMethod(m PaymentMethod) bool {
	return slices.Contains(p.SignupMethods, m)
}

func (p Policy) AcceptsTicketMethod(m PaymentMethod) bool {
	return slices.Contains(p.TicketMethods, m)
}

func (p Policy) AcceptsContentType(ct string) bool {
	return slices.Contains(p.AppealContentTypes, ct)
}
