package service

import (
	"context"

	"github.com/artxchange/artx-api/internal/domain"
)

type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// EligibilityReport is every decision the account currently faces, with the
// counters behind them.
type EligibilityReport struct {
	AccountID string               `json:"account_id"`
	Status    domain.AccountStatus `json:"status"`

	SubmitArtwork domain.Decision `json:"submit_artwork"`
	Vote          domain.Decision `json:"vote"`
	Donate        domain.Decision `json:"donate"`
	CreateEvent   domain.Decision `json:"create_event"`

	MonthlySubmissions Usage `json:"monthly_submissions"`
	MonthlyEvents      Usage `json:"monthly_events"`
	DailyVotes         Usage `json:"daily_votes"`
	DailyDonations     Usage `json:"daily_donations"`
}

// Eligibility evaluates the account's caps and status without committing
// anything. The vote decision ignores per-artwork duplicates.
func (e *Engine) Eligibility(ctx context.Context, accountID string) (EligibilityReport, error) {
	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return EligibilityReport{}, err
	}

	return EligibilityReport{
		AccountID:          acc.ID,
		Status:             acc.Status,
		SubmitArtwork:      acc.SubmissionDecision(now, p),
		Vote:               acc.VoteDecision(now, false, p),
		Donate:             acc.DonationDecision(now, p.MinDonationCents, p),
		CreateEvent:        acc.EventDecision(now, p),
		MonthlySubmissions: Usage{Used: acc.MonthlySubmissions, Limit: acc.SubmissionCap(p)},
		MonthlyEvents:      Usage{Used: acc.MonthlyEvents, Limit: p.MaxMonthlyEvents},
		DailyVotes:         Usage{Used: acc.DailyVotes, Limit: p.MaxDailyVotes},
		DailyDonations:     Usage{Used: acc.DailyDonations, Limit: p.MaxDailyDonations},
	}, nil
}
