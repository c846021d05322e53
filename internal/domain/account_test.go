package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestRolloverMonthlySubmissions(t *testing.T) {
	loc := berlin(t)
	last := time.Date(2026, time.March, 31, 22, 0, 0, 0, loc)
	a := Account{MonthlySubmissions: 10, LastSubmissionDate: last}

	assert.False(t, a.Rollover(last.Add(time.Hour), loc))
	assert.Equal(t, 10, a.MonthlySubmissions)

	assert.True(t, a.Rollover(time.Date(2026, time.April, 1, 0, 0, 0, 0, loc), loc))
	assert.Equal(t, 0, a.MonthlySubmissions)
}

func TestRolloverDailyCounters(t *testing.T) {
	loc := berlin(t)
	day := time.Date(2026, time.June, 1, 23, 59, 0, 0, loc)
	a := Account{DailyVotes: 10, LastVoteDate: day, DailyDonations: 4, LastDonationDate: day}

	a.Rollover(day.Add(30*time.Second), loc)
	assert.Equal(t, 10, a.DailyVotes)

	a.Rollover(day.Add(2*time.Minute), loc)
	assert.Equal(t, 0, a.DailyVotes)
	assert.Equal(t, 0, a.DailyDonations)
}

func TestRolloverKeepsCountersWithoutDate(t *testing.T) {
	p := DefaultPolicy()
	loc := p.Location()
	now := time.Date(2026, time.October, 14, 10, 0, 0, 0, loc)
	a := Account{Kind: KindArtist, MonthlySubmissions: 9, MonthlyEvents: 2, DailyVotes: 4, DailyDonations: 3}

	assert.False(t, a.Rollover(now, loc))
	assert.Equal(t, 9, a.MonthlySubmissions)
	assert.Equal(t, 2, a.MonthlyEvents)
	assert.Equal(t, 4, a.DailyVotes)
	assert.Equal(t, 3, a.DailyDonations)

	require.True(t, a.SubmissionDecision(now, p).Allowed)
	require.NoError(t, a.RecordSubmission(now, p))
	assert.Equal(t, 10, a.MonthlySubmissions)

	a.Rollover(now.Add(time.Minute), loc)
	assert.Equal(t, ReasonMonthlyLimit, a.SubmissionDecision(now.Add(time.Minute), p).Reason)
}

func TestRolloverLiftsExpiredSuspension(t *testing.T) {
	loc := berlin(t)
	until := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	a := Account{Status: StatusSuspended, SuspendedUntil: &until, StatusActionID: "e1"}

	a.Rollover(until.Add(-time.Second), loc)
	assert.Equal(t, StatusSuspended, a.Status)

	a.Rollover(until, loc)
	assert.Equal(t, StatusActive, a.Status)
	assert.Nil(t, a.SuspendedUntil)
	assert.Empty(t, a.StatusActionID)
}

func TestSubmissionDecision(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, time.October, 14, 10, 0, 0, 0, p.Location())
	until := now.Add(48 * time.Hour)

	tests := []struct {
		name    string
		account Account
		reason  DenialReason
	}{
		{name: "allowed", account: Account{Kind: KindArtist, MonthlySubmissions: 9}},
		{name: "cap", account: Account{Kind: KindArtist, MonthlySubmissions: 10}, reason: ReasonMonthlyLimit},
		{name: "account cap", account: Account{Kind: KindArtist, MonthlySubmissions: 5, MaxMonthlySubmissions: 5}, reason: ReasonMonthlyLimit},
		{name: "event creator", account: Account{Kind: KindEventCreator}, reason: ReasonKindNotPermitted},
		{name: "banned", account: Account{Kind: KindArtist, Status: StatusBanned}, reason: ReasonAccountBanned},
		{name: "suspended", account: Account{Kind: KindArtist, Status: StatusSuspended, SuspendedUntil: &until}, reason: ReasonAccountSuspended},
		{name: "submissions paused", account: Account{Kind: KindArtist, SubmissionsSuspendedUntil: &until}, reason: ReasonSubmissionsPaused},
		{name: "submissions banned", account: Account{Kind: KindArtist, SubmissionsBanned: true}, reason: ReasonSubmissionsBanned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.account.SubmissionDecision(now, p)
			if tt.reason == "" {
				assert.True(t, d.Allowed)
				return
			}
			assert.False(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestSubmissionDecisionResetsOnFirstOfNextMonth(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, time.December, 20, 10, 0, 0, 0, p.Location())
	a := Account{Kind: KindArtist, MonthlySubmissions: 10, LastSubmissionDate: now}

	d := a.SubmissionDecision(now, p)
	require.NotNil(t, d.ResetsAt)
	assert.True(t, d.ResetsAt.Equal(time.Date(2027, time.January, 1, 0, 0, 0, 0, p.Location())))
}

func TestRecordSubmissionRejectsPastCap(t *testing.T) {
	p := DefaultPolicy()
	a := Account{Kind: KindArtist, MonthlySubmissions: 10}

	err := a.RecordSubmission(time.Now(), p)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.Equal(t, 10, a.MonthlySubmissions)
}

func TestVoteDecision(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, time.October, 14, 10, 0, 0, 0, p.Location())

	assert.True(t, Account{DailyVotes: 9}.VoteDecision(now, false, p).Allowed)
	assert.Equal(t, ReasonAlreadyVoted, Account{}.VoteDecision(now, true, p).Reason)

	d := Account{DailyVotes: 10}.VoteDecision(now, false, p)
	assert.Equal(t, ReasonDailyLimit, d.Reason)
	require.NotNil(t, d.ResetsAt)
	assert.True(t, d.ResetsAt.Equal(time.Date(2026, time.October, 15, 0, 0, 0, 0, p.Location())))
}

func TestDonationDecision(t *testing.T) {
	p := DefaultPolicy()
	now := time.Now()

	assert.True(t, Account{}.DonationDecision(now, 100, p).Allowed)
	assert.True(t, Account{}.DonationDecision(now, 1000, p).Allowed)
	assert.Equal(t, ReasonAmountOutOfRange, Account{}.DonationDecision(now, 99, p).Reason)
	assert.Equal(t, ReasonAmountOutOfRange, Account{}.DonationDecision(now, 1001, p).Reason)
	assert.Equal(t, ReasonDailyLimit, Account{DailyDonations: 10}.DonationDecision(now, 500, p).Reason)
}

func TestApplyAndRevertConsequence(t *testing.T) {
	at := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	a := Account{Status: StatusActive}

	suspension := EnforcementAction{
		ID:          "e1",
		Category:    ViolationHarassment,
		AppliedAt:   at,
		Consequence: Consequence{Kind: ConsequenceSuspension, Days: 3, Scope: ScopeAccount},
	}
	resetsAt := a.ApplyConsequence(suspension)
	require.NotNil(t, resetsAt)
	assert.Equal(t, at.Add(72*time.Hour), *resetsAt)
	assert.Equal(t, StatusSuspended, a.Status)

	ban := EnforcementAction{ID: "e2", AppliedAt: at, Consequence: Consequence{Kind: ConsequenceBan, Scope: ScopeAccount}}
	assert.Nil(t, a.ApplyConsequence(ban))
	assert.Equal(t, StatusBanned, a.Status)

	// Reverting the superseded suspension leaves the ban in force.
	a.RevertConsequence(suspension, []EnforcementAction{suspension, ban}, at)
	assert.Equal(t, StatusBanned, a.Status)
	suspension.Reverted = true

	a.RevertConsequence(ban, []EnforcementAction{suspension, ban}, at)
	assert.Equal(t, StatusActive, a.Status)
	assert.Nil(t, a.SuspendedUntil)
}

func TestRevertBanRestoresRunningSuspension(t *testing.T) {
	at := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	suspension := EnforcementAction{
		ID:          "e1",
		Category:    ViolationHarassment,
		AppliedAt:   at,
		Consequence: Consequence{Kind: ConsequenceSuspension, Days: 7, Scope: ScopeAccount},
	}
	ban := EnforcementAction{
		ID:          "e2",
		Category:    ViolationCopyright,
		AppliedAt:   at.Add(24 * time.Hour),
		Consequence: Consequence{Kind: ConsequenceBan, Scope: ScopeAccount},
	}
	history := []EnforcementAction{ban, suspension}

	a := Account{Status: StatusActive}
	a.ApplyConsequence(suspension)
	a.ApplyConsequence(ban)
	require.Equal(t, StatusBanned, a.Status)
	require.Nil(t, a.SuspendedUntil)

	a.RevertConsequence(ban, history, at.Add(48*time.Hour))
	assert.Equal(t, StatusSuspended, a.Status)
	require.NotNil(t, a.SuspendedUntil)
	assert.True(t, a.SuspendedUntil.Equal(at.Add(7*24*time.Hour)))
	assert.Equal(t, "e1", a.StatusActionID)

	// Once the suspension has run out, overturning the ban frees the account.
	b := Account{Status: StatusActive}
	b.ApplyConsequence(suspension)
	b.ApplyConsequence(ban)
	b.RevertConsequence(ban, history, at.Add(8*24*time.Hour))
	assert.Equal(t, StatusActive, b.Status)
	assert.Nil(t, b.SuspendedUntil)
	assert.Empty(t, b.StatusActionID)
}

func TestApplySubmissionScopedConsequence(t *testing.T) {
	at := time.Now()
	a := Account{Status: StatusActive}

	a.ApplyConsequence(EnforcementAction{ID: "e1", AppliedAt: at, Consequence: Consequence{Kind: ConsequenceSuspension, Days: 7, Scope: ScopeSubmissions}})
	assert.Equal(t, StatusActive, a.Status)
	require.NotNil(t, a.SubmissionsSuspendedUntil)

	a.ApplyConsequence(EnforcementAction{ID: "e2", AppliedAt: at, Consequence: Consequence{Kind: ConsequenceBan, Scope: ScopeSubmissions}})
	assert.True(t, a.SubmissionsBanned)
	assert.Nil(t, a.SubmissionsSuspendedUntil)
	assert.Equal(t, StatusActive, a.Status)
}
