package domain

import (
	"fmt"
	"slices"
	"time"
)

type AccountKind string

const (
	KindArtist           AccountKind = "artist"
	KindEventCreator     AccountKind = "event-creator"
	KindGuerrillaPartner AccountKind = "guerrilla-partner"
)

func (k AccountKind) Valid() bool {
	return k == KindArtist || k == KindEventCreator || k == KindGuerrillaPartner
}

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusBanned    AccountStatus = "banned"
)

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
)

type Account struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Kind         AccountKind `json:"kind"`
	Role         Role        `json:"role"`
	Bio          string      `json:"bio,omitempty"`

	// Artist art categories or EventCreator event categories.
	Categories []string `json:"categories,omitempty"`

	// EventCreator and GuerrillaPartner identity.
	Country    string `json:"country,omitempty"`
	PassportID string `json:"-"`

	// GuerrillaPartner company registration.
	CompanyName           string `json:"company_name,omitempty"`
	Handelsregisternummer string `json:"handelsregisternummer,omitempty"`
	TaxVATNumber          string `json:"tax_vat_number,omitempty"`

	MonthlySubmissions    int       `json:"monthly_submissions"`
	MaxMonthlySubmissions int       `json:"max_monthly_submissions"`
	LastSubmissionDate    time.Time `json:"last_submission_date"`
	MonthlyEvents         int       `json:"monthly_events"`
	LastEventDate         time.Time `json:"last_event_date"`
	DailyVotes            int       `json:"daily_votes"`
	LastVoteDate          time.Time `json:"last_vote_date"`
	DailyDonations        int       `json:"daily_donations"`
	LastDonationDate      time.Time `json:"last_donation_date"`

	Status          AccountStatus `json:"status"`
	StatusReason    string        `json:"status_reason,omitempty"`
	StatusChangedAt time.Time     `json:"status_changed_at"`
	SuspendedUntil  *time.Time    `json:"suspended_until,omitempty"`
	StatusActionID  string        `json:"-"`

	SubmissionsSuspendedUntil *time.Time `json:"submissions_suspended_until,omitempty"`
	SubmissionsBanned         bool       `json:"submissions_banned"`
	SubmissionsActionID       string     `json:"-"`

	RegistrationFeePaid bool      `json:"registration_fee_paid"`
	JoinDate            time.Time `json:"join_date"`

	// Version is bumped on every persisted change and used for
	// compare-and-swap updates.
	Version int64 `json:"-"`
}

// SubmissionCap returns the account's own cap, falling back to the policy.
// A per-account cap can only lower the policy cap.
func (a Account) SubmissionCap(p Policy) int {
	if a.MaxMonthlySubmissions > 0 && a.MaxMonthlySubmissions < p.MaxMonthlySubmissions {
		return a.MaxMonthlySubmissions
	}
	return p.MaxMonthlySubmissions
}

// monthPassed reports whether last falls in a calendar month before now's.
// A counter with no recorded date is never reset.
func monthPassed(last, now time.Time, loc *time.Location) bool {
	return !last.IsZero() && !SameMonth(last, now, loc) && last.Before(now)
}

// dayPassed reports whether last falls on a calendar day before now's.
func dayPassed(last, now time.Time, loc *time.Location) bool {
	return !last.IsZero() && !SameDay(last, now, loc) && last.Before(now)
}

// Rollover applies the lazy resets due at now: calendar-month and
// calendar-day counters, and expired suspensions. It reports whether
// anything changed.
func (a *Account) Rollover(now time.Time, loc *time.Location) bool {
	changed := false

	if a.MonthlySubmissions != 0 && monthPassed(a.LastSubmissionDate, now, loc) {
		a.MonthlySubmissions = 0
		changed = true
	}
	if a.MonthlyEvents != 0 && monthPassed(a.LastEventDate, now, loc) {
		a.MonthlyEvents = 0
		changed = true
	}
	if a.DailyVotes != 0 && dayPassed(a.LastVoteDate, now, loc) {
		a.DailyVotes = 0
		changed = true
	}
	if a.DailyDonations != 0 && dayPassed(a.LastDonationDate, now, loc) {
		a.DailyDonations = 0
		changed = true
	}

	if a.Status == StatusSuspended && a.SuspendedUntil != nil && !now.Before(*a.SuspendedUntil) {
		a.Status = StatusActive
		a.StatusReason = ""
		a.StatusChangedAt = *a.SuspendedUntil
		a.SuspendedUntil = nil
		a.StatusActionID = ""
		changed = true
	}
	if a.SubmissionsSuspendedUntil != nil && !now.Before(*a.SubmissionsSuspendedUntil) {
		a.SubmissionsSuspendedUntil = nil
		a.SubmissionsActionID = ""
		changed = true
	}

	return changed
}

// StatusDecision gates every rate-limited action on the account status.
func (a Account) StatusDecision() Decision {
	switch a.Status {
	case StatusBanned:
		return Deny(ReasonAccountBanned)
	case StatusSuspended:
		if a.SuspendedUntil != nil {
			return DenyUntil(ReasonAccountSuspended, *a.SuspendedUntil)
		}
		return Deny(ReasonAccountSuspended)
	}
	return Allow()
}

// SubmissionDecision expects Rollover to have been applied at now.
func (a Account) SubmissionDecision(now time.Time, p Policy) Decision {
	if d := a.StatusDecision(); !d.Allowed {
		return d
	}
	if a.Kind != KindArtist {
		return Deny(ReasonKindNotPermitted)
	}
	if a.SubmissionsBanned {
		return Deny(ReasonSubmissionsBanned)
	}
	if a.SubmissionsSuspendedUntil != nil {
		return DenyUntil(ReasonSubmissionsPaused, *a.SubmissionsSuspendedUntil)
	}
	if a.MonthlySubmissions >= a.SubmissionCap(p) {
		return DenyUntil(ReasonMonthlyLimit, FirstOfNextMonth(now, p.Location()))
	}
	return Allow()
}

func (a Account) EventDecision(now time.Time, p Policy) Decision {
	if d := a.StatusDecision(); !d.Allowed {
		return d
	}
	if a.Kind != KindEventCreator {
		return Deny(ReasonKindNotPermitted)
	}
	if a.MonthlyEvents >= p.MaxMonthlyEvents {
		return DenyUntil(ReasonMonthlyLimit, FirstOfNextMonth(now, p.Location()))
	}
	return Allow()
}

func (a Account) VoteDecision(now time.Time, alreadyVoted bool, p Policy) Decision {
	if d := a.StatusDecision(); !d.Allowed {
		return d
	}
	if alreadyVoted {
		return Deny(ReasonAlreadyVoted)
	}
	if a.DailyVotes >= p.MaxDailyVotes {
		return DenyUntil(ReasonDailyLimit, StartOfNextDay(now, p.Location()))
	}
	return Allow()
}

func (a Account) DonationDecision(now time.Time, amount Cents, p Policy) Decision {
	if d := a.StatusDecision(); !d.Allowed {
		return d
	}
	if a.DailyDonations >= p.MaxDailyDonations {
		return DenyUntil(ReasonDailyLimit, StartOfNextDay(now, p.Location()))
	}
	if amount < p.MinDonationCents || amount > p.MaxDonationCents {
		return Deny(ReasonAmountOutOfRange)
	}
	return Allow()
}

// The Record* methods apply an accepted action. Exceeding a cap here means
// the caller skipped the check, so they fail instead of clamping.

func (a *Account) RecordSubmission(now time.Time, p Policy) error {
	if a.MonthlySubmissions >= a.SubmissionCap(p) {
		return fmt.Errorf("%w: monthly submissions %d at cap %d", ErrInvariantViolation, a.MonthlySubmissions, a.SubmissionCap(p))
	}
	a.MonthlySubmissions++
	a.LastSubmissionDate = now
	return nil
}

func (a *Account) RecordEvent(now time.Time, p Policy) error {
	if a.MonthlyEvents >= p.MaxMonthlyEvents {
		return fmt.Errorf("%w: monthly events %d at cap %d", ErrInvariantViolation, a.MonthlyEvents, p.MaxMonthlyEvents)
	}
	a.MonthlyEvents++
	a.LastEventDate = now
	return nil
}

func (a *Account) RecordVote(now time.Time, p Policy) error {
	if a.DailyVotes >= p.MaxDailyVotes {
		return fmt.Errorf("%w: daily votes %d at cap %d", ErrInvariantViolation, a.DailyVotes, p.MaxDailyVotes)
	}
	a.DailyVotes++
	a.LastVoteDate = now
	return nil
}

func (a *Account) RecordDonation(now time.Time, p Policy) error {
	if a.DailyDonations >= p.MaxDailyDonations {
		return fmt.Errorf("%w: daily donations %d at cap %d", ErrInvariantViolation, a.DailyDonations, p.MaxDailyDonations)
	}
	a.DailyDonations++
	a.LastDonationDate = now
	return nil
}

// ApplyConsequence updates the account for an enforcement action and
// returns when the consequence lifts (nil for warnings and bans).
func (a *Account) ApplyConsequence(action EnforcementAction) *time.Time {
	c := action.Consequence
	reason := fmt.Sprintf("%s: %s", action.Category, c.Label)

	switch c.Kind {
	case ConsequenceWarning:
		return nil
	case ConsequenceSuspension:
		until := action.AppliedAt.Add(c.Duration())
		if c.Scope == ScopeSubmissions {
			if a.SubmissionsSuspendedUntil == nil || until.After(*a.SubmissionsSuspendedUntil) {
				a.SubmissionsSuspendedUntil = &until
				a.SubmissionsActionID = action.ID
			}
			return &until
		}
		// A ban outranks any suspension.
		if a.Status == StatusBanned {
			return &until
		}
		if a.SuspendedUntil == nil || until.After(*a.SuspendedUntil) {
			a.Status = StatusSuspended
			a.StatusReason = reason
			a.StatusChangedAt = action.AppliedAt
			a.SuspendedUntil = &until
			a.StatusActionID = action.ID
		}
		return &until
	case ConsequenceBan:
		if c.Scope == ScopeSubmissions {
			a.SubmissionsBanned = true
			a.SubmissionsSuspendedUntil = nil
			a.SubmissionsActionID = action.ID
			return nil
		}
		a.Status = StatusBanned
		a.StatusReason = reason
		a.StatusChangedAt = action.AppliedAt
		a.SuspendedUntil = nil
		a.StatusActionID = action.ID
		return nil
	}
	return nil
}

// RevertConsequence lifts the restriction imposed by action if it is still
// the one in force. Actions from history that are neither action itself nor
// reverted, and that still bind at now, are then reapplied in order, so a
// suspension superseded by an overturned ban runs out its remaining time.
func (a *Account) RevertConsequence(action EnforcementAction, history []EnforcementAction, now time.Time) {
	statusLifted := a.StatusActionID == action.ID
	submissionsLifted := a.SubmissionsActionID == action.ID
	if statusLifted {
		a.Status = StatusActive
		a.StatusReason = ""
		a.StatusChangedAt = now
		a.SuspendedUntil = nil
		a.StatusActionID = ""
	}
	if submissionsLifted {
		a.SubmissionsBanned = false
		a.SubmissionsSuspendedUntil = nil
		a.SubmissionsActionID = ""
	}
	if !statusLifted && !submissionsLifted {
		return
	}

	remaining := slices.Clone(history)
	slices.SortStableFunc(remaining, func(x, y EnforcementAction) int {
		return x.AppliedAt.Compare(y.AppliedAt)
	})
	for _, other := range remaining {
		if other.ID == action.ID || other.Reverted {
			continue
		}
		c := other.Consequence
		if c.Scope == ScopeSubmissions && !submissionsLifted || c.Scope != ScopeSubmissions && !statusLifted {
			continue
		}
		if c.Kind == ConsequenceSuspension && !now.Before(other.AppliedAt.Add(c.Duration())) {
			continue
		}
		a.ApplyConsequence(other)
	}
}
