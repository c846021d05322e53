package domain

import "time"

type ViolationCategory string

const (
	ViolationVPNUsage         ViolationCategory = "vpn_usage"
	ViolationVoteManipulation ViolationCategory = "vote_manipulation"
	ViolationSpamSubmission   ViolationCategory = "spam_submission"
	ViolationHarassment       ViolationCategory = "harassment"
	ViolationCopyright        ViolationCategory = "copyright_violation"
)

var ViolationCategories = []ViolationCategory{
	ViolationVPNUsage,
	ViolationVoteManipulation,
	ViolationSpamSubmission,
	ViolationHarassment,
	ViolationCopyright,
}

func (c ViolationCategory) Valid() bool {
	for _, known := range ViolationCategories {
		if c == known {
			return true
		}
	}
	return false
}

type ConsequenceKind string

const (
	ConsequenceWarning    ConsequenceKind = "warning"
	ConsequenceSuspension ConsequenceKind = "suspension"
	ConsequenceBan        ConsequenceKind = "ban"
)

// Scope is what a consequence restricts: the whole account or only artwork
// submissions.
type Scope string

const (
	ScopeAccount     Scope = "account"
	ScopeSubmissions Scope = "submissions"
)

type Consequence struct {
	Kind          ConsequenceKind `json:"kind" yaml:"kind"`
	Days          int             `json:"days,omitempty" yaml:"days,omitempty"`
	Scope         Scope           `json:"scope" yaml:"scope"`
	ResetVotes    bool            `json:"reset_votes,omitempty" yaml:"reset_votes,omitempty"`
	RemoveContent bool            `json:"remove_content,omitempty" yaml:"remove_content,omitempty"`
	Label         string          `json:"label" yaml:"label"`
}

func (c Consequence) Duration() time.Duration {
	return time.Duration(c.Days) * 24 * time.Hour
}

// Ladder holds the consequences of the first, second and third offense.
type Ladder [3]Consequence

const MaxTier = 3

// TierFor returns the tier applied after prior offenses in one category.
// Offenses past the third repeat the third tier.
func TierFor(prior int) int {
	if prior < 0 {
		prior = 0
	}
	return min(prior+1, MaxTier)
}

func (l Ladder) At(tier int) Consequence {
	return l[min(max(tier, 1), MaxTier)-1]
}

func DefaultLadders() map[ViolationCategory]Ladder {
	return map[ViolationCategory]Ladder{
		ViolationVPNUsage: {
			{Kind: ConsequenceSuspension, Days: 1, Scope: ScopeAccount, Label: "Warning + 24h restriction"},
			{Kind: ConsequenceSuspension, Days: 7, Scope: ScopeAccount, Label: "7-day suspension"},
			{Kind: ConsequenceBan, Scope: ScopeAccount, Label: "Permanent ban"},
		},
		ViolationVoteManipulation: {
			{Kind: ConsequenceWarning, Scope: ScopeAccount, ResetVotes: true, Label: "Warning + vote reset"},
			{Kind: ConsequenceSuspension, Days: 14, Scope: ScopeAccount, Label: "14-day suspension"},
			{Kind: ConsequenceBan, Scope: ScopeAccount, Label: "Permanent ban"},
		},
		ViolationSpamSubmission: {
			{Kind: ConsequenceWarning, Scope: ScopeSubmissions, RemoveContent: true, Label: "Content removal + warning"},
			{Kind: ConsequenceSuspension, Days: 7, Scope: ScopeSubmissions, Label: "7-day submission ban"},
			{Kind: ConsequenceBan, Scope: ScopeSubmissions, Label: "Permanent submission ban"},
		},
		ViolationHarassment: {
			{Kind: ConsequenceSuspension, Days: 3, Scope: ScopeAccount, Label: "3-day suspension"},
			{Kind: ConsequenceSuspension, Days: 30, Scope: ScopeAccount, Label: "30-day suspension"},
			{Kind: ConsequenceBan, Scope: ScopeAccount, Label: "Permanent ban"},
		},
		ViolationCopyright: {
			{Kind: ConsequenceWarning, Scope: ScopeSubmissions, RemoveContent: true, Label: "Content removal + warning"},
			{Kind: ConsequenceSuspension, Days: 14, Scope: ScopeAccount, Label: "14-day suspension"},
			{Kind: ConsequenceBan, Scope: ScopeAccount, Label: "Permanent ban"},
		},
	}
}

type EnforcementAction struct {
	ID             string            `json:"id"`
	AccountID      string            `json:"account_id"`
	Category       ViolationCategory `json:"category"`
	Tier           int               `json:"tier"`
	Consequence    Consequence       `json:"consequence"`
	ArtworkID      string            `json:"artwork_id,omitempty"`
	Note           string            `json:"note,omitempty"`
	AppliedAt      time.Time         `json:"applied_at"`
	ResetsAt       *time.Time        `json:"resets_at,omitempty"`
	AppealDeadline time.Time         `json:"appeal_deadline"`
	Reverted       bool              `json:"reverted"`
}

// AppealDecision allows an appeal while now is within window of AppliedAt
// and no unresolved appeal exists for the action.
func (a EnforcementAction) AppealDecision(now time.Time, window time.Duration, openAppeal bool) Decision {
	if now.Sub(a.AppliedAt) > window {
		return Deny(ReasonDeadlinePassed)
	}
	if openAppeal {
		return Deny(ReasonAppealExists)
	}
	if a.Reverted {
		return Deny(ReasonActionReverted)
	}
	return Allow()
}
