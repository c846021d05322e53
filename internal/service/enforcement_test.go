package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/moderation"
)

func enforce(t *testing.T, f *fixture, accountID string, category domain.ViolationCategory) domain.EnforcementAction {
	t.Helper()

	action, err := f.engine.RecordEnforcement(context.Background(), EnforcementInput{AccountID: accountID, Category: category})
	require.NoError(t, err)
	return action
}

func appealInput(accountID string, action domain.EnforcementAction) AppealInput {
	return AppealInput{
		AccountID:     accountID,
		EnforcementID: action.ID,
		Email:         "appellant@example.com",
		Category:      action.Category,
		Reason:        "I was on a train with shared wifi.",
	}
}

func TestEscalationLadder(t *testing.T) {
	f := newFixture(t, func(c *EngineConfig) {
		c.Policy.Ladders[domain.ViolationHarassment] = domain.Ladder{
			{Kind: domain.ConsequenceWarning, Scope: domain.ScopeAccount, Label: "Warning"},
			{Kind: domain.ConsequenceSuspension, Days: 7, Scope: domain.ScopeAccount, Label: "7-day suspension"},
			{Kind: domain.ConsequenceBan, Scope: domain.ScopeAccount, Label: "Permanent ban"},
		}
	})
	acc := f.account(t, domain.KindArtist)

	first := enforce(t, f, acc.ID, domain.ViolationHarassment)
	assert.Equal(t, 1, first.Tier)
	assert.Equal(t, domain.ConsequenceWarning, first.Consequence.Kind)
	assert.Nil(t, first.ResetsAt)
	assert.Equal(t, domain.StatusActive, f.reload(t, acc.ID).Status)

	f.clock.Advance(time.Hour)
	second := enforce(t, f, acc.ID, domain.ViolationHarassment)
	assert.Equal(t, 2, second.Tier)
	require.NotNil(t, second.ResetsAt)
	assert.True(t, second.ResetsAt.Equal(f.clock.Now().Add(7*24*time.Hour)))
	assert.Equal(t, domain.StatusSuspended, f.reload(t, acc.ID).Status)

	f.clock.Advance(time.Hour)
	third := enforce(t, f, acc.ID, domain.ViolationHarassment)
	assert.Equal(t, 3, third.Tier)
	assert.Nil(t, third.ResetsAt)

	reloaded := f.reload(t, acc.ID)
	assert.Equal(t, domain.StatusBanned, reloaded.Status)
	assert.Nil(t, reloaded.SuspendedUntil)

	fourth := enforce(t, f, acc.ID, domain.ViolationHarassment)
	assert.Equal(t, 3, fourth.Tier)

	actions, err := f.engine.Enforcements(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 4)
}

func TestOffensesCountPerCategory(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)

	enforce(t, f, acc.ID, domain.ViolationSpamSubmission)
	action := enforce(t, f, acc.ID, domain.ViolationCopyright)
	assert.Equal(t, 1, action.Tier)
}

func TestSuspensionLiftsLazily(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	action := enforce(t, f, acc.ID, domain.ViolationVPNUsage)
	require.NotNil(t, action.ResetsAt)

	d, err := f.engine.CanVote(context.Background(), acc.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAccountSuspended, d.Reason)
	require.NotNil(t, d.ResetsAt)
	assert.True(t, d.ResetsAt.Equal(*action.ResetsAt))

	f.clock.Advance(24 * time.Hour)

	d, err = f.engine.CanVote(context.Background(), acc.ID, "A1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	_, err = vote(f, acc.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, f.reload(t, acc.ID).Status)
}

func TestSubmissionScopedConsequence(t *testing.T) {
	f := newFixture(t)
	artist := f.account(t, domain.KindArtist)
	f.artwork(t, artist.ID, "spam")
	f.artwork(t, "other", "A1")

	_, err := f.engine.RecordEnforcement(context.Background(), EnforcementInput{
		AccountID: artist.ID,
		Category:  domain.ViolationSpamSubmission,
		ArtworkID: "spam",
	})
	require.NoError(t, err)

	artwork, err := f.store.Artworks().FindByID(context.Background(), "spam")
	require.NoError(t, err)
	assert.True(t, artwork.Removed)

	enforce(t, f, artist.ID, domain.ViolationSpamSubmission)

	_, err = submit(f, artist.ID)
	requireDenial(t, err, domain.ReasonSubmissionsPaused)

	_, err = vote(f, artist.ID, "A1")
	require.NoError(t, err, "a submission ban leaves voting alone")
}

func TestVoteResetVoidsVotes(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindGuerrillaPartner)
	f.artwork(t, "artist", "A1")

	_, err := vote(f, voter.ID, "A1")
	require.NoError(t, err)

	action := enforce(t, f, voter.ID, domain.ViolationVoteManipulation)
	assert.True(t, action.Consequence.ResetVotes)

	artwork, err := f.store.Artworks().FindByID(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 0, artwork.Votes)

	votes, err := f.engine.Votes(context.Background(), voter.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.True(t, votes[0].Voided)

	_, err = vote(f, voter.ID, "A1")
	requireDenial(t, err, domain.ReasonAlreadyVoted)
}

func TestRecordEnforcementRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)

	_, err := f.engine.RecordEnforcement(context.Background(), EnforcementInput{AccountID: acc.ID, Category: "littering"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAppealDeadline(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	applied := f.clock.Now()
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)
	assert.True(t, action.AppealDeadline.Equal(applied.Add(14*24*time.Hour)))

	f.clock.Set(applied.Add(14*24*time.Hour - time.Second))
	d, err := f.engine.CanAppeal(context.Background(), acc.ID, action.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	f.clock.Set(applied.Add(14 * 24 * time.Hour))
	d, err = f.engine.CanAppeal(context.Background(), acc.ID, action.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "the deadline itself is still in time")

	f.clock.Set(applied.Add(14*24*time.Hour + time.Second))
	d, err = f.engine.CanAppeal(context.Background(), acc.ID, action.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDeadlinePassed, d.Reason)

	_, err = f.engine.SubmitAppeal(context.Background(), appealInput(acc.ID, action))
	requireDenial(t, err, domain.ReasonDeadlinePassed)
	assert.Empty(t, f.queue.Submitted())
}

func TestAppealWhileBannedAndOwnership(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist, func(a *domain.Account) { a.Status = domain.StatusBanned })
	other := f.account(t, domain.KindArtist)
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)

	d, err := f.engine.CanAppeal(context.Background(), acc.ID, action.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	_, err = f.engine.CanAppeal(context.Background(), other.ID, action.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.engine.CanAppeal(context.Background(), acc.ID, "missing")
	assert.ErrorIs(t, err, ErrEnforcementNotFound)
}

func TestAppealLifecycle(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)
	require.Equal(t, domain.StatusSuspended, f.reload(t, acc.ID).Status)

	mismatch := appealInput(acc.ID, action)
	mismatch.Category = domain.ViolationVPNUsage
	_, err := f.engine.SubmitAppeal(context.Background(), mismatch)
	requireDenial(t, err, domain.ReasonCategoryMismatch)

	appeal, err := f.engine.SubmitAppeal(context.Background(), appealInput(acc.ID, action))
	require.NoError(t, err)
	assert.Equal(t, domain.AppealSubmitted, appeal.Status)
	assert.NotEmpty(t, appeal.ModerationRef)
	require.Len(t, f.queue.Submitted(), 1)

	_, err = f.engine.SubmitAppeal(context.Background(), appealInput(acc.ID, action))
	requireDenial(t, err, domain.ReasonAppealExists)

	ctx := context.Background()
	require.NoError(t, f.engine.ApplyModerationUpdate(ctx, moderation.Update{
		AppealID: appeal.ID,
		Status:   domain.AppealUnderReview,
	}))
	require.NoError(t, f.engine.ApplyModerationUpdate(ctx, moderation.Update{
		AppealID: appeal.ID,
		Status:   domain.AppealResolved,
		Outcome:  domain.OutcomeOverturned,
		Note:     "shared network confirmed",
	}))

	resolved, err := f.store.Moderation().FindAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppealResolved, resolved.Status)
	assert.Equal(t, domain.OutcomeOverturned, resolved.Outcome)
	assert.Equal(t, "shared network confirmed", resolved.ResolutionNote)

	reloaded := f.reload(t, acc.ID)
	assert.Equal(t, domain.StatusActive, reloaded.Status)
	assert.Nil(t, reloaded.SuspendedUntil)

	offenses, err := f.store.Moderation().CountOffenses(ctx, acc.ID, domain.ViolationHarassment)
	require.NoError(t, err)
	assert.Zero(t, offenses)

	_, err = f.engine.SubmitAppeal(ctx, appealInput(acc.ID, action))
	requireDenial(t, err, domain.ReasonActionReverted)

	_, err = f.engine.ResolveAppeal(ctx, appeal.ID, domain.OutcomeUpheld, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAppealTransition)
}

func TestOverturnedBanRestoresRunningSuspension(t *testing.T) {
	f := newFixture(t, func(c *EngineConfig) {
		c.Policy.Ladders[domain.ViolationHarassment] = domain.Ladder{
			{Kind: domain.ConsequenceSuspension, Days: 7, Scope: domain.ScopeAccount, Label: "7-day suspension"},
			{Kind: domain.ConsequenceSuspension, Days: 14, Scope: domain.ScopeAccount, Label: "14-day suspension"},
			{Kind: domain.ConsequenceBan, Scope: domain.ScopeAccount, Label: "Permanent ban"},
		}
		c.Policy.Ladders[domain.ViolationVPNUsage] = domain.Ladder{
			{Kind: domain.ConsequenceBan, Scope: domain.ScopeAccount, Label: "Permanent ban"},
			{Kind: domain.ConsequenceBan, Scope: domain.ScopeAccount, Label: "Permanent ban"},
			{Kind: domain.ConsequenceBan, Scope: domain.ScopeAccount, Label: "Permanent ban"},
		}
	})
	ctx := context.Background()
	acc := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	suspension := enforce(t, f, acc.ID, domain.ViolationHarassment)
	require.NotNil(t, suspension.ResetsAt)
	f.clock.Advance(24 * time.Hour)
	ban := enforce(t, f, acc.ID, domain.ViolationVPNUsage)
	require.Equal(t, domain.StatusBanned, f.reload(t, acc.ID).Status)

	f.clock.Advance(24 * time.Hour)
	appeal, err := f.engine.SubmitAppeal(ctx, appealInput(acc.ID, ban))
	require.NoError(t, err)
	_, err = f.engine.ResolveAppeal(ctx, appeal.ID, domain.OutcomeOverturned, "")
	require.NoError(t, err)

	reloaded := f.reload(t, acc.ID)
	assert.Equal(t, domain.StatusSuspended, reloaded.Status)
	require.NotNil(t, reloaded.SuspendedUntil)
	assert.True(t, reloaded.SuspendedUntil.Equal(*suspension.ResetsAt))
	assert.Equal(t, suspension.ID, reloaded.StatusActionID)

	f.clock.Set(suspension.ResetsAt.Add(time.Second))
	d, err := f.engine.CanVote(ctx, acc.ID, "A1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestUpheldAppealKeepsRestriction(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)

	appeal, err := f.engine.SubmitAppeal(context.Background(), appealInput(acc.ID, action))
	require.NoError(t, err)

	resolved, err := f.engine.ResolveAppeal(context.Background(), appeal.ID, domain.OutcomeUpheld, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpheld, resolved.Outcome)
	assert.Equal(t, domain.StatusSuspended, f.reload(t, acc.ID).Status)

	d, err := f.engine.CanAppeal(context.Background(), acc.ID, action.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a resolved appeal no longer blocks a new one")
}

func TestOverturnedContentRemovalRestoresArtwork(t *testing.T) {
	f := newFixture(t)
	artist := f.account(t, domain.KindArtist)
	f.artwork(t, artist.ID, "A1")

	action, err := f.engine.RecordEnforcement(context.Background(), EnforcementInput{
		AccountID: artist.ID,
		Category:  domain.ViolationCopyright,
		ArtworkID: "A1",
	})
	require.NoError(t, err)

	appeal, err := f.engine.SubmitAppeal(context.Background(), appealInput(artist.ID, action))
	require.NoError(t, err)
	_, err = f.engine.ResolveAppeal(context.Background(), appeal.ID, domain.OutcomeOverturned, "")
	require.NoError(t, err)

	artwork, err := f.store.Artworks().FindByID(context.Background(), "A1")
	require.NoError(t, err)
	assert.False(t, artwork.Removed)
}

func TestAppealAttachments(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)

	in := appealInput(acc.ID, action)
	in.Attachments = []domain.Attachment{{Name: "clip.mp4", ContentType: "video/mp4", Size: 1024}}
	_, err := f.engine.SubmitAppeal(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.Attachments = []domain.Attachment{{Name: "scan.pdf", ContentType: "application/pdf", Size: 11 * 1024 * 1024}}
	_, err = f.engine.SubmitAppeal(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.Attachments = make([]domain.Attachment, 6)
	for i := range in.Attachments {
		in.Attachments[i] = domain.Attachment{Name: "p.png", ContentType: "image/png", Size: 10}
	}
	_, err = f.engine.SubmitAppeal(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.Attachments = in.Attachments[:5]
	appeal, err := f.engine.SubmitAppeal(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, appeal.Attachments, 5)
}

func TestAppealQueueUnavailable(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, domain.KindArtist)
	action := enforce(t, f, acc.ID, domain.ViolationHarassment)
	f.queue.Fail(errors.New("connection refused"))

	_, err := f.engine.SubmitAppeal(context.Background(), appealInput(acc.ID, action))

	var failure *ExternalFailure
	require.True(t, errors.As(err, &failure))
	assert.True(t, failure.Retryable())
	assert.ErrorIs(t, err, ErrModerationUnavailable)

	open, err := f.store.Moderation().HasOpenAppeal(context.Background(), action.ID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestApplyModerationUpdateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	err := f.engine.ApplyModerationUpdate(context.Background(), moderation.Update{AppealID: "x", Status: domain.AppealSubmitted})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
