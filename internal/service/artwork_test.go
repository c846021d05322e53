package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/payment"
)

func submit(f *fixture, accountID string) (domain.Artwork, error) {
	return f.engine.SubmitArtwork(context.Background(), ArtworkInput{
		AccountID: accountID,
		Title:     "Kreuzberg rooftops",
		Category:  "painting",
		Hashtags:  []string{"berlin", "streetart"},
	})
}

func TestMonthlySubmissionCap(t *testing.T) {
	f := newFixture(t)
	artist := f.account(t, domain.KindArtist)

	for i := range 10 {
		_, err := submit(f, artist.ID)
		require.NoError(t, err, "submission %d", i+1)
	}
	assert.Equal(t, 10, f.reload(t, artist.ID).MonthlySubmissions)

	for range 3 {
		_, err := submit(f, artist.ID)
		d := requireDenial(t, err, domain.ReasonMonthlyLimit)
		require.NotNil(t, d.ResetsAt)
		assert.True(t, d.ResetsAt.Equal(time.Date(2026, time.November, 1, 0, 0, 0, 0, f.loc)))
	}
	assert.Equal(t, 10, f.reload(t, artist.ID).MonthlySubmissions)
}

func TestSubmissionAtNineOfTen(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	artist := f.account(t, domain.KindArtist, func(a *domain.Account) {
		a.MonthlySubmissions = 9
		a.MaxMonthlySubmissions = 10
		a.LastSubmissionDate = now.Add(-time.Hour)
	})

	artwork, err := submit(f, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, artist.ID, artwork.ArtistID)
	assert.Equal(t, 10, f.reload(t, artist.ID).MonthlySubmissions)

	_, err = submit(f, artist.ID)
	requireDenial(t, err, domain.ReasonMonthlyLimit)
}

func TestSubmissionAtNineOfTenWithoutLastDate(t *testing.T) {
	f := newFixture(t)
	artist := f.account(t, domain.KindArtist, func(a *domain.Account) {
		a.MonthlySubmissions = 9
		a.MaxMonthlySubmissions = 10
	})

	_, err := submit(f, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.reload(t, artist.ID).MonthlySubmissions)

	_, err = submit(f, artist.ID)
	requireDenial(t, err, domain.ReasonMonthlyLimit)
}

func TestMonthlyCounterResetsOnNextMonth(t *testing.T) {
	f := newFixture(t)
	artist := f.account(t, domain.KindArtist, func(a *domain.Account) {
		a.MonthlySubmissions = 10
		a.LastSubmissionDate = time.Date(2026, time.October, 31, 23, 30, 0, 0, a.JoinDate.Location())
	})
	f.clock.Set(time.Date(2026, time.October, 31, 23, 59, 0, 0, f.loc))

	d, err := f.engine.CanSubmitArtwork(context.Background(), artist.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	f.clock.Set(time.Date(2026, time.November, 1, 0, 0, 1, 0, f.loc))
	d, err = f.engine.CanSubmitArtwork(context.Background(), artist.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	_, err = submit(f, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.reload(t, artist.ID).MonthlySubmissions)
}

func TestSubmissionRejectsNonArtistsAndTooManyHashtags(t *testing.T) {
	f := newFixture(t)
	creator := f.account(t, domain.KindEventCreator)

	_, err := submit(f, creator.ID)
	requireDenial(t, err, domain.ReasonKindNotPermitted)

	artist := f.account(t, domain.KindArtist)
	_, err = f.engine.SubmitArtwork(context.Background(), ArtworkInput{
		AccountID: artist.ID,
		Title:     "Tags",
		Hashtags:  strings.Split("a b c d e f g h i j k", " "),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func vote(f *fixture, accountID, artworkID string) (VoteResult, error) {
	return f.engine.Vote(context.Background(), VoteInput{
		AccountID:     accountID,
		ArtworkID:     artworkID,
		Method:        domain.MethodPayPal,
		TermsAccepted: true,
	})
}

func TestVoteThenRepeatIsDenied(t *testing.T) {
	var tallies []int
	f := newFixture(t, func(c *EngineConfig) {
		c.OnVote = func(a domain.Artwork) { tallies = append(tallies, a.Votes) }
	})
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	d, err := f.engine.CanVote(context.Background(), voter.ID, "A1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	result, err := vote(f, voter.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Artwork.Votes)
	assert.Equal(t, domain.Cents(10), result.Vote.Fee)
	assert.Equal(t, domain.MethodPayPal, result.Vote.Method)
	assert.Equal(t, []int{1}, tallies)

	voted, err := f.store.Artworks().HasVoted(context.Background(), voter.ID, "A1")
	require.NoError(t, err)
	assert.True(t, voted)

	d, err = f.engine.CanVote(context.Background(), voter.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAlreadyVoted, d.Reason)

	_, err = vote(f, voter.ID, "A1")
	requireDenial(t, err, domain.ReasonAlreadyVoted)

	require.Len(t, f.payments.Charges(), 1)
	assert.Equal(t, domain.Cents(10), f.payments.Charges()[0].Amount)
	assert.Equal(t, 1, f.reload(t, voter.ID).DailyVotes)
}

func TestConcurrentVotesCountOnce(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		denials int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := vote(f, voter.ID, "A1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsDenial(err, domain.ReasonAlreadyVoted):
				denials++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, denials)

	artwork, err := f.store.Artworks().FindByID(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, artwork.Votes)
	assert.Equal(t, 1, f.reload(t, voter.ID).DailyVotes)
	assert.Len(t, f.payments.Charges(), 1)
}

func TestDailyVoteCapResetsNextDay(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindGuerrillaPartner)
	for i := range 11 {
		f.artwork(t, "artist", fmt.Sprintf("A%d", i))
	}

	for i := range 10 {
		_, err := vote(f, voter.ID, fmt.Sprintf("A%d", i))
		require.NoError(t, err)
	}

	_, err := vote(f, voter.ID, "A10")
	d := requireDenial(t, err, domain.ReasonDailyLimit)
	require.NotNil(t, d.ResetsAt)
	assert.True(t, d.ResetsAt.Equal(time.Date(2026, time.October, 15, 0, 0, 0, 0, f.loc)))

	f.clock.Set(time.Date(2026, time.October, 15, 0, 0, 1, 0, f.loc))

	report, err := f.engine.Eligibility(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DailyVotes.Used)

	_, err = vote(f, voter.ID, "A10")
	require.NoError(t, err)
	assert.Equal(t, 1, f.reload(t, voter.ID).DailyVotes)
}

func TestVoteRequiresAcceptedMethodAndTerms(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	_, err := f.engine.Vote(context.Background(), VoteInput{AccountID: voter.ID, ArtworkID: "A1", Method: domain.MethodCreditCard, TermsAccepted: true})
	requireDenial(t, err, domain.ReasonMethodNotAccepted)

	_, err = f.engine.Vote(context.Background(), VoteInput{AccountID: voter.ID, ArtworkID: "A1", Method: domain.MethodApplePay})
	requireDenial(t, err, domain.ReasonTermsNotAccepted)

	assert.Empty(t, f.payments.Charges())
}

func TestVoteOnRemovedOrUnknownArtwork(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindArtist)
	f.store.PutArtwork(domain.Artwork{ID: "gone", ArtistID: "artist", Removed: true})

	_, err := vote(f, voter.ID, "gone")
	requireDenial(t, err, domain.ReasonContentUnavailable)

	_, err = vote(f, voter.ID, "missing")
	assert.ErrorIs(t, err, ErrArtworkNotFound)
}

func TestVoteGatewayTimeoutMutatesNothing(t *testing.T) {
	f := newFixture(t, func(c *EngineConfig) {
		c.ExternalTimeout = 20 * time.Millisecond
	})
	f.payments.Delay = 500 * time.Millisecond
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	_, err := vote(f, voter.ID, "A1")

	var failure *ExternalFailure
	require.True(t, errors.As(err, &failure))
	assert.True(t, failure.Retryable())
	assert.ErrorIs(t, err, ErrPaymentUnavailable)

	assert.Equal(t, 0, f.reload(t, voter.ID).DailyVotes)
	voted, err := f.store.Artworks().HasVoted(context.Background(), voter.ID, "A1")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteCancelledByCaller(t *testing.T) {
	f := newFixture(t)
	f.payments.Delay = time.Second
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.engine.Vote(ctx, VoteInput{AccountID: voter.ID, ArtworkID: "A1", Method: domain.MethodGooglePay, TermsAccepted: true})
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
	assert.Equal(t, 0, f.reload(t, voter.ID).DailyVotes)
}

func TestVoteDeclinedIsNotRetryable(t *testing.T) {
	f := newFixture(t)
	f.payments.Fail(payment.ErrDeclined)
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")

	_, err := vote(f, voter.ID, "A1")

	var failure *ExternalFailure
	require.True(t, errors.As(err, &failure))
	assert.False(t, failure.Retryable())
	assert.ErrorIs(t, err, ErrPaymentDeclined)
}

func TestFailedCommitRefundsCharge(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")
	f.store.FailCommits(errors.New("disk full"))

	_, err := vote(f, voter.ID, "A1")
	require.Error(t, err)
	assert.False(t, domain.IsDenial(err))

	assert.Empty(t, f.payments.Charges(), "charge must be refunded")
	assert.Equal(t, 0, f.reload(t, voter.ID).DailyVotes)

	f.store.FailCommits(nil)
	_, err = vote(f, voter.ID, "A1")
	require.NoError(t, err)
	assert.Len(t, f.payments.Charges(), 1)
}

func donate(f *fixture, donorID, artistID string, amount domain.Cents) (domain.DonationRecord, error) {
	return f.engine.Donate(context.Background(), DonationInput{
		AccountID:     donorID,
		ArtistID:      artistID,
		Amount:        amount,
		Message:       "Keep painting!",
		Method:        domain.MethodApplePay,
		TermsAccepted: true,
	})
}

func TestDonationSplit(t *testing.T) {
	f := newFixture(t)
	donor := f.account(t, domain.KindGuerrillaPartner)
	artist := f.account(t, domain.KindArtist)

	d, err := donate(f, donor.ID, artist.ID, 125)
	require.NoError(t, err)
	assert.Equal(t, domain.Split{Artist: 107, Tax: 18}, d.Split)
	assert.Equal(t, d.Amount, d.Split.Artist+d.Split.Tax)

	require.Len(t, f.store.Donations(), 1)
	assert.Equal(t, artist.ID, f.store.Donations()[0].ToArtistID)
	assert.Equal(t, 1, f.reload(t, donor.ID).DailyDonations)
}

func TestDonationDenials(t *testing.T) {
	f := newFixture(t)
	donor := f.account(t, domain.KindArtist)
	artist := f.account(t, domain.KindArtist)
	creator := f.account(t, domain.KindEventCreator)

	_, err := donate(f, donor.ID, donor.ID, 500)
	requireDenial(t, err, domain.ReasonSelfDonation)

	_, err = donate(f, donor.ID, artist.ID, 99)
	requireDenial(t, err, domain.ReasonAmountOutOfRange)

	_, err = donate(f, donor.ID, artist.ID, domain.Euros(10)+1)
	requireDenial(t, err, domain.ReasonAmountOutOfRange)

	_, err = donate(f, donor.ID, creator.ID, 500)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.engine.Donate(context.Background(), DonationInput{
		AccountID: donor.ID, ArtistID: artist.ID, Amount: 500, Message: strings.Repeat("x", 201),
		Method: domain.MethodApplePay, TermsAccepted: true,
	})
	requireDenial(t, err, domain.ReasonMessageTooLong)

	_, err = f.engine.Donate(context.Background(), DonationInput{
		AccountID: donor.ID, ArtistID: artist.ID, Amount: 500, Method: domain.MethodSEPA, TermsAccepted: true,
	})
	requireDenial(t, err, domain.ReasonMethodNotAccepted)

	assert.Empty(t, f.payments.Charges())
}

func TestDonationDailyCap(t *testing.T) {
	f := newFixture(t)
	donor := f.account(t, domain.KindArtist)
	artist := f.account(t, domain.KindArtist)

	for range 10 {
		_, err := donate(f, donor.ID, artist.ID, domain.Euros(1))
		require.NoError(t, err)
	}

	_, err := donate(f, donor.ID, artist.ID, domain.Euros(1))
	requireDenial(t, err, domain.ReasonDailyLimit)

	d, err := f.engine.CanDonate(context.Background(), donor.ID, domain.Euros(1))
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDailyLimit, d.Reason)

	f.clock.Advance(24 * time.Hour)
	d, err = f.engine.CanDonate(context.Background(), donor.ID, domain.Euros(1))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestVotesListsAccountVotes(t *testing.T) {
	f := newFixture(t)
	voter := f.account(t, domain.KindArtist)
	f.artwork(t, "artist", "A1")
	f.artwork(t, "artist", "A2")

	_, err := vote(f, voter.ID, "A1")
	require.NoError(t, err)
	_, err = vote(f, voter.ID, "A2")
	require.NoError(t, err)

	votes, err := f.engine.Votes(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 2)
}
