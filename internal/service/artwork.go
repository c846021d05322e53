package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/payment"
	"github.com/artxchange/artx-api/internal/repository"
)

const maxHashtags = 10

type ArtworkInput struct {
	AccountID   string
	Title       string
	Description string
	ImageURL    string
	Category    string
	Hashtags    []string
}

func (e *Engine) CanSubmitArtwork(ctx context.Context, accountID string) (domain.Decision, error) {
	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return domain.Decision{}, err
	}

	return e.decide(domain.ActionSubmitArtwork, acc.SubmissionDecision(now, p)), nil
}

// SubmitArtwork stores a new artwork and counts it against the artist's
// monthly cap.
func (e *Engine) SubmitArtwork(ctx context.Context, in ArtworkInput) (domain.Artwork, error) {
	if len(in.Hashtags) > maxHashtags {
		return domain.Artwork{}, invalid("at most %d hashtags", maxHashtags)
	}

	var created domain.Artwork
	err := e.withAccount(ctx, in.AccountID, func(acc *domain.Account, now time.Time, p domain.Policy) error {
		d := e.decide(domain.ActionSubmitArtwork, acc.SubmissionDecision(now, p))
		if !d.Allowed {
			return d.Err(domain.ActionSubmitArtwork)
		}
		if err := acc.RecordSubmission(now, p); err != nil {
			return violated(err)
		}

		artwork := domain.Artwork{
			ID:          uuid.NewString(),
			ArtistID:    acc.ID,
			Title:       in.Title,
			Description: in.Description,
			ImageURL:    in.ImageURL,
			Category:    in.Category,
			Hashtags:    in.Hashtags,
			CreatedAt:   now,
		}

		var err error
		if _, created, err = e.artworks.CommitSubmission(ctx, *acc, artwork); err != nil {
			return fmt.Errorf("e.artworks.CommitSubmission -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Artwork{}, err
	}

	return created, nil
}

func voteKey(accountID, artworkID string) string {
	return accountID + "/" + artworkID
}

// hasVoted consults the cache before the repository. Only positive answers
// are cached since a vote record is never deleted.
func (e *Engine) hasVoted(ctx context.Context, accountID, artworkID string) (bool, error) {
	key := voteKey(accountID, artworkID)
	if e.voted.Contains(key) {
		voteCacheHits.Inc()
		return true, nil
	}

	voted, err := e.artworks.HasVoted(ctx, accountID, artworkID)
	if err != nil {
		return false, fmt.Errorf("e.artworks.HasVoted -> %w", err)
	}
	if voted {
		e.voted.Add(key, struct{}{})
	}

	return voted, nil
}

func (e *Engine) voteDecision(ctx context.Context, acc domain.Account, artworkID string, now time.Time, p domain.Policy) (domain.Decision, error) {
	artwork, err := e.artworks.FindByID(ctx, artworkID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("e.artworks.FindByID -> %w", err)
	}
	if artwork.Removed {
		return domain.Deny(domain.ReasonContentUnavailable), nil
	}

	voted, err := e.hasVoted(ctx, acc.ID, artworkID)
	if err != nil {
		return domain.Decision{}, err
	}

	return acc.VoteDecision(now, voted, p), nil
}

func (e *Engine) CanVote(ctx context.Context, accountID, artworkID string) (domain.Decision, error) {
	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return domain.Decision{}, err
	}

	d, err := e.voteDecision(ctx, acc, artworkID, now, p)
	if err != nil {
		return domain.Decision{}, err
	}

	return e.decide(domain.ActionVote, d), nil
}

type VoteInput struct {
	AccountID     string
	ArtworkID     string
	DeviceID      string
	Method        domain.PaymentMethod
	PaymentToken  string
	TermsAccepted bool
}

type VoteResult struct {
	Vote    domain.VoteRecord `json:"vote"`
	Artwork domain.Artwork    `json:"artwork"`
}

// Vote charges the vote fee and records the vote. A failed charge leaves
// everything untouched; a failed commit refunds the charge.
func (e *Engine) Vote(ctx context.Context, in VoteInput) (VoteResult, error) {
	var result VoteResult
	err := e.withAccount(ctx, in.AccountID, func(acc *domain.Account, now time.Time, p domain.Policy) error {
		d, err := e.voteDecision(ctx, *acc, in.ArtworkID, now, p)
		if err != nil {
			return err
		}
		if d.Allowed && !p.AcceptsVoteMethod(in.Method) {
			d = domain.Deny(domain.ReasonMethodNotAccepted)
		}
		if d.Allowed && !in.TermsAccepted {
			d = domain.Deny(domain.ReasonTermsNotAccepted)
		}
		if !e.decide(domain.ActionVote, d).Allowed {
			return d.Err(domain.ActionVote)
		}
		if err = acc.RecordVote(now, p); err != nil {
			return violated(err)
		}

		id := uuid.NewString()
		c, err := e.charge(ctx, payment.ChargeRequest{
			AccountID:      acc.ID,
			Amount:         p.VoteFeeCents,
			Method:         in.Method,
			Description:    "ArtXchange vote " + in.ArtworkID,
			Token:          in.PaymentToken,
			IdempotencyKey: "vote:" + id,
		})
		if err != nil {
			return err
		}

		vote := domain.VoteRecord{
			ID:        id,
			AccountID: acc.ID,
			ArtworkID: in.ArtworkID,
			DeviceID:  in.DeviceID,
			Fee:       p.VoteFeeCents,
			Method:    in.Method,
			ChargeID:  c.ID,
			CreatedAt: now,
		}
		_, artwork, err := e.artworks.CommitVote(ctx, *acc, vote)
		if err != nil {
			e.refund(ctx, c, err)
			if errors.Is(err, repository.ErrVoteExists) {
				e.voted.Add(voteKey(acc.ID, in.ArtworkID), struct{}{})
				return domain.Deny(domain.ReasonAlreadyVoted).Err(domain.ActionVote)
			}
			return fmt.Errorf("e.artworks.CommitVote -> %w", err)
		}
		e.voted.Add(voteKey(acc.ID, in.ArtworkID), struct{}{})

		result = VoteResult{Vote: vote, Artwork: artwork}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	if e.onVote != nil {
		e.onVote(result.Artwork)
	}

	return result, nil
}

func (e *Engine) CanDonate(ctx context.Context, accountID string, amount domain.Cents) (domain.Decision, error) {
	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return domain.Decision{}, err
	}

	return e.decide(domain.ActionDonate, acc.DonationDecision(now, amount, p)), nil
}

type DonationInput struct {
	AccountID     string
	ArtistID      string
	ArtworkID     string
	Amount        domain.Cents
	Message       string
	Method        domain.PaymentMethod
	PaymentToken  string
	TermsAccepted bool
}

// Donate charges the donor and records the donation with its artist and tax
// shares.
func (e *Engine) Donate(ctx context.Context, in DonationInput) (domain.DonationRecord, error) {
	if in.AccountID == in.ArtistID {
		d := e.decide(domain.ActionDonate, domain.Deny(domain.ReasonSelfDonation))
		return domain.DonationRecord{}, d.Err(domain.ActionDonate)
	}

	artist, err := e.accounts.FindByID(ctx, in.ArtistID)
	if err != nil {
		return domain.DonationRecord{}, fmt.Errorf("e.accounts.FindByID -> %w", err)
	}
	if artist.Kind != domain.KindArtist {
		return domain.DonationRecord{}, invalid("account %s is not an artist", in.ArtistID)
	}
	if in.ArtworkID != "" {
		artwork, err := e.artworks.FindByID(ctx, in.ArtworkID)
		if err != nil {
			return domain.DonationRecord{}, fmt.Errorf("e.artworks.FindByID -> %w", err)
		}
		if artwork.ArtistID != artist.ID {
			return domain.DonationRecord{}, invalid("artwork %s is not by artist %s", in.ArtworkID, in.ArtistID)
		}
	}

	var donation domain.DonationRecord
	err = e.withAccount(ctx, in.AccountID, func(acc *domain.Account, now time.Time, p domain.Policy) error {
		d := acc.DonationDecision(now, in.Amount, p)
		if d.Allowed && utf8.RuneCountInString(in.Message) > p.DonationMessageMax {
			d = domain.Deny(domain.ReasonMessageTooLong)
		}
		if d.Allowed && !p.AcceptsDonationMethod(in.Method) {
			d = domain.Deny(domain.ReasonMethodNotAccepted)
		}
		if d.Allowed && !in.TermsAccepted {
			d = domain.Deny(domain.ReasonTermsNotAccepted)
		}
		if !e.decide(domain.ActionDonate, d).Allowed {
			return d.Err(domain.ActionDonate)
		}
		if err := acc.RecordDonation(now, p); err != nil {
			return violated(err)
		}

		id := uuid.NewString()
		c, err := e.charge(ctx, payment.ChargeRequest{
			AccountID:      acc.ID,
			Amount:         in.Amount,
			Method:         in.Method,
			Description:    "ArtXchange donation to " + artist.Name,
			Token:          in.PaymentToken,
			IdempotencyKey: "donation:" + id,
		})
		if err != nil {
			return err
		}

		donation = domain.DonationRecord{
			ID:            id,
			FromAccountID: acc.ID,
			ToArtistID:    artist.ID,
			ArtworkID:     in.ArtworkID,
			Amount:        in.Amount,
			Split:         domain.SplitDonation(in.Amount, p.DonationTaxPercent),
			Message:       in.Message,
			Method:        in.Method,
			TermsAccepted: in.TermsAccepted,
			ChargeID:      c.ID,
			CreatedAt:     now,
		}
		if donation.Split.Artist+donation.Split.Tax != donation.Amount {
			e.refund(ctx, c, domain.ErrInvariantViolation)
			return violated(fmt.Errorf("%w: split %+v of %s", domain.ErrInvariantViolation, donation.Split, donation.Amount))
		}

		if _, err = e.artworks.CommitDonation(ctx, *acc, donation); err != nil {
			e.refund(ctx, c, err)
			return fmt.Errorf("e.artworks.CommitDonation -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.DonationRecord{}, err
	}

	return donation, nil
}

func (e *Engine) Votes(ctx context.Context, accountID string) ([]domain.VoteRecord, error) {
	votes, err := e.artworks.ListVotes(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("e.artworks.ListVotes -> %w", err)
	}

	return votes, nil
}
