package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/repository/dao"
)

var (
	ErrArtworkNotFound = dao.ErrArtworkNotFound
	ErrVoteExists      = dao.ErrVoteExists
)

type ArtworkDAO interface {
	InsertArtwork(ctx context.Context, account dao.Account, artwork dao.Artwork) (dao.Account, dao.Artwork, error)
	FindByID(ctx context.Context, id string) (dao.Artwork, error)
	VoteExists(ctx context.Context, accountID, artworkID string) (bool, error)
	InsertVote(ctx context.Context, account dao.Account, vote dao.Vote) (dao.Account, dao.Artwork, error)
	InsertDonation(ctx context.Context, account dao.Account, donation dao.Donation) (dao.Account, error)
	ListVotes(ctx context.Context, accountID string) ([]dao.Vote, error)
}

type ArtworkRepository struct {
	dao ArtworkDAO
}

func NewArtworkRepository(dao ArtworkDAO) *ArtworkRepository {
	return &ArtworkRepository{
		dao: dao,
	}
}

func (r *ArtworkRepository) CommitSubmission(ctx context.Context, account domain.Account, artwork domain.Artwork) (domain.Account, domain.Artwork, error) {
	savedAccount, savedArtwork, err := r.dao.InsertArtwork(ctx, accountToDAO(account), artworkToDAO(artwork))
	if err != nil {
		return domain.Account{}, domain.Artwork{}, fmt.Errorf("r.dao.InsertArtwork -> %w", err)
	}

	return accountToDomain(savedAccount), artworkToDomain(savedArtwork), nil
}

func (r *ArtworkRepository) FindByID(ctx context.Context, id string) (domain.Artwork, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Artwork{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return artworkToDomain(found), nil
}

func (r *ArtworkRepository) HasVoted(ctx context.Context, accountID, artworkID string) (bool, error) {
	exists, err := r.dao.VoteExists(ctx, accountID, artworkID)
	if err != nil {
		return false, fmt.Errorf("r.dao.VoteExists -> %w", err)
	}

	return exists, nil
}

func (r *ArtworkRepository) CommitVote(ctx context.Context, account domain.Account, vote domain.VoteRecord) (domain.Account, domain.Artwork, error) {
	savedAccount, artwork, err := r.dao.InsertVote(ctx, accountToDAO(account), dao.Vote{
		ID:        vote.ID,
		AccountID: vote.AccountID,
		ArtworkID: vote.ArtworkID,
		DeviceID:  vote.DeviceID,
		FeeCents:  int64(vote.Fee),
		Method:    string(vote.Method),
		ChargeID:  vote.ChargeID,
		CreatedAt: vote.CreatedAt,
	})
	if err != nil {
		return domain.Account{}, domain.Artwork{}, fmt.Errorf("r.dao.InsertVote -> %w", err)
	}

	return accountToDomain(savedAccount), artworkToDomain(artwork), nil
}

func (r *ArtworkRepository) CommitDonation(ctx context.Context, account domain.Account, d domain.DonationRecord) (domain.Account, error) {
	saved, err := r.dao.InsertDonation(ctx, accountToDAO(account), dao.Donation{
		ID:            d.ID,
		FromAccountID: d.FromAccountID,
		ToArtistID:    d.ToArtistID,
		ArtworkID:     d.ArtworkID,
		AmountCents:   int64(d.Amount),
		ArtistCents:   int64(d.Split.Artist),
		TaxCents:      int64(d.Split.Tax),
		Message:       d.Message,
		Method:        string(d.Method),
		TermsAccepted: d.TermsAccepted,
		ChargeID:      d.ChargeID,
		CreatedAt:     d.CreatedAt,
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.InsertDonation -> %w", err)
	}

	return accountToDomain(saved), nil
}

func (r *ArtworkRepository) ListVotes(ctx context.Context, accountID string) ([]domain.VoteRecord, error) {
	found, err := r.dao.ListVotes(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListVotes -> %w", err)
	}

	votes := make([]domain.VoteRecord, 0, len(found))
	for _, v := range found {
		votes = append(votes, domain.VoteRecord{
			ID:        v.ID,
			AccountID: v.AccountID,
			ArtworkID: v.ArtworkID,
			DeviceID:  v.DeviceID,
			Fee:       domain.Cents(v.FeeCents),
			Method:    domain.PaymentMethod(v.Method),
			ChargeID:  v.ChargeID,
			Voided:    v.Voided,
			CreatedAt: v.CreatedAt,
		})
	}

	return votes, nil
}

func artworkToDAO(a domain.Artwork) dao.Artwork {
	return dao.Artwork{
		ID:          a.ID,
		ArtistID:    a.ArtistID,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Category:    a.Category,
		Hashtags:    slices.Clone(a.Hashtags),
		Votes:       a.Votes,
		Removed:     a.Removed,
		CreatedAt:   a.CreatedAt,
	}
}

func artworkToDomain(a dao.Artwork) domain.Artwork {
	return domain.Artwork{
		ID:          a.ID,
		ArtistID:    a.ArtistID,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Category:    a.Category,
		Hashtags:    a.Hashtags,
		Votes:       a.Votes,
		Removed:     a.Removed,
		CreatedAt:   a.CreatedAt,
	}
}
