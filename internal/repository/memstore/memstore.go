// Package memstore keeps engine state in process memory. It implements the
// same repositories as the gorm-backed ones and is used by the engine tests
// and the "memory" storage mode.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/repository"
)

type voteKey struct {
	accountID string
	artworkID string
}

type Store struct {
	mu sync.Mutex

	accounts      map[string]domain.Account
	emails        map[string]string
	artworks      map[string]domain.Artwork
	votes         map[voteKey]domain.VoteRecord
	donations     []domain.DonationRecord
	events        map[string]domain.Event
	registrations []domain.EventRegistration
	enforcements  map[string]domain.EnforcementAction
	appeals       map[string]domain.Appeal

	commitErr error
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		emails:       make(map[string]string),
		artworks:     make(map[string]domain.Artwork),
		votes:        make(map[voteKey]domain.VoteRecord),
		events:       make(map[string]domain.Event),
		enforcements: make(map[string]domain.EnforcementAction),
		appeals:      make(map[string]domain.Appeal),
	}
}

// FailCommits makes every following Commit* call return err until it is
// called again with nil.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// PutArtwork seeds an artwork without going through a submission.
func (s *Store) PutArtwork(a domain.Artwork) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artworks[a.ID] = cloneArtwork(a)
}

func (s *Store) PutEvent(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) Donations() []domain.DonationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.donations)
}

func (s *Store) Registrations() []domain.EventRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.registrations)
}

func (s *Store) Accounts() *Accounts     { return &Accounts{s} }
func (s *Store) Artworks() *Artworks     { return &Artworks{s} }
func (s *Store) Events() *Events         { return &Events{s} }
func (s *Store) Moderation() *Moderation { return &Moderation{s} }

// saveAccount is the in-memory compare-and-swap on Account.Version. The
// caller holds s.mu.
func (s *Store) saveAccount(a domain.Account) (domain.Account, error) {
	stored, ok := s.accounts[a.ID]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	if stored.Version != a.Version {
		return domain.Account{}, fmt.Errorf("%w: account %s at version %d", repository.ErrVersionConflict, a.ID, a.Version)
	}
	a.Version++
	s.accounts[a.ID] = cloneAccount(a)
	return cloneAccount(a), nil
}

type Accounts struct{ s *Store }

func (r *Accounts) Create(_ context.Context, a domain.Account) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.emails[a.Email]; ok {
		return domain.Account{}, repository.ErrAccountEmailExists
	}
	a.Version = 1
	r.s.accounts[a.ID] = cloneAccount(a)
	r.s.emails[a.Email] = a.ID
	return cloneAccount(a), nil
}

func (r *Accounts) FindByID(_ context.Context, id string) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *Accounts) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[email]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	return cloneAccount(r.s.accounts[id]), nil
}

func (r *Accounts) Update(_ context.Context, a domain.Account) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.saveAccount(a)
}

type Artworks struct{ s *Store }

func (r *Artworks) CommitSubmission(_ context.Context, account domain.Account, artwork domain.Artwork) (domain.Account, domain.Artwork, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Account{}, domain.Artwork{}, r.s.commitErr
	}
	saved, err := r.s.saveAccount(account)
	if err != nil {
		return domain.Account{}, domain.Artwork{}, err
	}
	r.s.artworks[artwork.ID] = cloneArtwork(artwork)
	return saved, cloneArtwork(artwork), nil
}

func (r *Artworks) FindByID(_ context.Context, id string) (domain.Artwork, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.artworks[id]
	if !ok {
		return domain.Artwork{}, repository.ErrArtworkNotFound
	}
	return cloneArtwork(a), nil
}

func (r *Artworks) HasVoted(_ context.Context, accountID, artworkID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.votes[voteKey{accountID, artworkID}]
	return ok, nil
}

func (r *Artworks) CommitVote(_ context.Context, account domain.Account, vote domain.VoteRecord) (domain.Account, domain.Artwork, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Account{}, domain.Artwork{}, r.s.commitErr
	}
	key := voteKey{vote.AccountID, vote.ArtworkID}
	if _, ok := r.s.votes[key]; ok {
		return domain.Account{}, domain.Artwork{}, repository.ErrVoteExists
	}
	artwork, ok := r.s.artworks[vote.ArtworkID]
	if !ok || artwork.Removed {
		return domain.Account{}, domain.Artwork{}, repository.ErrArtworkNotFound
	}
	saved, err := r.s.saveAccount(account)
	if err != nil {
		return domain.Account{}, domain.Artwork{}, err
	}

	r.s.votes[key] = vote
	artwork.Votes++
	r.s.artworks[artwork.ID] = artwork
	return saved, cloneArtwork(artwork), nil
}

func (r *Artworks) CommitDonation(_ context.Context, account domain.Account, d domain.DonationRecord) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Account{}, r.s.commitErr
	}
	saved, err := r.s.saveAccount(account)
	if err != nil {
		return domain.Account{}, err
	}
	r.s.donations = append(r.s.donations, d)
	return saved, nil
}

func (r *Artworks) ListVotes(_ context.Context, accountID string) ([]domain.VoteRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var votes []domain.VoteRecord
	for k, v := range r.s.votes {
		if k.accountID == accountID {
			votes = append(votes, v)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].CreatedAt.Before(votes[j].CreatedAt) })
	return votes, nil
}

type Events struct{ s *Store }

func (r *Events) CommitEvent(_ context.Context, account domain.Account, event domain.Event) (domain.Account, domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Account{}, domain.Event{}, r.s.commitErr
	}
	saved, err := r.s.saveAccount(account)
	if err != nil {
		return domain.Account{}, domain.Event{}, err
	}
	event.Hashtags = slices.Clone(event.Hashtags)
	r.s.events[event.ID] = event
	return saved, event, nil
}

func (r *Events) FindByID(_ context.Context, id string) (domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *Events) CommitRegistration(_ context.Context, reg domain.EventRegistration) (domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Event{}, r.s.commitErr
	}
	e, ok := r.s.events[reg.EventID]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	if e.Registered+reg.Quantity > e.Capacity {
		return domain.Event{}, repository.ErrEventFull
	}
	e.Registered += reg.Quantity
	r.s.events[e.ID] = e
	r.s.registrations = append(r.s.registrations, reg)
	return e, nil
}

type Moderation struct{ s *Store }

func (r *Moderation) CountOffenses(_ context.Context, accountID string, category domain.ViolationCategory) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, a := range r.s.enforcements {
		if a.AccountID == accountID && a.Category == category && !a.Reverted {
			n++
		}
	}
	return n, nil
}

func (r *Moderation) CommitEnforcement(_ context.Context, account domain.Account, action domain.EnforcementAction) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return domain.Account{}, r.s.commitErr
	}
	saved, err := r.s.saveAccount(account)
	if err != nil {
		return domain.Account{}, err
	}
	r.s.enforcements[action.ID] = action

	if action.Consequence.ResetVotes {
		for k, v := range r.s.votes {
			if k.accountID != account.ID || v.Voided {
				continue
			}
			v.Voided = true
			r.s.votes[k] = v
			if art, ok := r.s.artworks[k.artworkID]; ok && art.Votes > 0 {
				art.Votes--
				r.s.artworks[k.artworkID] = art
			}
		}
	}
	if action.Consequence.RemoveContent && action.ArtworkID != "" {
		if art, ok := r.s.artworks[action.ArtworkID]; ok && art.ArtistID == account.ID {
			art.Removed = true
			r.s.artworks[art.ID] = art
		}
	}

	return saved, nil
}

func (r *Moderation) FindEnforcement(_ context.Context, id string) (domain.EnforcementAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.enforcements[id]
	if !ok {
		return domain.EnforcementAction{}, repository.ErrEnforcementNotFound
	}
	return a, nil
}

func (r *Moderation) ListEnforcements(_ context.Context, accountID string) ([]domain.EnforcementAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var actions []domain.EnforcementAction
	for _, a := range r.s.enforcements {
		if a.AccountID == accountID {
			actions = append(actions, a)
		}
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].AppliedAt.Before(actions[j].AppliedAt) })
	return actions, nil
}

func (r *Moderation) HasOpenAppeal(_ context.Context, enforcementID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.openAppeal(enforcementID), nil
}

func (s *Store) openAppeal(enforcementID string) bool {
	for _, a := range s.appeals {
		if a.EnforcementID == enforcementID && a.Open() {
			return true
		}
	}
	return false
}

func (r *Moderation) CreateAppeal(_ context.Context, appeal domain.Appeal) (domain.Appeal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.openAppeal(appeal.EnforcementID) {
		return domain.Appeal{}, repository.ErrAppealExists
	}
	appeal.Attachments = slices.Clone(appeal.Attachments)
	r.s.appeals[appeal.ID] = appeal
	return appeal, nil
}

func (r *Moderation) FindAppeal(_ context.Context, id string) (domain.Appeal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appeals[id]
	if !ok {
		return domain.Appeal{}, repository.ErrAppealNotFound
	}
	return a, nil
}

func (r *Moderation) UpdateAppeal(_ context.Context, appeal domain.Appeal) (domain.Appeal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appeals[appeal.ID]; !ok {
		return domain.Appeal{}, repository.ErrAppealNotFound
	}
	r.s.appeals[appeal.ID] = appeal
	return appeal, nil
}

func (r *Moderation) CommitResolution(_ context.Context, appeal domain.Appeal, account *domain.Account, action *domain.EnforcementAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.commitErr != nil {
		return r.s.commitErr
	}
	if _, ok := r.s.appeals[appeal.ID]; !ok {
		return repository.ErrAppealNotFound
	}
	if account != nil {
		if _, err := r.s.saveAccount(*account); err != nil {
			return err
		}
	}

	r.s.appeals[appeal.ID] = appeal
	if action != nil {
		stored := r.s.enforcements[action.ID]
		stored.Reverted = true
		r.s.enforcements[action.ID] = stored
		if action.Consequence.RemoveContent && action.ArtworkID != "" {
			if art, ok := r.s.artworks[action.ArtworkID]; ok {
				art.Removed = false
				r.s.artworks[art.ID] = art
			}
		}
	}
	return nil
}

func cloneAccount(a domain.Account) domain.Account {
	a.Categories = slices.Clone(a.Categories)
	return a
}

func cloneArtwork(a domain.Artwork) domain.Artwork {
	a.Hashtags = slices.Clone(a.Hashtags)
	return a
}
