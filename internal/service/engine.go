package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/pkg/clock"
	"github.com/artxchange/artx-api/internal/pkg/keylock"
	"github.com/artxchange/artx-api/internal/pkg/moderation"
	"github.com/artxchange/artx-api/internal/pkg/payment"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
}

type ArtworkRepository interface {
	CommitSubmission(ctx context.Context, account domain.Account, artwork domain.Artwork) (domain.Account, domain.Artwork, error)
	FindByID(ctx context.Context, id string) (domain.Artwork, error)
	HasVoted(ctx context.Context, accountID, artworkID string) (bool, error)
	CommitVote(ctx context.Context, account domain.Account, vote domain.VoteRecord) (domain.Account, domain.Artwork, error)
	CommitDonation(ctx context.Context, account domain.Account, donation domain.DonationRecord) (domain.Account, error)
	ListVotes(ctx context.Context, accountID string) ([]domain.VoteRecord, error)
}

type EventRepository interface {
	CommitEvent(ctx context.Context, account domain.Account, event domain.Event) (domain.Account, domain.Event, error)
	FindByID(ctx context.Context, id string) (domain.Event, error)
	CommitRegistration(ctx context.Context, reg domain.EventRegistration) (domain.Event, error)
}

type ModerationRepository interface {
	CountOffenses(ctx context.Context, accountID string, category domain.ViolationCategory) (int, error)
	CommitEnforcement(ctx context.Context, account domain.Account, action domain.EnforcementAction) (domain.Account, error)
	FindEnforcement(ctx context.Context, id string) (domain.EnforcementAction, error)
	ListEnforcements(ctx context.Context, accountID string) ([]domain.EnforcementAction, error)
	HasOpenAppeal(ctx context.Context, enforcementID string) (bool, error)
	CreateAppeal(ctx context.Context, appeal domain.Appeal) (domain.Appeal, error)
	FindAppeal(ctx context.Context, id string) (domain.Appeal, error)
	UpdateAppeal(ctx context.Context, appeal domain.Appeal) (domain.Appeal, error)
	CommitResolution(ctx context.Context, appeal domain.Appeal, account *domain.Account, action *domain.EnforcementAction) error
}

const (
	defaultExternalTimeout = 10 * time.Second
	defaultVoteCacheSize   = 100_000
)

type EngineConfig struct {
	Accounts   AccountRepository
	Artworks   ArtworkRepository
	Events     EventRepository
	Moderation ModerationRepository

	Payments payment.Gateway
	Queue    moderation.Queue
	Locker   keylock.Locker
	Clock    clock.Clock

	Policy          domain.Policy
	ExternalTimeout time.Duration
	VoteCacheSize   int

	// OnVote is called with the updated artwork after every committed vote.
	OnVote func(domain.Artwork)
}

// Engine decides whether an account may act and commits the action
// atomically with the decision. Every check-then-commit runs under a
// per-key lock.
type Engine struct {
	accounts   AccountRepository
	artworks   ArtworkRepository
	events     EventRepository
	moderation ModerationRepository

	payments payment.Gateway
	queue    moderation.Queue
	locker   keylock.Locker
	clock    clock.Clock

	policy  atomic.Pointer[domain.Policy]
	timeout time.Duration
	voted   *lru.Cache[string, struct{}]
	onVote  func(domain.Artwork)
}

func NewEngine(conf EngineConfig) (*Engine, error) {
	if conf.Locker == nil {
		conf.Locker = keylock.NewLocal()
	}
	if conf.Clock == nil {
		conf.Clock = clock.Real{}
	}
	if conf.ExternalTimeout <= 0 {
		conf.ExternalTimeout = defaultExternalTimeout
	}
	if conf.VoteCacheSize <= 0 {
		conf.VoteCacheSize = defaultVoteCacheSize
	}

	voted, err := lru.New[string, struct{}](conf.VoteCacheSize)
	if err != nil {
		return nil, fmt.Errorf("lru.New -> %w", err)
	}

	e := &Engine{
		accounts:   conf.Accounts,
		artworks:   conf.Artworks,
		events:     conf.Events,
		moderation: conf.Moderation,
		payments:   conf.Payments,
		queue:      conf.Queue,
		locker:     conf.Locker,
		clock:      conf.Clock,
		timeout:    conf.ExternalTimeout,
		voted:      voted,
		onVote:     conf.OnVote,
	}
	e.SetPolicy(conf.Policy)

	return e, nil
}

func (e *Engine) Policy() domain.Policy {
	return *e.policy.Load()
}

// SetPolicy swaps the policy used by every following decision.
func (e *Engine) SetPolicy(p domain.Policy) {
	e.policy.Store(&p)
}

// current loads the account with lazy resets applied, without locking it.
func (e *Engine) current(ctx context.Context, accountID string) (domain.Account, time.Time, domain.Policy, error) {
	acc, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, time.Time{}, domain.Policy{}, fmt.Errorf("e.accounts.FindByID -> %w", err)
	}

	p := e.Policy()
	now := e.clock.Now()
	acc.Rollover(now, p.Location())

	return acc, now, p, nil
}

// withAccount runs fn while holding the account's lock. fn sees the account
// with lazy resets applied and commits its own changes.
func (e *Engine) withAccount(ctx context.Context, accountID string, fn func(acc *domain.Account, now time.Time, p domain.Policy) error) error {
	unlock, err := e.locker.Lock(ctx, "account:"+accountID)
	if err != nil {
		return fmt.Errorf("e.locker.Lock -> %w", err)
	}
	defer unlock()

	acc, now, p, err := e.current(ctx, accountID)
	if err != nil {
		return err
	}

	return fn(&acc, now, p)
}

func (e *Engine) withKey(ctx context.Context, key string, fn func() error) error {
	unlock, err := e.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("e.locker.Lock -> %w", err)
	}
	defer unlock()

	return fn()
}

func (e *Engine) decide(action domain.Action, d domain.Decision) domain.Decision {
	observeDecision(action, d)
	return d
}

// charge calls the gateway under the engine's timeout. A timed out or
// cancelled call is reported as ErrPaymentUnavailable.
func (e *Engine) charge(ctx context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	c, err := e.payments.Charge(ctx, req)
	observeExternal("payment", "charge", start, err)
	if err != nil {
		if !errors.Is(err, payment.ErrDeclined) && !errors.Is(err, payment.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", payment.ErrUnavailable, err)
		}
		return payment.Charge{}, &ExternalFailure{Service: "payment", Op: "charge", Err: err}
	}

	return c, nil
}

// refund gives back a charge whose commit failed. It runs even when ctx is
// already cancelled.
func (e *Engine) refund(ctx context.Context, c payment.Charge, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	start := time.Now()
	err := e.payments.Refund(ctx, c.ID)
	observeExternal("payment", "refund", start, err)
	if err != nil {
		refundsTotal.WithLabelValues("error").Inc()
		zap.L().Error("refund after failed commit",
			zap.String("charge_id", c.ID),
			zap.Stringer("amount", c.Amount),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}

	refundsTotal.WithLabelValues("ok").Inc()
	zap.L().Warn("charge refunded after failed commit", zap.String("charge_id", c.ID), zap.Error(cause))
}

func (e *Engine) submitToQueue(ctx context.Context, appeal domain.Appeal) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	ref, err := e.queue.SubmitAppeal(ctx, appeal)
	observeExternal("moderation", "submit_appeal", start, err)
	if err != nil {
		if !errors.Is(err, moderation.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", moderation.ErrUnavailable, err)
		}
		return "", &ExternalFailure{Service: "moderation", Op: "submit_appeal", Err: err}
	}

	return ref, nil
}

// violated reports an invariant violation. The development logger panics.
func violated(err error) error {
	zap.L().DPanic("invariant violated", zap.Error(err))
	return err
}
