package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	v1 "github.com/artxchange/artx-api/internal/api/handler/v1"
	"github.com/artxchange/artx-api/internal/config"
	"github.com/artxchange/artx-api/internal/pkg/keylock"
	"github.com/artxchange/artx-api/internal/pkg/moderation"
	"github.com/artxchange/artx-api/internal/pkg/payment"
	"github.com/artxchange/artx-api/internal/repository"
	"github.com/artxchange/artx-api/internal/repository/dao"
	"github.com/artxchange/artx-api/internal/repository/memstore"
	"github.com/artxchange/artx-api/internal/service"
)

const (
	storagePostgres = "postgres"
	storageSQLite   = "sqlite"
	storageMemory   = "memory"
)

type deps struct {
	engine   *service.Engine
	auth     *service.AuthService
	accounts *service.AccountService
	feed     *v1.FeedHandler

	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

type repositories struct {
	accounts   service.AccountRepository
	artworks   service.ArtworkRepository
	events     service.EventRepository
	moderation service.ModerationRepository
}

func gormRepositories(gdb *gorm.DB) repositories {
	return repositories{
		accounts:   repository.NewAccountRepository(dao.NewAccountDAO(gdb)),
		artworks:   repository.NewArtworkRepository(dao.NewArtworkDAO(gdb)),
		events:     repository.NewEventRepository(dao.NewEventDAO(gdb)),
		moderation: repository.NewModerationRepository(dao.NewModerationDAO(gdb)),
	}
}

func accountService(gdb *gorm.DB) *service.AccountService {
	return service.NewAccountService(repository.NewAccountRepository(dao.NewAccountDAO(gdb)))
}

// wire builds the engine and its collaborators from conf. An empty Redis or
// NATS URL or Stripe key selects the in-process implementation.
func wire(ctx context.Context, conf *config.AppConfig) (*deps, error) {
	d := &deps{}

	repos, err := openRepositories(conf)
	if err != nil {
		return nil, err
	}

	var locker keylock.Locker = keylock.NewLocal()
	if conf.Redis.URL != "" {
		r, err := keylock.NewRedis(conf.Redis.URL, conf.Redis.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis -> %w", err)
		}
		d.closers = append(d.closers, func() { _ = r.Client.Close() })
		locker = r
	}

	var payments payment.Gateway
	if conf.Stripe.SecretKey != "" {
		payments = payment.NewStripe(conf.Stripe.SecretKey, nil)
	} else {
		zap.L().Warn("no stripe key configured, payments are simulated")
		payments = payment.NewSimulator(conf.Engine.SimulatedPaymentDelay)
	}

	var (
		queue moderation.Queue = moderation.NewMemory()
		bus   *moderation.NATS
	)
	if conf.NATS.URL != "" {
		bus, err = moderation.NewNATS(conf.NATS.URL)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("failed to connect to nats -> %w", err)
		}
		d.closers = append(d.closers, bus.Close)
		queue = bus
	}

	d.feed = v1.NewFeedHandler()
	feedCtx, stopFeed := context.WithCancel(ctx)
	d.closers = append(d.closers, stopFeed)
	go d.feed.Run(feedCtx)

	d.engine, err = service.NewEngine(service.EngineConfig{
		Accounts:        repos.accounts,
		Artworks:        repos.artworks,
		Events:          repos.events,
		Moderation:      repos.moderation,
		Payments:        payments,
		Queue:           queue,
		Locker:          locker,
		Policy:          conf.Policy,
		ExternalTimeout: conf.Engine.ExternalTimeout,
		VoteCacheSize:   conf.Engine.VoteCacheSize,
		OnVote:          d.feed.Publish,
	})
	if err != nil {
		d.close()
		return nil, fmt.Errorf("service.NewEngine -> %w", err)
	}

	if bus != nil {
		if err = bus.Listen(d.engine.ApplyModerationUpdate); err != nil {
			d.close()
			return nil, fmt.Errorf("bus.Listen -> %w", err)
		}
	}

	d.auth = service.NewAuthService(repos.accounts, d.engine)
	d.accounts = service.NewAccountService(repos.accounts)

	return d, nil
}

func openRepositories(conf *config.AppConfig) (repositories, error) {
	gdb, err := openDB(conf)
	if err != nil {
		return repositories{}, err
	}

	if gdb == nil {
		zap.L().Warn("using in-memory storage, nothing is persisted")
		store := memstore.New()
		return repositories{
			accounts:   store.Accounts(),
			artworks:   store.Artworks(),
			events:     store.Events(),
			moderation: store.Moderation(),
		}, nil
	}

	if conf.API.Storage == storageSQLite {
		if err = dao.InitTables(gdb); err != nil {
			return repositories{}, fmt.Errorf("dao.InitTables -> %w", err)
		}
	}

	return gormRepositories(gdb), nil
}
