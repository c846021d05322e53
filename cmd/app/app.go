package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/artxchange/artx-api/internal/api"
	"github.com/artxchange/artx-api/internal/config"
	"github.com/artxchange/artx-api/internal/db"
	"github.com/artxchange/artx-api/internal/domain"
	"github.com/artxchange/artx-api/internal/logger"
	"github.com/artxchange/artx-api/internal/repository/dao"
)

const (
	defaultConfigPath = "./cmd/app/config.yml"
	shutdownTimeout   = 10 * time.Second
)

func Start() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "artx",
		Short:         "ArtXchange API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Config file path (YAML)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database tables",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(configPath)
			},
		},
		&cobra.Command{
			Use:   "policy",
			Short: "Print the policy in force after config and environment overrides",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printPolicy(cmd, configPath)
			},
		},
		&cobra.Command{
			Use:   "promote <email>",
			Short: "Grant the moderator role to an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return promote(cmd.Context(), configPath, args[0])
			},
		},
	)

	return cmd
}

func load(path string) (*config.AppConfig, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}

	return conf, nil
}

func serve(ctx context.Context, configPath string) error {
	conf, err := load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := wire(ctx, conf)
	if err != nil {
		return err
	}
	defer d.close()

	conf.WatchPolicy(d.engine.SetPolicy)

	s := api.NewServer(conf, api.Services{
		Engine:   d.engine,
		Auth:     d.auth,
		Accounts: d.accounts,
		Feed:     d.feed,
	})

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr), zap.String("storage", conf.API.Storage))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}

func migrate(configPath string) error {
	conf, err := load(configPath)
	if err != nil {
		return err
	}

	gdb, err := openDB(conf)
	if err != nil {
		return err
	}
	if gdb == nil {
		return fmt.Errorf("storage %q has no tables to migrate", conf.API.Storage)
	}

	if err = dao.InitTables(gdb); err != nil {
		return fmt.Errorf("failed to migrate -> %w", err)
	}
	zap.L().Info("tables migrated", zap.String("storage", conf.API.Storage))

	return nil
}

func printPolicy(cmd *cobra.Command, configPath string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	out, err := yaml.Marshal(struct {
		Policy domain.Policy `yaml:"policy"`
	}{conf.Policy})
	if err != nil {
		return fmt.Errorf("yaml.Marshal -> %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func promote(ctx context.Context, configPath, email string) error {
	conf, err := load(configPath)
	if err != nil {
		return err
	}

	gdb, err := openDB(conf)
	if err != nil {
		return err
	}
	if gdb == nil {
		return fmt.Errorf("storage %q does not persist accounts", conf.API.Storage)
	}

	account, err := accountService(gdb).SetRole(ctx, email, domain.RoleModerator)
	if err != nil {
		return fmt.Errorf("failed to promote %s -> %w", email, err)
	}
	zap.L().Info("account promoted", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))

	return nil
}

// openDB returns nil for the memory storage.
func openDB(conf *config.AppConfig) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)
	switch conf.API.Storage {
	case storageMemory:
		return nil, nil
	case storageSQLite:
		gdb, err = db.OpenSQLite(conf.SQLite.Path)
	case storagePostgres:
		if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
			gdb, err = db.OpenPostgresWithURL(dbURL)
		} else {
			gdb, err = db.OpenPostgres(conf.Postgres)
		}
	default:
		return nil, fmt.Errorf("unknown storage %q", conf.API.Storage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	return gdb, nil
}
