// Command storectl runs one-off storefront operations against the configured database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Storefront administration tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	open := func(cmd *cobra.Command) (*env, error) {
		return openEnv(cmd.Context(), logLevel)
	}
	root.AddCommand(
		createAdminCmd(open),
		setRateCmd(open),
		reconcileCmd(open),
		purgeCartsCmd(open),
	)
	return root
}

// env is the configuration, logger and database shared by every command
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
}

type opener func(cmd *cobra.Command) (*env, error)

func openEnv(ctx context.Context, logLevel string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn("Error closing database", zap.Error(err))
	}
	_ = e.log.Sync()
}
