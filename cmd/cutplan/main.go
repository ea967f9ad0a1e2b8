// Package main provides the cutplan CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/logging"
	"github.com/chazu/cutplan/pkg/settings"
)

// Global flags
var (
	dbPath   string
	inMemory bool
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cutplan",
		Short: "Derive, validate and emit CNC machining operations",
		Long: `cutplan turns a job script (tools, sketches and operations) into a
program script for a post-processor.

Operation parameters are derived from the tools and sketch geometry, checked
against the design rules, and emitted in order. Defaults for new tools and
operations persist in a SQLite (or PostgreSQL) config store.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Config database path (overrides "+settings.EnvDB+")")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "memory", false, "Use an in-memory config store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(defaultsCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

// appEnv is what every command needs: settings, a logger and the config
// store holding persisted defaults.
type appEnv struct {
	settings settings.Settings
	logger   *zap.Logger
	cfg      *config.Config
	closeFn  func() error
}

func (a *appEnv) Close() {
	if a.closeFn != nil {
		if err := a.closeFn(); err != nil {
			a.logger.Warn("closing config store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func setup(ctx context.Context) (*appEnv, error) {
	s, err := settings.New()
	if err != nil {
		return nil, err
	}
	if verbose {
		s.LogLevel = "debug"
	}
	if dbPath != "" {
		s.DBPath = dbPath
	}

	logger, err := logging.New(s.LogLevel)
	if err != nil {
		return nil, err
	}

	env := &appEnv{settings: s, logger: logger}
	switch {
	case inMemory:
		env.cfg = config.New(config.NewMemoryStore(), logger.Named("config"))
	case s.PostgresDSN != "":
		store, err := config.OpenPostgres(ctx, s.PostgresDSN)
		if err != nil {
			return nil, err
		}
		env.cfg = config.New(store, logger.Named("config"))
		env.closeFn = store.Close
	default:
		store, err := config.OpenSQLite(s.DBPath)
		if err != nil {
			return nil, err
		}
		env.cfg = config.New(store, logger.Named("config"))
		env.closeFn = store.Close
	}
	logger.Debug("config store ready", zap.Bool("memory", inMemory), zap.Bool("postgres", s.PostgresDSN != ""))
	return env, nil
}
