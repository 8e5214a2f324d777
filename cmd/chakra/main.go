// chakra turns tracked hand poses into interactions with virtual objects:
// point to hover, draw circles with an open palm to activate, grab with a
// fist and release to throw.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/chakra/internal/app"
	"github.com/ayusman/chakra/internal/config"
	"github.com/ayusman/chakra/internal/logger"
	"github.com/ayusman/chakra/internal/metrics"
	"github.com/ayusman/chakra/internal/store"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "chakra",
		Short: "Hand-gesture interaction engine",
		Long: `chakra receives hand-tracking frames, classifies finger poses and drives
a per-hand gesture state machine: point at an object to hover it, open the
palm and circle to activate it, close a fist to grab it and release to throw.

Configuration is read from the YAML file given by --config or CHAKRA_CONFIG,
then from CHAKRA_* environment variables.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init()
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default $CHAKRA_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(flags),
		newTrayCmd(flags),
		newCalibrateCmd(flags),
	)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the log level.
func loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(ctx, flags.configPath)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// openStore opens the database inside the configured data directory.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}

// buildApp wires the store, metrics and app and loads the persisted scene.
// The caller closes the store.
func buildApp(ctx context.Context, cfg *config.Config) (*app.App, *store.Store, error) {
	log := logger.Get()

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.NewManager(metrics.WithMetricsEnabled(cfg.Metrics))
	a, err := app.New(app.Options{
		Config:  cfg,
		Store:   st,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn(ctx, "plugin discovery failed", logger.Error(err))
	}
	if err := a.LoadInteractables(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load interactables: %w", err)
	}
	if err := a.ApplyActiveProfile(); err != nil {
		log.Warn(ctx, "keeping configured finger thresholds", logger.Error(err))
	}

	return a, st, nil
}
