package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"beacon-hq/ferry/pkg/config"
	"beacon-hq/ferry/pkg/history"
	"beacon-hq/ferry/pkg/relay"
	"beacon-hq/ferry/pkg/server"
	"beacon-hq/ferry/pkg/telemetry/logging"
	"beacon-hq/ferry/pkg/telemetry/metrics"
	"beacon-hq/ferry/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	strategy      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ferry proxy server",
	Long: `Start the Ferry proxy server with the specified configuration.

The server listens on the configured address and forwards API requests to
the healthy upstream endpoint chosen by the routing strategy.

Examples:
  # Start with default config
  ferry run

  # Start with custom config
  ferry run --config /etc/ferry/config.yaml

  # Override listen address
  ferry run --listen 127.0.0.1:9000

  # Override routing strategy
  ferry run --strategy speed_first

  # Validate config without starting the server
  ferry run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.strategy, "strategy", "", "override routing strategy (fallback, polling, speed_first)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides before validation so overridden values are
	// checked too.
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.strategy != "" {
		cfg.Routing.Strategy = runFlags.strategy
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Ferry v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	collector := metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	var events *history.Store
	if cfg.History.Enabled {
		events, err = history.Open(cfg.History.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer events.Close()
		fmt.Printf("✓ Event history at %s\n", cfg.History.Path)

		if cfg.History.PruneSchedule != "" {
			retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
			pruner := history.NewPruner(events, cfg.History.PruneSchedule, retention, logger)
			if err := pruner.Start(context.Background()); err != nil {
				slog.Warn("failed to start history pruner", "error", err)
			} else {
				defer pruner.Stop()
			}
		}
	}

	rl, err := relay.New(cfg, relay.Options{
		Logger:  logger,
		Metrics: collector,
		Events:  events,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}

	fmt.Printf("✓ %d endpoints, %s strategy\n", rl.Generation().Len(), rl.Strategy().Name())
	fmt.Printf("✓ Listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	srv := server.NewServer(cfg, rl, server.Options{
		ConfigPath: cfgFile,
		Logger:     logger,
		Metrics:    collector,
		Events:     events,
		Tracer:     tracer,
	})
	return srv.Start(cmd.Context())
}
