package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/cli"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/server"
	"mercator-hq/metricguard/pkg/telemetry"
	"mercator-hq/metricguard/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the decision API server",
	Long: `Start the decision API server with the specified configuration.

The server evaluates decision requests over HTTP, keeps the most recent
decisions in the in-memory audit log, and mirrors them to the archive when
one is configured. Health probes and Prometheus metrics are served on the
same listener.

Sending SIGHUP reloads the configuration file. The log level is applied
immediately; other changed sections are logged and take effect on restart.

Examples:
  # Start with default config
  metricguard run

  # Start with custom config
  metricguard run --config /etc/metricguard/config.yaml

  # Override listen address
  metricguard run --listen 0.0.0.0:8090

  # Validate config without starting server
  metricguard run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	applyRunOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	tel, err := telemetry.New(&cfg.Telemetry, versionInfo())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	printBanner(cmd, cfg)

	a, err := newApp(cfg, tel)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()
	if a.syncer != nil {
		fmt.Fprintf(out, "✓ Metric catalog loaded (%d metrics, commit %s)\n", a.catalog.Len(), shortCommit(a.syncer.ActiveCommit()))
	} else {
		fmt.Fprintf(out, "✓ Metric catalog loaded (%d metrics)\n", a.catalog.Len())
	}

	ctx := cli.SetupSignalHandler()

	if n, err := a.restore(ctx); err != nil {
		slog.Warn("audit log not restored", "error", err)
	} else if n > 0 {
		tel.Metrics().SetAuditLogSize(a.lifecycle.Log().Len())
		fmt.Fprintf(out, "✓ Audit log restored (%d records)\n", n)
	}

	if err := a.startBackground(ctx, tel); err != nil {
		return cli.NewCommandError("run", err)
	}
	go func() {
		for range cli.NotifyReload(ctx) {
			applyReload(cfgFile)
		}
	}()

	srv := server.NewServer(&cfg.Server, a.lifecycle, tel)

	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(out, "✓ Health endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Health.LivenessPath)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Start blocks until the signal handler cancels ctx, then shuts down
	// gracefully within the configured timeout.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// applyRunOverrides applies the run flags on top of a loaded configuration.
func applyRunOverrides(cfg *config.Config) {
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
}

// applyReload reloads the configuration file, applies the log level and
// reports every other section that changed.
func applyReload(path string) {
	prev := config.GetConfig()
	if prev == nil {
		return
	}
	if _, err := config.ReloadConfig(path); err != nil {
		slog.Error("configuration reload failed, keeping current configuration", "error", err)
		return
	}
	next := config.GetConfig()
	applyRunOverrides(next)

	changed := config.ChangedSections(prev, next)
	if len(changed) == 0 {
		slog.Info("configuration reloaded, nothing changed")
		return
	}
	for _, section := range changed {
		if section != "telemetry.logging" {
			slog.Warn("configuration changed, restart to apply", "section", section)
			continue
		}
		was, now := prev.Telemetry.Logging, next.Telemetry.Logging
		if was.Level != now.Level {
			if err := logging.SetLevel(now.Level); err != nil {
				slog.Error("failed to apply log level", "level", now.Level, "error", err)
			} else {
				slog.Info("log level changed", "from", was.Level, "to", now.Level)
			}
		}
		if was.Format != now.Format || was.AddSource != now.AddSource {
			slog.Warn("configuration changed, restart to apply", "section", section)
		}
	}
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "metricguard v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(out, "✓ Configuration loaded")

	if cfg.Audit.Archive.Enabled {
		slog.Debug("audit archive enabled", "driver", cfg.Audit.Archive.Driver, "path", cfg.Audit.Archive.Path)
	}
	if cfg.Telemetry.Tracing.Enabled {
		slog.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint)
	}
}
