package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/cli"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "metricguard",
	Short: "metricguard - decision-safety gate for business metrics",
	Long: `metricguard checks whether a business metric is safe to drive a decision.

Each request names a metric, a decision type, an analysis window, and the
sample behind it. Eight guard rules covering data integrity, sample size,
bias, and metric misuse produce ALLOW, WARN, or BLOCK with a confidence
score, a plain-language explanation, and an audit record.

Configuration is read from --config (YAML), then METRICGUARD_* environment
variables. Without --config the built-in defaults are used.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration for one-shot commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupCommandLogging routes logs of one-shot commands to stderr as text,
// quiet unless --verbose is set.
func setupCommandLogging(cmd *cobra.Command) error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	_, err := logging.Setup(logging.Config{
		Level:  level,
		Format: "text",
		Writer: cmd.ErrOrStderr(),
	})
	return err
}
