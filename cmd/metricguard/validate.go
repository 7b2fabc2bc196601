package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/cli"
	"mercator-hq/metricguard/pkg/telemetry/tracing"
)

var validateFlags struct {
	catalogFile string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and catalog files",
	Long: `Validate the configuration (--config plus METRICGUARD_* overrides) and
the metric catalog it points to, without starting anything.

All configuration problems are reported at once. Exits with code 2 when
anything is invalid.

Examples:
  metricguard validate --config config.yaml
  metricguard validate --catalog metrics.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.catalogFile, "catalog", "", "catalog YAML file (overrides catalog.file_path)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sampling := tracing.SamplingConfig{
		Strategy: cfg.Telemetry.Tracing.Sampler,
		Ratio:    cfg.Telemetry.Tracing.SampleRatio,
	}
	if err := sampling.Validate(); err != nil {
		return cli.NewConfigError("telemetry.tracing.sampler", err.Error())
	}
	fmt.Fprintln(out, "✓ Configuration valid")

	cat, source, err := resolveCatalog(cmd.Context(), validateFlags.catalogFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Catalog valid (%d metrics, %s)\n", cat.Len(), source)
	return nil
}
