package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/catalog/gitsync"
	"mercator-hq/metricguard/pkg/cli"
)

var catalogFlags struct {
	file         string
	decisionType string
	format       string
	history      int
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the metric catalog",
	Long: `Inspect the metric catalog used by the guard rules.

The catalog is read from --catalog, then the Git repository configured
under catalog.git, then catalog.file_path, and falls back to the built-in
definitions.

Subcommands:
  list     - List metric definitions
  certify  - Show which decision types a metric is certified for
  sync     - Pull the Git-backed catalog and show its history`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List metric definitions",
	Long: `List metric definitions, optionally only those certified for a
decision type.

Examples:
  metricguard catalog list
  metricguard catalog list --decision-type pricing --format json`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

var catalogCertifyCmd = &cobra.Command{
	Use:   "certify <metric-id>",
	Short: "Show a metric's certification",
	Long: `Show which decision types a metric is certified for, its minimum
sample size and refresh interval, and any warnings. Unknown metrics are
reported with a zero certification score.

Examples:
  metricguard catalog certify revenue
  metricguard catalog certify "Conversion " --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogCertify,
}

var catalogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the Git-backed catalog",
	Long: `Clone or update the catalog repository configured under catalog.git,
validate the catalog file at the latest commit, and show recent commits.

A commit whose catalog fails validation is reported and the command exits
with a configuration error.

Examples:
  metricguard catalog sync --config metricguard.yaml
  metricguard catalog sync --history 10 --format json`,
	Args: cobra.NoArgs,
	RunE: runCatalogSync,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogCertifyCmd)
	catalogCmd.AddCommand(catalogSyncCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogFlags.file, "catalog", "", "catalog YAML file (overrides catalog.file_path)")
	catalogCmd.PersistentFlags().StringVarP(&catalogFlags.format, "format", "o", "text", "output format (text, json, csv)")
	catalogListCmd.Flags().StringVarP(&catalogFlags.decisionType, "decision-type", "d", "", "only metrics certified for this decision type")
	catalogSyncCmd.Flags().IntVar(&catalogFlags.history, "history", 5, "number of recent commits to show (0 shows all)")
}

func commandCatalog(ctx context.Context) (*catalog.MemoryCatalog, error) {
	cat, _, err := resolveCatalog(ctx, catalogFlags.file)
	return cat, err
}

// resolveCatalog loads the catalog for a command from file when it is set,
// otherwise from the configuration. It also describes where the catalog came
// from.
func resolveCatalog(ctx context.Context, file string) (*catalog.MemoryCatalog, string, error) {
	if file == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, "", err
		}
		if cfg.Catalog.Git.Enabled {
			s, err := openGitCatalog(ctx, cfg.Catalog.Git)
			if err != nil {
				return nil, "", cli.NewConfigError("catalog.git", err.Error())
			}
			source := fmt.Sprintf("%s@%s", cfg.Catalog.Git.Repository, shortCommit(s.ActiveCommit()))
			return s.Catalog(), source, nil
		}
		file = cfg.Catalog.FilePath
	}

	cat, err := loadCatalog(file)
	if err != nil {
		return nil, "", cli.NewConfigError("catalog", err.Error())
	}
	if file == "" {
		return cat, "built-in", nil
	}
	return cat, file, nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(catalogFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	var filter catalog.DecisionType
	if catalogFlags.decisionType != "" {
		if filter, err = catalog.ParseDecisionType(catalogFlags.decisionType); err != nil {
			return cli.NewCommandError("catalog list", err)
		}
	}

	cat, err := commandCatalog(cmd.Context())
	if err != nil {
		return err
	}

	defs := cat.List()
	if filter != "" {
		kept := defs[:0]
		for _, m := range defs {
			if m.Allows(filter) {
				kept = append(kept, m)
			}
		}
		defs = kept
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), defs)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), catalogTable(defs))
}

func runCatalogCertify(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(catalogFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	cat, err := commandCatalog(cmd.Context())
	if err != nil {
		return err
	}

	cert := catalog.Certify(cat, args[0])

	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cert)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), certificationTable{cert})
	}
	printCertification(cmd.OutOrStdout(), cert)
	return nil
}

func printCertification(w io.Writer, cert catalog.Certification) {
	fmt.Fprintf(w, "Metric:        %s\n", cert.MetricID)
	if !cert.Known {
		fmt.Fprintln(w, "Known:         no")
	}
	fmt.Fprintf(w, "Score:         %s\n", formatFloat(cert.CertificationScore))
	fmt.Fprintf(w, "Certified for: %s\n", orNone(joinDecisionTypes(cert.CertifiedFor)))
	fmt.Fprintf(w, "Unsafe for:    %s\n", orNone(joinDecisionTypes(cert.UnsafeFor)))
	if cert.Known {
		fmt.Fprintf(w, "Min sample:    %d\n", cert.MinSampleSize)
		fmt.Fprintf(w, "Refresh:       every %dh\n", cert.RefreshHours)
	}
	for _, warning := range cert.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warning)
	}
}

// certificationTable renders one certification as a single CSV row.
type certificationTable struct {
	cert catalog.Certification
}

func (t certificationTable) Header() []string {
	return []string{"METRIC", "KNOWN", "SCORE", "CERTIFIED_FOR", "UNSAFE_FOR", "MIN_SAMPLE", "REFRESH_HOURS", "WARNINGS"}
}

func (t certificationTable) Rows() [][]string {
	c := t.cert
	return [][]string{{
		c.MetricID,
		fmt.Sprint(c.Known),
		formatFloat(c.CertificationScore),
		joinDecisionTypes(c.CertifiedFor),
		joinDecisionTypes(c.UnsafeFor),
		fmt.Sprint(c.MinSampleSize),
		fmt.Sprint(c.RefreshHours),
		strings.Join(c.Warnings, "; "),
	}}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// syncReport is the JSON form of catalog sync.
type syncReport struct {
	Repository string                `json:"repository"`
	Commit     string                `json:"commit"`
	Metrics    int                   `json:"metrics"`
	History    []*gitsync.CommitInfo `json:"history"`
}

func runCatalogSync(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(catalogFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Git.Enabled {
		return cli.NewConfigError("catalog.git.enabled", "the git catalog source is disabled")
	}
	if err := setupCommandLogging(cmd); err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openGitCatalog(ctx, cfg.Catalog.Git)
	if err != nil {
		return cli.NewConfigError("catalog.git", err.Error())
	}
	if err := s.Check(ctx); err != nil {
		return cli.NewConfigError("catalog.git", err.Error())
	}

	history, err := s.Repository().History(catalogFlags.history)
	if err != nil {
		return cli.NewCommandError("catalog sync", err)
	}

	report := syncReport{
		Repository: cfg.Catalog.Git.Repository,
		Commit:     s.ActiveCommit(),
		Metrics:    s.Catalog().Len(),
		History:    history,
	}
	if report.History == nil {
		report.History = []*gitsync.CommitInfo{}
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(out, report)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(out, commitTable(history))
	}

	fmt.Fprintf(out, "✓ Catalog synced (%d metrics, commit %s)\n\n", report.Metrics, shortCommit(report.Commit))
	return cli.NewFormatter(format).FormatTo(out, commitTable(history))
}

func shortCommit(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
