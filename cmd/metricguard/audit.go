package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/export"
	"mercator-hq/metricguard/pkg/audit/query"
	"mercator-hq/metricguard/pkg/audit/retention"
	"mercator-hq/metricguard/pkg/cli"
)

// auditFilters are the record filters shared by query and export.
type auditFilters struct {
	metric         string
	decisionType   string
	finalStatus    string
	originalStatus string
	outcome        string
	overriddenOnly bool
	start          string
	end            string
	limit          int
	offset         int
	sort           string
}

func (f *auditFilters) register(cmd *cobra.Command, defaultLimit int) {
	fs := cmd.Flags()
	fs.StringVarP(&f.metric, "metric", "m", "", "filter by metric ID")
	fs.StringVarP(&f.decisionType, "decision-type", "d", "", "filter by decision type")
	fs.StringVar(&f.finalStatus, "status", "", "filter by final status (ALLOW, WARN, BLOCK, OVERRIDDEN)")
	fs.StringVar(&f.originalStatus, "original-status", "", "filter by original status (ALLOW, WARN, BLOCK)")
	fs.StringVar(&f.outcome, "outcome", "", "filter by outcome (Positive, Neutral, Negative, Unknown)")
	fs.BoolVar(&f.overriddenOnly, "overridden-only", false, "only override records")
	fs.StringVar(&f.start, "start", "", "records at or after this RFC 3339 time")
	fs.StringVar(&f.end, "end", "", "records at or before this RFC 3339 time")
	fs.IntVar(&f.limit, "limit", defaultLimit, "maximum records (0 means all)")
	fs.IntVar(&f.offset, "offset", 0, "skip the first N records")
	fs.StringVar(&f.sort, "sort", "desc", "sort order by timestamp (asc, desc)")
}

// query builds and validates the archive query.
func (f *auditFilters) query() (*audit.Query, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("metric_id", f.metric)
	set("decision_type", f.decisionType)
	set("final_status", f.finalStatus)
	set("original_status", f.originalStatus)
	set("outcome", f.outcome)
	set("start_time", f.start)
	set("end_time", f.end)
	set("sort_order", f.sort)
	if f.overriddenOnly {
		v.Set("overridden_only", "true")
	}
	if f.limit != 0 {
		v.Set("limit", strconv.Itoa(f.limit))
	}
	if f.offset != 0 {
		v.Set("offset", strconv.Itoa(f.offset))
	}
	return query.FromValues(v)
}

var auditFlags struct {
	query  auditFilters
	export auditFilters

	queryFormat  string
	exportFormat string
	output       string
	pretty       bool
	noProgress   bool

	retentionDays int
	maxRecords    int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query and maintain the audit archive",
	Long: `Query, export, and prune the durable audit archive.

These commands read the SQLite archive configured under audit.archive and
fail with a configuration error when it is disabled.

Subcommands:
  query   - List archived decision records
  export  - Stream archived records as JSON or CSV
  prune   - Apply the retention policy now`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List archived decision records",
	Long: `List archived decision records matching the filters, newest first.

Examples:
  # The 50 most recent decisions
  metricguard audit query

  # Blocked pricing decisions in May
  metricguard audit query --decision-type pricing --status BLOCK \
    --start 2025-05-01T00:00:00Z --end 2025-05-31T23:59:59Z

  # Every override, as JSON
  metricguard audit query --overridden-only --limit 0 --format json`,
	Args: cobra.NoArgs,
	RunE: runAuditQuery,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived decision records",
	Long: `Stream archived records matching the filters to a file or stdout.

The format defaults to audit.export.format from the configuration.

Examples:
  metricguard audit export --output audit.json
  metricguard audit export --format csv --metric revenue --output revenue.csv`,
	Args: cobra.NoArgs,
	RunE: runAuditExport,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy now",
	Long: `Delete archived records older than the retention period, then the
oldest records beyond the record limit. Flags override the configured
audit.retention values for this run.

Examples:
  metricguard audit prune
  metricguard audit prune --retention-days 90 --max-records 100000`,
	Args: cobra.NoArgs,
	RunE: runAuditPrune,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)
	auditCmd.AddCommand(auditExportCmd)
	auditCmd.AddCommand(auditPruneCmd)

	auditFlags.query.register(auditQueryCmd, 50)
	auditQueryCmd.Flags().StringVarP(&auditFlags.queryFormat, "format", "o", "text", "output format (text, json, csv)")

	auditFlags.export.register(auditExportCmd, 0)
	auditExportCmd.Flags().StringVar(&auditFlags.exportFormat, "format", "", "export format (json, csv)")
	auditExportCmd.Flags().StringVar(&auditFlags.output, "output", "", "output file (default stdout)")
	auditExportCmd.Flags().BoolVar(&auditFlags.pretty, "pretty", false, "indent JSON output")
	auditExportCmd.Flags().BoolVar(&auditFlags.noProgress, "no-progress", false, "do not report progress on stderr")

	auditPruneCmd.Flags().IntVar(&auditFlags.retentionDays, "retention-days", -1, "override audit.retention.days (0 keeps records forever)")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", -1, "override audit.retention.max_records (0 means unlimited)")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.queryFormat)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	q, err := auditFlags.query.query()
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}

	arch, err := openCommandArchive(cmd)
	if err != nil {
		return err
	}
	defer arch.Close()

	ctx := cmd.Context()
	records, err := arch.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}

	if records == nil {
		records = []*audit.Record{}
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(out, records)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(out, recordTable(records))
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}
	if err := cli.NewFormatter(format).FormatTo(out, recordTable(records)); err != nil {
		return err
	}
	total, err := arch.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	fmt.Fprintf(out, "\n%d of %d matching records\n", len(records), total)
	return nil
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	q, err := auditFlags.export.query()
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format := auditFlags.exportFormat
	if format == "" {
		format = cfg.Audit.Export.Format
	}
	pretty := auditFlags.pretty || (auditFlags.exportFormat == "" && cfg.Audit.Export.JSONPretty)
	exporter, err := export.New(format, pretty)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	if err := setupCommandLogging(cmd); err != nil {
		return err
	}
	arch, err := requireArchive(cfg)
	if err != nil {
		return err
	}
	defer arch.Close()

	var w io.Writer = cmd.OutOrStdout()
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		defer f.Close()
		w = f
	}

	ctx := cmd.Context()
	var progress cli.ProgressReporter
	if !auditFlags.noProgress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "records")
		total, err := arch.Count(ctx, q)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		if q.Limit > 0 && int64(q.Limit) < total {
			total = int64(q.Limit)
		}
		progress.Start(total)
	}

	n, err := exportStream(ctx, arch, q, exporter, w, progress)
	if err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return cli.NewCommandError("audit export", err)
	}
	if progress != nil {
		progress.Finish()
	}

	if auditFlags.output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d records to %s\n", n, auditFlags.output)
	}
	return nil
}

// exportStream streams matching records through the exporter, reporting each
// record to progress when it is non-nil. It returns the number of records
// handed to the exporter.
func exportStream(ctx context.Context, arch audit.Archive, q *audit.Query, exporter export.StreamExporter, w io.Writer, progress cli.ProgressReporter) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recordsCh, errCh, err := arch.QueryStream(ctx, q)
	if err != nil {
		return 0, err
	}

	counted := make(chan *audit.Record)
	var n int64
	go func() {
		defer close(counted)
		for r := range recordsCh {
			select {
			case counted <- r:
				n++
				if progress != nil {
					progress.Increment()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := exporter.ExportStream(ctx, counted, w); err != nil {
		cancel()
		for range counted {
		}
		return n, err
	}
	if err := <-errCh; err != nil {
		return n, err
	}
	return n, nil
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupCommandLogging(cmd); err != nil {
		return err
	}

	rc := retentionConfig(cfg.Audit.Retention)
	if auditFlags.retentionDays >= 0 {
		rc.RetentionDays = auditFlags.retentionDays
	}
	if auditFlags.maxRecords >= 0 {
		rc.MaxRecords = auditFlags.maxRecords
	}

	arch, err := requireArchive(cfg)
	if err != nil {
		return err
	}
	defer arch.Close()

	deleted, err := retention.NewPruner(arch, rc).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d records\n", deleted)
	return nil
}

func openCommandArchive(cmd *cobra.Command) (audit.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupCommandLogging(cmd); err != nil {
		return nil, err
	}
	arch, err := requireArchive(cfg)
	if err != nil {
		return nil, err
	}
	return arch, nil
}
