package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/cli"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/guard"
)

// Values accepted by --fail-on.
const (
	failOnNone  = "none"
	failOnWarn  = "warn"
	failOnBlock = "block"
)

var evaluateFlags struct {
	file            string
	metric          string
	decisionType    string
	start           string
	end             string
	compareStart    string
	compareEnd      string
	segment         string
	sampleSize      int
	dataLastUpdated string

	historicalAvg        float64
	comparisonSampleSize int
	topContribution      float64
	metricTrend          float64
	outcomeTrend         float64

	format string
	failOn string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a decision request",
	Long: `Evaluate one decision request, or a batch, without starting the server.

The request is built from flags, or read as JSON from --file ("-" reads
stdin). A JSON array in the file is evaluated as a batch. Times accept
RFC 3339 or YYYY-MM-DD.

When the audit archive is enabled, the resulting records are archived and
can be listed later with "metricguard audit query".

Exit codes:
  0  evaluated (and no decision matched --fail-on)
  1  error
  2  configuration error
  3  a decision matched --fail-on

Examples:
  # Evaluate from flags
  metricguard evaluate --metric revenue --decision-type pricing \
    --start 2025-05-01 --end 2025-05-31 --sample-size 5000

  # Evaluate a batch and fail on any WARN or BLOCK
  metricguard evaluate --file decisions.json --fail-on warn

  # JSON output for scripting
  metricguard evaluate --file request.json --format json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.file, "file", "f", "", "JSON request file, or - for stdin")
	f.StringVarP(&evaluateFlags.metric, "metric", "m", "", "metric ID")
	f.StringVarP(&evaluateFlags.decisionType, "decision-type", "d", "", "decision type (growth, pricing, marketing, operations, product)")
	f.StringVar(&evaluateFlags.start, "start", "", "analysis window start")
	f.StringVar(&evaluateFlags.end, "end", "", "analysis window end")
	f.StringVar(&evaluateFlags.compareStart, "compare-start", "", "comparison window start")
	f.StringVar(&evaluateFlags.compareEnd, "compare-end", "", "comparison window end")
	f.StringVar(&evaluateFlags.segment, "segment", "", "segment label")
	f.IntVar(&evaluateFlags.sampleSize, "sample-size", 0, "records behind the metric value")
	f.StringVar(&evaluateFlags.dataLastUpdated, "data-last-updated", "", "when the data was last refreshed (default: now)")

	f.Float64Var(&evaluateFlags.historicalAvg, "historical-avg", 0, "typical record count for a comparable period")
	f.IntVar(&evaluateFlags.comparisonSampleSize, "comparison-sample-size", 0, "record count of the comparison period")
	f.Float64Var(&evaluateFlags.topContribution, "top-contribution", 0, "share of the value from the top five contributors (0-1)")
	f.Float64Var(&evaluateFlags.metricTrend, "metric-trend", 0, "metric direction (positive means improving)")
	f.Float64Var(&evaluateFlags.outcomeTrend, "outcome-trend", 0, "business outcome direction")

	f.StringVarP(&evaluateFlags.format, "format", "o", "text", "output format (text, json, csv)")
	f.StringVar(&evaluateFlags.failOn, "fail-on", failOnNone, "exit with code 3 on: none, warn, block")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evaluateFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	failOn := strings.ToLower(evaluateFlags.failOn)
	if failOn != failOnNone && failOn != failOnWarn && failOn != failOnBlock {
		return cli.NewConfigError("fail-on", fmt.Sprintf("invalid value %q (want none, warn or block)", evaluateFlags.failOn))
	}

	reqs, batch, err := evaluateRequests(cmd)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupCommandLogging(cmd); err != nil {
		return err
	}

	a, err := newApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !batch {
		outcome, err := a.lifecycle.Evaluate(ctx, reqs[0])
		if err != nil {
			return cli.NewCommandError("evaluate", err)
		}
		if err := printOutcome(out, format, outcome); err != nil {
			return err
		}
		return checkFailOn(failOn, outcome.Result.Status)
	}

	items, err := a.lifecycle.EvaluateBatch(ctx, reqs, cfg.Server.BatchConcurrency)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	table := batchTable(items)
	switch format {
	case cli.FormatJSON:
		err = cli.NewFormatter(format).FormatTo(out, table.views())
	default:
		err = cli.NewFormatter(format).FormatTo(out, table)
	}
	if err != nil {
		return err
	}

	var failed int
	for _, item := range items {
		if item.Err != nil {
			failed++
			continue
		}
		if err := checkFailOn(failOn, item.Outcome.Result.Status); err != nil {
			return err
		}
	}
	if failed > 0 {
		return cli.NewCommandError("evaluate", fmt.Errorf("%d of %d requests failed", failed, len(items)))
	}
	return nil
}

// evaluateRequests builds the requests from --file or the request flags.
// batch is true when the file holds a JSON array.
func evaluateRequests(cmd *cobra.Command) (reqs []*guard.DecisionRequest, batch bool, err error) {
	if evaluateFlags.file == "" {
		req, err := requestFromFlags(cmd)
		if err != nil {
			return nil, false, err
		}
		return []*guard.DecisionRequest{req}, false, nil
	}

	var data []byte
	if evaluateFlags.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(evaluateFlags.file)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read request: %w", err)
	}
	return parseRequests(data)
}

// parseRequests decodes one request object or an array of them.
func parseRequests(data []byte) ([]*guard.DecisionRequest, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false, errors.New("request file is empty")
	}

	if data[0] == '[' {
		var reqs []*guard.DecisionRequest
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, false, fmt.Errorf("invalid request array: %w", err)
		}
		if len(reqs) == 0 {
			return nil, false, errors.New("request array is empty")
		}
		for i, r := range reqs {
			if r == nil {
				return nil, false, fmt.Errorf("request %d is null", i)
			}
		}
		return reqs, true, nil
	}

	var req guard.DecisionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, false, fmt.Errorf("invalid request: %w", err)
	}
	return []*guard.DecisionRequest{&req}, false, nil
}

func requestFromFlags(cmd *cobra.Command) (*guard.DecisionRequest, error) {
	fl := evaluateFlags
	req := &guard.DecisionRequest{
		MetricID:     fl.metric,
		DecisionType: catalog.DecisionType(strings.ToLower(strings.TrimSpace(fl.decisionType))),
		Segment:      fl.segment,
		SampleSize:   fl.sampleSize,
	}

	var err error
	if req.TimeRange.Start, err = parseTimeFlag("start", fl.start); err != nil {
		return nil, err
	}
	if req.TimeRange.End, err = parseTimeFlag("end", fl.end); err != nil {
		return nil, err
	}

	if fl.compareStart != "" || fl.compareEnd != "" {
		cmp := &guard.TimeRange{}
		if cmp.Start, err = parseTimeFlag("compare-start", fl.compareStart); err != nil {
			return nil, err
		}
		if cmp.End, err = parseTimeFlag("compare-end", fl.compareEnd); err != nil {
			return nil, err
		}
		req.ComparisonRange = cmp
	}

	if fl.dataLastUpdated == "" {
		req.DataLastUpdated = time.Now().UTC()
	} else if req.DataLastUpdated, err = parseTimeFlag("data-last-updated", fl.dataLastUpdated); err != nil {
		return nil, err
	}

	req.Signals = signalsFromFlags(cmd)
	return req, nil
}

// signalsFromFlags returns the signals explicitly set on the command line,
// or nil when none were.
func signalsFromFlags(cmd *cobra.Command) *guard.Signals {
	f := cmd.Flags()
	var s guard.Signals
	set := false
	if f.Changed("historical-avg") {
		s.HistoricalAvg = guard.Float(evaluateFlags.historicalAvg)
		set = true
	}
	if f.Changed("comparison-sample-size") {
		s.ComparisonSampleSize = guard.Int(evaluateFlags.comparisonSampleSize)
		set = true
	}
	if f.Changed("top-contribution") {
		s.TopContribution = guard.Float(evaluateFlags.topContribution)
		set = true
	}
	if f.Changed("metric-trend") {
		s.MetricTrend = guard.Float(evaluateFlags.metricTrend)
		set = true
	}
	if f.Changed("outcome-trend") {
		s.OutcomeTrend = guard.Float(evaluateFlags.outcomeTrend)
		set = true
	}
	if !set {
		return nil
	}
	return &s
}

// parseTimeFlag accepts RFC 3339 or a bare date, interpreted as UTC midnight.
// An empty value yields the zero time, left for request validation to reject.
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, value)
	}
	return t, nil
}

func printOutcome(w io.Writer, format cli.OutputFormat, outcome *decision.Outcome) error {
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(w, outcome)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(w, ruleTable(outcome.Result.Rules))
	}

	res, rec := outcome.Result, outcome.Record
	fmt.Fprintf(w, "Decision:    %s\n", rec.DecisionID)
	fmt.Fprintf(w, "Metric:      %s (%s)\n", rec.MetricID, rec.DecisionType)
	fmt.Fprintf(w, "Status:      %s\n", res.Status)
	fmt.Fprintf(w, "Confidence:  %s (band %s-%s)\n",
		formatFloat(res.Confidence),
		formatFloat(res.Risk.ConfidenceBand.Min),
		formatFloat(res.Risk.ConfidenceBand.Max),
	)
	fmt.Fprintf(w, "Risk:        %s\n", res.Risk.Level)
	fmt.Fprintf(w, "Explanation: %s\n", res.Explanation)
	fmt.Fprintf(w, "Action:      %s\n", res.SuggestedAction)
	for _, c := range res.Risk.PotentialConsequences {
		fmt.Fprintf(w, "  - %s\n", c)
	}
	fmt.Fprintln(w)
	return cli.NewFormatter(cli.FormatText).FormatTo(w, ruleTable(res.Rules))
}

func checkFailOn(failOn string, status guard.DecisionStatus) error {
	matched := false
	switch failOn {
	case failOnBlock:
		matched = status == guard.StatusBlock
	case failOnWarn:
		matched = status == guard.StatusBlock || status == guard.StatusWarn
	}
	if !matched {
		return nil
	}
	return &cli.ExitError{
		Code: cli.ExitBlocked,
		Err:  fmt.Errorf("decision status %s matched --fail-on %s", status, failOn),
	}
}
