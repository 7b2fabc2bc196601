package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/metricguard/pkg/audit"
)

// CSVExporter exports audit records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes the records to w, one row per record.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(HeaderRow()); err != nil {
			return audit.NewExportError(FormatCSV, len(records), err)
		}
	}

	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return audit.NewExportError(FormatCSV, len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError(FormatCSV, len(records), err)
	}
	return nil
}

// ExportStream writes records from a channel, flushing every 100 rows.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(HeaderRow()); err != nil {
			return audit.NewExportError(FormatCSV, 0, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError(FormatCSV, recordCount, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return audit.NewExportError(FormatCSV, recordCount, err)
			}

			recordCount++
			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError(FormatCSV, recordCount, err)
				}
			}
		}
	}
}

// HeaderRow returns the CSV column names.
func HeaderRow() []string {
	return []string{
		"decision_id", "timestamp",
		"metric_id", "decision_type",
		"time_range_start", "time_range_end", "segment", "sample_size", "data_last_updated",
		"original_status", "original_confidence", "final_status", "final_confidence",
		"triggered_rules", "rule_results", "total_rules_evaluated", "risk_level",
		"explanation", "suggested_action",
		"override_used", "override_reason", "override_timestamp", "source_decision_id",
		"outcome", "outcome_notes", "outcome_updated_at",
		"integrity_hash",
	}
}

func recordToRow(r *audit.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	formatTimePtr := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return formatTime(*t)
	}
	formatFloat := func(f float64) string {
		return strconv.FormatFloat(f, 'f', 4, 64)
	}

	ruleResults, _ := json.Marshal(r.Evaluation.RuleResults)

	reason := ""
	if r.Override.Reason != nil {
		reason = *r.Override.Reason
	}

	return []string{
		r.DecisionID,
		formatTime(r.Timestamp),
		r.MetricID,
		string(r.DecisionType),
		formatTime(r.Input.TimeRange.Start),
		formatTime(r.Input.TimeRange.End),
		r.Input.Segment,
		strconv.Itoa(r.Input.SampleSize),
		formatTime(r.Input.DataLastUpdated),
		string(r.State.OriginalStatus),
		formatFloat(r.State.OriginalConfidence),
		string(r.State.FinalStatus),
		formatFloat(r.State.FinalConfidence),
		strings.Join(r.Evaluation.TriggeredRules, ";"),
		string(ruleResults),
		strconv.Itoa(r.Evaluation.TotalRulesEvaluated),
		string(r.Evaluation.RiskLevel),
		r.Evaluation.Explanation,
		r.Evaluation.SuggestedAction,
		strconv.FormatBool(r.Override.Used),
		reason,
		formatTimePtr(r.Override.Timestamp),
		r.Override.SourceDecisionID,
		string(r.Outcome.Outcome),
		r.Outcome.Notes,
		formatTimePtr(r.Outcome.UpdatedAt),
		r.IntegrityHash,
	}
}
