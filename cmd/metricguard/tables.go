package main

import (
	"strconv"
	"strings"
	"time"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/catalog/gitsync"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/guard"
)

// ruleTable renders the per-rule outcomes of one evaluation.
type ruleTable []guard.RuleOutcome

func (t ruleTable) Header() []string {
	return []string{"RULE", "NAME", "CATEGORY", "STATUS", "WEIGHT", "REASON"}
}

func (t ruleTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.RuleID,
			r.RuleName,
			string(r.Category),
			string(r.Status),
			formatFloat(r.Weight),
			r.Reason,
		})
	}
	return rows
}

// batchView is the JSON shape of one batch item.
type batchView struct {
	Index   int               `json:"index"`
	Outcome *decision.Outcome `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// batchTable renders one line per batch item.
type batchTable []decision.BatchItem

func (t batchTable) Header() []string {
	return []string{"INDEX", "DECISION_ID", "METRIC", "DECISION_TYPE", "STATUS", "CONFIDENCE", "ERROR"}
}

func (t batchTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, item := range t {
		row := []string{strconv.Itoa(item.Index), "", "", "", "", "", ""}
		if item.Outcome != nil {
			rec := item.Outcome.Record
			row[1] = rec.DecisionID
			row[2] = rec.MetricID
			row[3] = string(rec.DecisionType)
			row[4] = string(item.Outcome.Result.Status)
			row[5] = formatFloat(item.Outcome.Result.Confidence)
		}
		if item.Err != nil {
			row[6] = firstLine(item.Err.Error())
		}
		rows = append(rows, row)
	}
	return rows
}

func (t batchTable) views() []batchView {
	views := make([]batchView, len(t))
	for i, item := range t {
		views[i] = batchView{Index: item.Index, Outcome: item.Outcome}
		if item.Err != nil {
			views[i].Error = item.Err.Error()
		}
	}
	return views
}

// catalogTable renders metric definitions.
type catalogTable []*catalog.MetricDefinition

func (t catalogTable) Header() []string {
	return []string{"ID", "NAME", "CATEGORY", "MIN_SAMPLE", "REFRESH_HOURS", "CERTIFIED_FOR", "COUNTER_METRICS"}
}

func (t catalogTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{
			m.ID,
			m.Name,
			string(m.Category),
			strconv.Itoa(m.MinSampleSize),
			strconv.Itoa(m.RefreshHours),
			joinDecisionTypes(m.AllowedDecisions),
			strings.Join(m.CounterMetrics, ","),
		})
	}
	return rows
}

// recordTable renders audit records, one line each.
type recordTable []*audit.Record

func (t recordTable) Header() []string {
	return []string{"DECISION_ID", "TIMESTAMP", "METRIC", "DECISION_TYPE", "ORIGINAL", "FINAL", "CONFIDENCE", "OUTCOME"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.DecisionID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.MetricID,
			string(r.DecisionType),
			string(r.State.OriginalStatus),
			string(r.State.FinalStatus),
			formatFloat(r.State.FinalConfidence),
			string(r.Outcome.Outcome),
		})
	}
	return rows
}

// commitTable renders catalog repository history.
type commitTable []*gitsync.CommitInfo

func (t commitTable) Header() []string {
	return []string{"COMMIT", "DATE", "AUTHOR", "MESSAGE"}
}

func (t commitTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, c := range t {
		rows = append(rows, []string{
			c.ShortSHA(),
			c.Timestamp.UTC().Format(time.RFC3339),
			c.Author,
			firstLine(strings.TrimSpace(c.Message)),
		})
	}
	return rows
}

func joinDecisionTypes(types []catalog.DecisionType) string {
	s := make([]string, len(types))
	for i, d := range types {
		s[i] = string(d)
	}
	return strings.Join(s, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
