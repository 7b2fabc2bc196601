package decision

import (
	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/guard"
)

// Stats summarizes the records currently held in the audit log.
type Stats struct {
	Total          int                          `json:"total"`
	Capacity       int                          `json:"capacity"`
	ByFinalStatus  map[guard.DecisionStatus]int `json:"by_final_status"`
	ByOutcome      map[audit.OutcomeStatus]int  `json:"by_outcome"`
	Overrides      int                          `json:"overrides"`
	MeanConfidence float64                      `json:"mean_confidence"`
}

// Stats computes summary counts over the audit log. MeanConfidence averages
// final confidence and is 0 for an empty log.
func (l *Lifecycle) Stats() Stats {
	records := l.log.Snapshot()

	s := Stats{
		Total:         len(records),
		Capacity:      l.log.Capacity(),
		ByFinalStatus: make(map[guard.DecisionStatus]int),
		ByOutcome:     make(map[audit.OutcomeStatus]int),
	}

	var sum float64
	for _, r := range records {
		s.ByFinalStatus[r.State.FinalStatus]++
		s.ByOutcome[r.Outcome.Outcome]++
		if r.Override.Used {
			s.Overrides++
		}
		sum += r.State.FinalConfidence
	}
	if len(records) > 0 {
		s.MeanConfidence = sum / float64(len(records))
	}
	return s
}
