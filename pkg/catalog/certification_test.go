package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCertify(t *testing.T) {
	cat := NewDefaultCatalog()

	tests := []struct {
		name   string
		metric string
		want   Certification
	}{
		{
			name:   "fast metric without warnings",
			metric: "revenue",
			want: Certification{
				MetricID:           "revenue",
				Known:              true,
				CertifiedFor:       []DecisionType{DecisionPricing, DecisionGrowth},
				UnsafeFor:          []DecisionType{DecisionMarketing, DecisionOperations, DecisionProduct},
				MinSampleSize:      100,
				RefreshHours:       24,
				CertificationScore: 0.4,
				Warnings:           []string{},
			},
		},
		{
			name:   "demanding and slow metric",
			metric: "Retention",
			want: Certification{
				MetricID:           "retention",
				Known:              true,
				CertifiedFor:       []DecisionType{DecisionGrowth, DecisionProduct},
				UnsafeFor:          []DecisionType{DecisionPricing, DecisionMarketing, DecisionOperations},
				MinSampleSize:      200,
				RefreshHours:       168,
				CertificationScore: 0.4,
				Warnings: []string{
					"Requires 200+ samples for validity",
					"Slow refresh rate (168h) - may lag reality",
				},
			},
		},
		{
			name:   "unknown metric",
			metric: "Vibes",
			want: Certification{
				MetricID:           "vibes",
				CertifiedFor:       []DecisionType{},
				UnsafeFor:          AllDecisionTypes(),
				CertificationScore: 0,
				Warnings:           []string{"Unknown metric - cannot certify"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Certify(cat, tt.metric)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Certify(%q) mismatch (-want +got):\n%s", tt.metric, diff)
			}
		})
	}
}

func TestCertify_RepeatedDecisions(t *testing.T) {
	cat := NewMemoryCatalog([]*MetricDefinition{{
		ID:               "x",
		AllowedDecisions: []DecisionType{DecisionGrowth, DecisionGrowth, DecisionPricing, DecisionGrowth, DecisionGrowth, DecisionGrowth},
	}})

	got := Certify(cat, "x")
	if diff := cmp.Diff([]DecisionType{DecisionGrowth, DecisionPricing}, got.CertifiedFor); diff != "" {
		t.Errorf("CertifiedFor mismatch (-want +got):\n%s", diff)
	}
	if got.CertificationScore != 0.4 {
		t.Errorf("CertificationScore = %v, want 0.4", got.CertificationScore)
	}
}
