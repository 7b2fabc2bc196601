package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCatalogYAML = `
metrics:
  - id: Signups
    name: Weekly Signups
    allowed_decisions: [growth, marketing]
    min_sample_size: 150
    refresh_hours: 12
    counter_metrics: [churn]
    category: engagement
  - id: margin
    allowed_decisions: [pricing]
    min_sample_size: 100
    refresh_hours: 24
    category: revenue
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(validCatalogYAML), 0644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("LoadFile() returned %d metrics, want 2", len(defs))
	}

	cat := NewMemoryCatalog(defs)
	def, ok := cat.Get("signups")
	if !ok {
		t.Fatal("signups missing after load")
	}
	if def.Name != "Weekly Signups" || def.MinSampleSize != 150 || def.RefreshHours != 12 {
		t.Errorf("signups = %+v", def)
	}

	margin, _ := cat.Get("margin")
	if margin.Name != "margin" {
		t.Errorf("missing name should default to id, got %q", margin.Name)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadFile() error = nil, want error")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "metrics: [", "failed to parse YAML"},
		{"empty", "metrics: []", "no metrics"},
		{"missing id", "metrics:\n  - name: x\n", "id is required"},
		{"duplicate", "metrics:\n  - id: a\n  - id: A\n", "duplicate id"},
		{"bad decision", "metrics:\n  - id: a\n    allowed_decisions: [hiring]\n", "unknown decision type"},
		{"repeated decision", "metrics:\n  - id: a\n    allowed_decisions: [growth, pricing, growth]\n", `duplicate decision type "growth"`},
		{"negative sample", "metrics:\n  - id: a\n    min_sample_size: -1\n", "min_sample_size"},
		{"bad category", "metrics:\n  - id: a\n    category: vibes\n", "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
