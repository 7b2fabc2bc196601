package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a YAML catalog.
type catalogFile struct {
	Metrics []*MetricDefinition `yaml:"metrics"`
}

// LoadFile reads and validates a YAML catalog file.
func LoadFile(path string) ([]*MetricDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes and validates YAML catalog content.
func Parse(data []byte) ([]*MetricDefinition, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(f.Metrics) == 0 {
		return nil, fmt.Errorf("catalog defines no metrics")
	}

	if err := validateDefinitions(f.Metrics); err != nil {
		return nil, err
	}
	return f.Metrics, nil
}

// validateDefinitions checks every definition and reports all problems at once.
func validateDefinitions(defs []*MetricDefinition) error {
	var problems []string
	seen := make(map[string]int, len(defs))

	for i, def := range defs {
		if def == nil {
			problems = append(problems, fmt.Sprintf("metrics[%d]: empty entry", i))
			continue
		}

		id := NormalizeID(def.ID)
		if id == "" {
			problems = append(problems, fmt.Sprintf("metrics[%d]: id is required", i))
		} else if prev, dup := seen[id]; dup {
			problems = append(problems, fmt.Sprintf("metrics[%d]: duplicate id %q (first defined at metrics[%d])", i, id, prev))
		} else {
			seen[id] = i
		}

		if def.Name == "" {
			def.Name = def.ID
		}
		allowed := make(map[DecisionType]bool, len(def.AllowedDecisions))
		for _, d := range def.AllowedDecisions {
			switch {
			case !d.IsValid():
				problems = append(problems, fmt.Sprintf("metrics[%d]: unknown decision type %q", i, d))
			case allowed[d]:
				problems = append(problems, fmt.Sprintf("metrics[%d]: duplicate decision type %q", i, d))
			}
			allowed[d] = true
		}
		if def.MinSampleSize < 0 {
			problems = append(problems, fmt.Sprintf("metrics[%d]: min_sample_size must be non-negative", i))
		}
		if def.RefreshHours < 0 {
			problems = append(problems, fmt.Sprintf("metrics[%d]: refresh_hours must be non-negative", i))
		}
		if def.Category != "" && !def.Category.IsValid() {
			problems = append(problems, fmt.Sprintf("metrics[%d]: unknown category %q", i, def.Category))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
