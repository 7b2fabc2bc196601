package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Values of telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// auditSpans are recorded under the ratio strategy even when their trace
// was not sampled: every override and outcome label is kept.
var auditSpans = map[string]bool{
	"decision.override":       true,
	"decision.update_outcome": true,
}

// SamplingConfig selects a sampling strategy.
type SamplingConfig struct {
	// Strategy is one of SamplerAlways, SamplerNever, SamplerRatio.
	Strategy string

	// Ratio is the fraction of traces sampled by SamplerRatio, in [0, 1].
	Ratio float64
}

// Validate reports an unknown strategy or an out-of-range ratio.
func (c SamplingConfig) Validate() error {
	switch c.Strategy {
	case SamplerAlways, SamplerNever:
		return nil
	case SamplerRatio:
		if c.Ratio < 0 || c.Ratio > 1 {
			return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %g", c.Ratio)
		}
		return nil
	default:
		return fmt.Errorf("invalid sampling strategy %q (valid: always, never, ratio)", c.Strategy)
	}
}

// newSampler builds the sampler for c. Remote parents always decide for
// their children. Under the ratio strategy, audit spans started below an
// unsampled local span are still recorded.
func newSampler(c SamplingConfig) (sdktrace.Sampler, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Strategy {
	case SamplerAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerNever:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	}

	s := auditSampler{ratio: sdktrace.TraceIDRatioBased(c.Ratio)}
	return sdktrace.ParentBased(s, sdktrace.WithLocalParentNotSampled(s)), nil
}

// auditSampler samples audit spans and defers everything else to a
// trace-ID ratio sampler.
type auditSampler struct {
	ratio sdktrace.Sampler
}

func (s auditSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if auditSpans[p.Name] {
		return sdktrace.AlwaysSample().ShouldSample(p)
	}
	return s.ratio.ShouldSample(p)
}

func (s auditSampler) Description() string {
	return fmt.Sprintf("AuditSampler{%s}", s.ratio.Description())
}
