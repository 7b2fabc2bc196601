package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) failed: %v", err)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Server != first.Server || cfg.Guard != first.Guard {
		t.Error("ApplyDefaults() changed values on second call")
	}
	if cfg.Audit.Capacity != DefaultAuditCapacity {
		t.Errorf("Capacity = %d, want %d", cfg.Audit.Capacity, DefaultAuditCapacity)
	}
	if cfg.Audit.Retention.Days != 0 {
		t.Errorf("Retention.Days = %d, want 0 (only Default sets it)", cfg.Audit.Retention.Days)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeout = -1 }, "server.request_timeout"},
		{"huge headers", func(c *Config) { c.Server.MaxHeaderBytes = 20 * 1024 * 1024 }, "server.max_header_bytes"},
		{"negative rate limit", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerSecond = -1
		}, "server.rate_limit.requests_per_second"},
		{"tls without cert", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.KeyFile = "server.key"
		}, "server.tls.cert_file"},
		{"tls 1.1", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.CertFile = "server.crt"
			c.Server.TLS.KeyFile = "server.key"
			c.Server.TLS.MinVersion = "1.1"
		}, "server.tls.min_version"},
		{"watch without file", func(c *Config) { c.Catalog.Watch = true }, "catalog.file_path"},
		{"git without repository", func(c *Config) { c.Catalog.Git.Enabled = true }, "catalog.git.repository"},
		{"git and file", func(c *Config) {
			c.Catalog.Git.Enabled = true
			c.Catalog.Git.Repository = "https://github.com/acme/metrics.git"
			c.Catalog.FilePath = "catalog.yaml"
		}, "catalog.file_path"},
		{"git token auth without token", func(c *Config) {
			c.Catalog.Git.Enabled = true
			c.Catalog.Git.Repository = "https://github.com/acme/metrics.git"
			c.Catalog.Git.Auth.Type = "token"
		}, "catalog.git.auth.token"},
		{"git unknown auth", func(c *Config) {
			c.Catalog.Git.Enabled = true
			c.Catalog.Git.Repository = "https://github.com/acme/metrics.git"
			c.Catalog.Git.Auth.Type = "kerberos"
		}, "catalog.git.auth.type"},
		{"ratio above one", func(c *Config) { c.Guard.ConcentrationLimit = 1.2 }, "guard.concentration_limit"},
		{"zero capacity", func(c *Config) { c.Audit.Capacity = 0 }, "audit.capacity"},
		{"unknown driver", func(c *Config) {
			c.Audit.Archive.Enabled = true
			c.Audit.Archive.Driver = "postgres"
		}, "audit.archive.driver"},
		{"negative retention", func(c *Config) { c.Audit.Retention.Days = -1 }, "audit.retention.days"},
		{"export format", func(c *Config) { c.Audit.Export.Format = "xml" }, "audit.export.format"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"unknown sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"unsorted buckets", func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5} }, "telemetry.metrics.duration_buckets"},
		{"relative health path", func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" }, "telemetry.health.readiness_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not include field %q", verr.Errors, tt.wantField)
			}
		})
	}
}

// TestValidate_CollectsAll tests that every failing field is reported.
func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Audit.Capacity = -5
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v, want ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "with 2 errors") {
		t.Errorf("Error() = %q, want error count", err.Error())
	}
}
