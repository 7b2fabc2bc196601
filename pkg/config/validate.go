package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateGuard(&cfg.Guard)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Catalog.Watch && cfg.Catalog.FilePath == "" {
		errs = append(errs, FieldError{
			Field:   "catalog.file_path",
			Message: "file path is required when watch is enabled",
		})
	}
	if cfg.Catalog.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.debounce",
			Message: "debounce must be non-negative",
		})
	}
	errs = append(errs, validateCatalogGit(&cfg.Catalog)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateCatalogGit validates the Git catalog source. Nothing is checked
// while it is disabled.
func validateCatalogGit(cfg *CatalogConfig) []FieldError {
	g := &cfg.Git
	if !g.Enabled {
		return nil
	}

	var errs []FieldError
	if g.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "catalog.git.repository",
			Message: "repository is required when git is enabled",
		})
	}
	if cfg.FilePath != "" {
		errs = append(errs, FieldError{
			Field:   "catalog.file_path",
			Message: "file path and git cannot both be set",
		})
	}
	if g.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.git.depth",
			Message: "depth must be non-negative",
		})
	}
	if g.PollInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.git.poll_interval",
			Message: "poll interval must be non-negative",
		})
	}

	switch g.Auth.Type {
	case "none", "":
	case "token":
		if g.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "catalog.git.auth.token",
				Message: "token is required for token auth",
			})
		}
	case "ssh":
		if g.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "catalog.git.auth.ssh_key_path",
				Message: "ssh key path is required for ssh auth",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "catalog.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q (must be token, ssh, or none)", g.Auth.Type),
		})
	}
	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	timeouts := []struct {
		field string
		value int64
	}{
		{"server.read_timeout", int64(cfg.ReadTimeout)},
		{"server.write_timeout", int64(cfg.WriteTimeout)},
		{"server.idle_timeout", int64(cfg.IdleTimeout)},
		{"server.shutdown_timeout", int64(cfg.ShutdownTimeout)},
		{"server.request_timeout", int64(cfg.RequestTimeout)},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{
				Field:   t.field,
				Message: "timeout must be positive",
			})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}
	if cfg.BatchConcurrency < 0 || cfg.BatchConcurrency > 256 {
		errs = append(errs, FieldError{
			Field:   "server.batch_concurrency",
			Message: "batch concurrency must be between 0 and 256",
		})
	}
	if rl := cfg.RateLimit; rl.Enabled {
		if rl.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_second",
				Message: "requests per second must be positive",
			})
		}
		if rl.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "burst must be at least 1",
			})
		}
		if rl.MaxConcurrent < 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.max_concurrent",
				Message: "max concurrent must be non-negative",
			})
		}
	}
	if t := cfg.TLS; t.Enabled {
		if t.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "cert file is required when TLS is enabled",
			})
		}
		if t.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
		if t.MinVersion != "1.2" && t.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "server.tls.min_version",
				Message: fmt.Sprintf("unsupported TLS version %q (want 1.2 or 1.3)", t.MinVersion),
			})
		}
		if t.ReloadInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "server.tls.reload_interval",
				Message: "reload interval must be non-negative",
			})
		}
	}

	return errs
}

// validateGuard validates rule thresholds.
func validateGuard(cfg *GuardConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultRefreshHours < 0 {
		errs = append(errs, FieldError{
			Field:   "guard.default_refresh_hours",
			Message: "default refresh hours must be non-negative",
		})
	}
	if cfg.FreshnessMultiplier < 0 {
		errs = append(errs, FieldError{
			Field:   "guard.freshness_multiplier",
			Message: "freshness multiplier must be non-negative",
		})
	}
	if cfg.MinSampleFloor < 0 {
		errs = append(errs, FieldError{
			Field:   "guard.min_sample_floor",
			Message: "minimum sample floor must be non-negative",
		})
	}

	ratios := []struct {
		field string
		value float64
	}{
		{"guard.partial_data_ratio", cfg.PartialDataRatio},
		{"guard.concentration_limit", cfg.ConcentrationLimit},
		{"guard.segment_drift_limit", cfg.SegmentDriftLimit},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 {
			errs = append(errs, FieldError{
				Field:   r.field,
				Message: "ratio must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Capacity < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.capacity",
			Message: "capacity must be at least 1",
		})
	}

	if cfg.Archive.Enabled {
		validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
		if !validDrivers[cfg.Archive.Driver] {
			errs = append(errs, FieldError{
				Field:   "audit.archive.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.Archive.Driver),
			})
		}
		if cfg.Archive.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.archive.path",
				Message: "archive path is required when the archive is enabled",
			})
		}
		if cfg.Archive.MaxOpenConns < 0 || cfg.Archive.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.archive.max_open_conns",
				Message: "connection limits must be non-negative",
			})
		}
		if cfg.Recorder.AsyncBuffer < 1 {
			errs = append(errs, FieldError{
				Field:   "audit.recorder.async_buffer",
				Message: "async buffer must be at least 1",
			})
		}
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.Days > 3650 { // 10 years is excessive
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.retention.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
		})
	}

	validFormats := map[string]bool{"json": true, "csv": true}
	if !validFormats[cfg.Export.Format] {
		errs = append(errs, FieldError{
			Field:   "audit.export.format",
			Message: fmt.Sprintf("invalid export format %q: must be 'json' or 'csv'", cfg.Export.Format),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.Enabled {
		paths := []struct {
			field string
			value string
		}{
			{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
			{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
			{"telemetry.health.version_path", cfg.Health.VersionPath},
		}
		for _, p := range paths {
			if !strings.HasPrefix(p.value, "/") {
				errs = append(errs, FieldError{
					Field:   p.field,
					Message: "path must start with /",
				})
			}
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
	}

	return errs
}
