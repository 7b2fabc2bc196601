package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress    = "127.0.0.1:8090"
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultMaxHeaderBytes   = 1048576 // 1MB
	DefaultRequestTimeout   = 10 * time.Second
	DefaultMaxBodyBytes     = int64(1048576)
	DefaultBatchConcurrency = 8
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultTLSMinVersion    = "1.3"
	DefaultTLSReload        = 5 * time.Minute

	// Catalog defaults
	DefaultCatalogDebounce = 100 * time.Millisecond
	DefaultGitBranch       = "main"
	DefaultGitPath         = "catalog.yaml"
	DefaultGitLocalPath    = "data/catalog-repo"
	DefaultGitPollInterval = 60 * time.Second
	DefaultGitTimeout      = 30 * time.Second
	DefaultGitAuthType     = "none"

	// Guard defaults
	DefaultRefreshHours        = 24.0
	DefaultFreshnessMultiplier = 1.5
	DefaultPartialDataRatio    = 0.7
	DefaultMinSampleFloor      = 100
	DefaultConcentrationLimit  = 0.60
	DefaultSegmentDriftLimit   = 0.25

	// Audit defaults
	DefaultAuditCapacity           = 100
	DefaultArchiveDriver           = "sqlite"
	DefaultArchivePath             = "data/audit.db"
	DefaultArchiveMaxOpenConns     = 10
	DefaultArchiveMaxIdleConns     = 5
	DefaultArchiveWALMode          = true
	DefaultArchiveBusyTimeout      = 5 * time.Second
	DefaultRecorderAsyncBuffer     = 1000
	DefaultRecorderWriteTimeout    = 5 * time.Second
	DefaultRecorderVerifyIntegrity = true
	DefaultRetentionDays           = 365
	DefaultRetentionSchedule       = "0 3 * * *"
	DefaultRetentionArchivePath    = "data/archives/"
	DefaultExportFormat            = "json"
	DefaultExportJSONPretty        = true

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "metricguard"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultServiceName        = "metricguard"
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultDurationBuckets are the evaluation latency histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1}

// Default returns a configuration with every field set to its default.
//
// Boolean fields that default to true and intervals where 0 is meaningful
// (retention days, the git poll interval, the TLS reload interval) are only
// set here. LoadConfig decodes YAML on top of Default so an explicit false
// or 0 in the file is preserved.
func Default() *Config {
	cfg := &Config{}
	cfg.Audit.Archive.WALMode = DefaultArchiveWALMode
	cfg.Audit.Recorder.VerifyIntegrity = DefaultRecorderVerifyIntegrity
	cfg.Audit.Export.JSONPretty = DefaultExportJSONPretty
	cfg.Audit.Retention.Days = DefaultRetentionDays
	cfg.Catalog.Git.PollInterval = DefaultGitPollInterval
	cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any non-boolean fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.BatchConcurrency == 0 {
		cfg.Server.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Catalog defaults
	if cfg.Catalog.Debounce == 0 {
		cfg.Catalog.Debounce = DefaultCatalogDebounce
	}
	applyGitDefaults(&cfg.Catalog.Git)

	applyGuardDefaults(&cfg.Guard)
	applyAuditDefaults(&cfg.Audit)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyGitDefaults(g *GitCatalogConfig) {
	if g.Branch == "" {
		g.Branch = DefaultGitBranch
	}
	if g.Path == "" {
		g.Path = DefaultGitPath
	}
	if g.LocalPath == "" {
		g.LocalPath = DefaultGitLocalPath
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGitTimeout
	}
	if g.Auth.Type == "" {
		g.Auth.Type = DefaultGitAuthType
	}
}

func applyGuardDefaults(g *GuardConfig) {
	if g.DefaultRefreshHours == 0 {
		g.DefaultRefreshHours = DefaultRefreshHours
	}
	if g.FreshnessMultiplier == 0 {
		g.FreshnessMultiplier = DefaultFreshnessMultiplier
	}
	if g.PartialDataRatio == 0 {
		g.PartialDataRatio = DefaultPartialDataRatio
	}
	if g.MinSampleFloor == 0 {
		g.MinSampleFloor = DefaultMinSampleFloor
	}
	if g.ConcentrationLimit == 0 {
		g.ConcentrationLimit = DefaultConcentrationLimit
	}
	if g.SegmentDriftLimit == 0 {
		g.SegmentDriftLimit = DefaultSegmentDriftLimit
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.Capacity == 0 {
		a.Capacity = DefaultAuditCapacity
	}

	if a.Archive.Driver == "" {
		a.Archive.Driver = DefaultArchiveDriver
	}
	if a.Archive.Path == "" {
		a.Archive.Path = DefaultArchivePath
	}
	if a.Archive.MaxOpenConns == 0 {
		a.Archive.MaxOpenConns = DefaultArchiveMaxOpenConns
	}
	if a.Archive.MaxIdleConns == 0 {
		a.Archive.MaxIdleConns = DefaultArchiveMaxIdleConns
	}
	if a.Archive.BusyTimeout == 0 {
		a.Archive.BusyTimeout = DefaultArchiveBusyTimeout
	}

	if a.Recorder.AsyncBuffer == 0 {
		a.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if a.Recorder.WriteTimeout == 0 {
		a.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}

	if a.Retention.PruneSchedule == "" {
		a.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if a.Retention.ArchivePath == "" {
		a.Retention.ArchivePath = DefaultRetentionArchivePath
	}

	if a.Export.Format == "" {
		a.Export.Format = DefaultExportFormat
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
