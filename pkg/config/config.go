package config

import "time"

// Config is the root configuration structure for metricguard.
// It contains all configuration sections for the service.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Catalog contains metric catalog configuration.
	Catalog CatalogConfig `yaml:"catalog"`

	// Guard contains rule threshold configuration.
	Guard GuardConfig `yaml:"guard"`

	// Audit contains audit log, archive and retention configuration.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains observability configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes is the maximum size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// RequestTimeout bounds the handling of a single API request.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodyBytes is the maximum accepted request body size.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// BatchConcurrency bounds concurrent evaluations in a batch request.
	// Default: 8
	BatchConcurrency int `yaml:"batch_concurrency"`

	// RateLimit throttles API clients.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// TLS serves the API over HTTPS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures HTTPS for the API server. Certificates are reloaded
// from disk when the files change.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is the lowest accepted protocol version, "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes. 0 disables reloading.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// RateLimitConfig configures per-client API rate limiting. Only /v1/
// endpoints are throttled.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate allowed per client IP.
	// Default: 50
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests a client may make at once.
	// Default: 100
	Burst int `yaml:"burst"`

	// MaxConcurrent caps in-flight API requests across all clients.
	// 0 means no cap.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// CatalogConfig contains metric catalog configuration.
type CatalogConfig struct {
	// FilePath is an optional YAML catalog file. When empty the built-in
	// registry is used.
	FilePath string `yaml:"file_path"`

	// Watch enables hot reload of FilePath.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a file change before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// Git loads the catalog from a Git repository instead of FilePath.
	Git GitCatalogConfig `yaml:"git"`
}

// GitCatalogConfig configures a catalog tracked in a Git repository.
type GitCatalogConfig struct {
	// Enabled determines if the catalog is loaded from Git.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/acme/metrics.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path is the catalog file within the repository.
	// Default: "catalog.yaml"
	Path string `yaml:"path"`

	// LocalPath is the clone directory.
	// Default: "data/catalog-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history. 0 clones the full history.
	Depth int `yaml:"depth"`

	// CleanOnStart removes an existing clone before cloning.
	CleanOnStart bool `yaml:"clean_on_start"`

	// PollInterval is how often the remote is checked for new commits.
	// 0 disables polling.
	// Default: 60s
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds each clone and pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures repository authentication.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type is "token", "ssh" or "none".
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication. Prefer METRICGUARD_CATALOG_GIT_TOKEN.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key for SSH authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase decrypts SSHKeyPath, if it is encrypted.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// GuardConfig contains rule thresholds. Zero values fall back to the
// built-in thresholds.
type GuardConfig struct {
	// DefaultRefreshHours is assumed for metrics missing from the catalog.
	// Default: 24
	DefaultRefreshHours float64 `yaml:"default_refresh_hours"`

	// FreshnessMultiplier scales the refresh interval into the staleness limit.
	// Default: 1.5
	FreshnessMultiplier float64 `yaml:"freshness_multiplier"`

	// PartialDataRatio is the fraction of the historical average below
	// which data is considered partially loaded.
	// Default: 0.7
	PartialDataRatio float64 `yaml:"partial_data_ratio"`

	// MinSampleFloor is the minimum sample for unknown metrics and for
	// comparison periods.
	// Default: 100
	MinSampleFloor int `yaml:"min_sample_floor"`

	// ConcentrationLimit is the top-contributor share above which results
	// are considered concentrated.
	// Default: 0.60
	ConcentrationLimit float64 `yaml:"concentration_limit"`

	// SegmentDriftLimit is the segment change ratio above which composition
	// is considered drifted.
	// Default: 0.25
	SegmentDriftLimit float64 `yaml:"segment_drift_limit"`
}

// AuditConfig contains audit log configuration.
type AuditConfig struct {
	// Capacity is the number of records the in-memory log retains.
	// Default: 100
	Capacity int `yaml:"capacity"`

	// Archive contains the durable archive configuration.
	Archive ArchiveConfig `yaml:"archive"`

	// Recorder contains the archive mirroring configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains archive retention configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// ArchiveConfig contains SQLite archive configuration.
type ArchiveConfig struct {
	// Enabled controls whether records are mirrored to a durable archive.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains archive recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to the archive.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// VerifyIntegrity re-checks each record's hash before it is archived.
	// Default: true
	VerifyIntegrity bool `yaml:"verify_integrity"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain archived records.
	// 0 means keep records forever.
	// Default: 365
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete exports records to JSON before deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for exported records.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords is the maximum number of archived records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// Format is the default export format.
	// Options: "json", "csv"
	// Default: "json"
	Format string `yaml:"format"`

	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "metricguard"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for evaluation duration (seconds).
	// Default: [0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "metricguard"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
