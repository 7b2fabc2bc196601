// Package config provides configuration management for metricguard.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("metricguard.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("metricguard.yaml")
//
// An empty path passed to LoadConfigWithEnvOverrides starts from Default.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention METRICGUARD_SECTION_FIELD.
// For example:
//
//   - METRICGUARD_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - METRICGUARD_AUDIT_ARCHIVE_ENABLED overrides audit.archive.enabled
//   - METRICGUARD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - METRICGUARD_CATALOG_GIT_TOKEN overrides catalog.git.auth.token
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("metricguard.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8090"
//	  rate_limit:
//	    enabled: true
//	    requests_per_second: 20
//	  tls:
//	    enabled: true
//	    cert_file: "/etc/metricguard/server.crt"
//	    key_file: "/etc/metricguard/server.key"
//	catalog:
//	  file_path: "catalog.yaml"
//	  watch: true
//	guard:
//	  concentration_limit: 0.6
//	audit:
//	  capacity: 100
//	  archive:
//	    enabled: true
//	    path: "data/audit.db"
//	  retention:
//	    days: 365
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// Config values are plain structs and are not synchronized. The singleton
// accessors are safe for concurrent use.
package config
