package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/go-cmp/cmp"
)

// loaded is a configuration together with the file it came from.
type loaded struct {
	cfg  *Config
	path string
}

var (
	current atomic.Pointer[loaded]

	// initMu serializes Initialize so only the first successful call wins.
	initMu sync.Mutex
)

// Initialize loads configuration from path with environment overrides and
// installs it as the process configuration. An empty path starts from
// Default. Once a call has succeeded, later calls are no-ops.
func Initialize(path string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if current.Load() != nil {
		return nil
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	current.Store(&loaded{cfg: cfg, path: path})
	return nil
}

// GetConfig returns the installed configuration, or nil before Initialize.
//
// For testing, prefer passing explicit Config values.
func GetConfig() *Config {
	if l := current.Load(); l != nil {
		return l.cfg
	}
	return nil
}

// MustGetConfig is GetConfig for code that runs after startup. It panics if
// no configuration is installed.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// SetConfig installs cfg without a source file. Intended for tests.
func SetConfig(cfg *Config) {
	current.Store(&loaded{cfg: cfg})
}

// Path returns the file the installed configuration was loaded from.
func Path() string {
	if l := current.Load(); l != nil {
		return l.path
	}
	return ""
}

// ReloadConfig loads path, or the file Initialize used when path is empty,
// and installs it if it validates. It returns the sections that differ from
// the previous configuration. On error nothing changes.
func ReloadConfig(path string) ([]string, error) {
	prev := current.Load()
	if path == "" && prev != nil {
		path = prev.path
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	current.Store(&loaded{cfg: cfg, path: path})

	if prev == nil {
		return nil, nil
	}
	return ChangedSections(prev.cfg, cfg), nil
}

// ChangedSections lists the configuration sections whose values differ
// between a and b, in file order. Telemetry is reported per subsection
// since only the logging level can be applied without a restart.
func ChangedSections(a, b *Config) []string {
	sections := []struct {
		name string
		a, b any
	}{
		{"server", a.Server, b.Server},
		{"catalog", a.Catalog, b.Catalog},
		{"guard", a.Guard, b.Guard},
		{"audit", a.Audit, b.Audit},
		{"telemetry.logging", a.Telemetry.Logging, b.Telemetry.Logging},
		{"telemetry.metrics", a.Telemetry.Metrics, b.Telemetry.Metrics},
		{"telemetry.tracing", a.Telemetry.Tracing, b.Telemetry.Tracing},
		{"telemetry.health", a.Telemetry.Health, b.Telemetry.Health},
	}

	var changed []string
	for _, s := range sections {
		if !cmp.Equal(s.a, s.b) {
			changed = append(changed, s.name)
		}
	}
	return changed
}
