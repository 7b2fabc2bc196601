package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/metricguard/pkg/audit"
	"mercator-hq/metricguard/pkg/audit/archive"
	"mercator-hq/metricguard/pkg/audit/recorder"
	"mercator-hq/metricguard/pkg/audit/retention"
	"mercator-hq/metricguard/pkg/catalog"
	"mercator-hq/metricguard/pkg/catalog/gitsync"
	"mercator-hq/metricguard/pkg/cli"
	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/guard/rules"
	"mercator-hq/metricguard/pkg/telemetry"
	"mercator-hq/metricguard/pkg/telemetry/health"
)

// app holds the components built from configuration.
type app struct {
	cfg       *config.Config
	catalog   *catalog.MemoryCatalog
	archive   audit.Archive
	recorder  *recorder.Recorder
	pruner    *retention.Pruner
	watcher   *catalog.Watcher
	syncer    *gitsync.Syncer
	lifecycle *decision.Lifecycle

	// closers run last-in first-out.
	closers []func() error
}

// newApp builds the catalog, the archive and its recorder, and the decision
// lifecycle. With a non-nil tel the lifecycle reports metrics and spans, and
// the catalog and archive are registered as readiness checks.
func newApp(cfg *config.Config, tel *telemetry.Telemetry) (*app, error) {
	a := &app{cfg: cfg}

	var cat *catalog.MemoryCatalog
	if cfg.Catalog.Git.Enabled {
		s, err := openGitCatalog(context.Background(), cfg.Catalog.Git)
		if err != nil {
			return nil, cli.NewConfigError("catalog.git", err.Error())
		}
		a.syncer = s
		cat = s.Catalog()
	} else {
		var err error
		cat, err = loadCatalog(cfg.Catalog.FilePath)
		if err != nil {
			return nil, cli.NewConfigError("catalog.file_path", err.Error())
		}
	}
	a.catalog = cat

	opts := []decision.Option{
		decision.WithThresholds(thresholds(cfg.Guard)),
	}

	if cfg.Audit.Archive.Enabled {
		arch, err := openArchive(cfg.Audit.Archive)
		if err != nil {
			return nil, err
		}
		a.archive = arch
		a.closers = append(a.closers, arch.Close)

		a.recorder = recorder.New(arch, &recorder.Config{
			Enabled:         true,
			AsyncBuffer:     cfg.Audit.Recorder.AsyncBuffer,
			WriteTimeout:    cfg.Audit.Recorder.WriteTimeout,
			VerifyIntegrity: cfg.Audit.Recorder.VerifyIntegrity,
		})
		a.closers = append(a.closers, a.recorder.Close)
		opts = append(opts, decision.WithRecorder(a.recorder))

		a.pruner = retention.NewPruner(arch, retentionConfig(cfg.Audit.Retention))
	}

	if tel != nil {
		opts = append(opts,
			decision.WithMetrics(tel.Metrics()),
			decision.WithTracer(tel.Tracer().Tracer()),
		)
		a.instrument(tel)
	}

	a.lifecycle = decision.New(cat, audit.NewLog(cfg.Audit.Capacity), opts...)
	return a, nil
}

func (a *app) instrument(tel *telemetry.Telemetry) {
	m := tel.Metrics()
	m.SetCatalogSize(a.catalog.Len())

	checker := tel.Health()
	checker.RegisterCheck("catalog", health.CatalogCheck(a.catalog))

	if a.recorder != nil {
		m.RegisterRecorder(a.recorder.Stats)
	}
	if p, ok := a.archive.(health.Pinger); ok {
		checker.RegisterCheck("archive", health.PingCheck(p))
	}
	if a.pruner != nil {
		a.pruner.OnPrune(m.RecordPrune)
	}
}

// startBackground starts the catalog watcher or Git poller and the retention
// scheduler. All of them stop when ctx is cancelled or the app is closed.
func (a *app) startBackground(ctx context.Context, tel *telemetry.Telemetry) error {
	if a.syncer != nil && a.cfg.Catalog.Git.PollInterval > 0 {
		if tel != nil {
			a.syncer.OnReload(catalogReloadHook(tel))
		}
		if err := a.syncer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start catalog sync: %w", err)
		}
		a.closers = append(a.closers, a.syncer.Stop)
	}

	if a.cfg.Catalog.Watch && a.cfg.Catalog.FilePath != "" {
		w, err := catalog.NewWatcher(a.catalog, catalog.WatcherConfig{
			Path:             a.cfg.Catalog.FilePath,
			DebounceInterval: a.cfg.Catalog.Debounce,
		})
		if err != nil {
			return fmt.Errorf("failed to create catalog watcher: %w", err)
		}
		if tel != nil {
			w.OnReload(catalogReloadHook(tel))
		}
		a.watcher = w
		a.closers = append(a.closers, w.Stop)

		go func() {
			if err := w.Watch(ctx); err != nil {
				slog.Error("catalog watcher stopped", "error", err)
			}
		}()
	}

	if a.pruner != nil {
		if err := a.pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		a.closers = append(a.closers, func() error { a.pruner.Stop(); return nil })
		if next := a.pruner.NextPruning(); next != nil {
			slog.Debug("audit retention scheduler started", "next_pruning", next)
		}
	}
	return nil
}

func catalogReloadHook(tel *telemetry.Telemetry) func(count int, err error) {
	m := tel.Metrics()
	return func(count int, err error) {
		m.RecordCatalogReload(count, err)
		if err == nil {
			m.SetCatalogSize(count)
		}
	}
}

// restore loads the newest archived records back into the in-memory log,
// oldest first, so the log survives a restart. Records that fail integrity
// verification are skipped.
func (a *app) restore(ctx context.Context) (int, error) {
	if a.archive == nil {
		return 0, nil
	}
	log := a.lifecycle.Log()
	records, err := a.archive.Query(ctx, &audit.Query{Limit: log.Capacity()})
	if err != nil {
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}

	restored := 0
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if err := audit.VerifyIntegrity(r); err != nil {
			slog.Warn("skipping archived record", "decision_id", r.DecisionID, "error", err)
			continue
		}
		add := log.Append
		if r.Override.Used {
			if _, ok := log.Get(r.Override.SourceDecisionID); ok {
				add = log.AppendOverride
			}
		}
		if err := add(r); err != nil {
			slog.Warn("skipping archived record", "decision_id", r.DecisionID, "error", err)
			continue
		}
		restored++
	}
	return restored, nil
}

// Close stops background work and releases storage in reverse order of
// creation, so the recorder drains before the archive closes.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// loadCatalog reads the catalog file, or returns the built-in catalog when
// path is empty.
func loadCatalog(path string) (*catalog.MemoryCatalog, error) {
	if path == "" {
		return catalog.NewDefaultCatalog(), nil
	}
	defs, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryCatalog(defs), nil
}

// openGitCatalog clones the catalog repository and loads the catalog from
// its HEAD. The returned syncer owns the catalog and is not yet polling.
func openGitCatalog(ctx context.Context, cfg config.GitCatalogConfig) (*gitsync.Syncer, error) {
	repo, err := gitsync.NewRepository(&gitsync.Config{
		URL:          cfg.Repository,
		Branch:       cfg.Branch,
		Path:         cfg.Path,
		LocalPath:    cfg.LocalPath,
		Depth:        cfg.Depth,
		CleanOnStart: cfg.CleanOnStart,
		Timeout:      cfg.Timeout,
		Auth: gitsync.AuthConfig{
			Type:             cfg.Auth.Type,
			Token:            cfg.Auth.Token,
			SSHKeyPath:       cfg.Auth.SSHKeyPath,
			SSHKeyPassphrase: cfg.Auth.SSHKeyPassphrase,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := repo.Clone(ctx); err != nil {
		return nil, err
	}

	s := gitsync.NewSyncer(repo, catalog.NewDefaultCatalog(), cfg.PollInterval)
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func openArchive(cfg config.ArchiveConfig) (*archive.SQLiteArchive, error) {
	arch, err := archive.NewSQLiteArchive(&archive.SQLiteConfig{
		Driver:       cfg.Driver,
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		WALMode:      cfg.WALMode,
		BusyTimeout:  cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit archive: %w", err)
	}
	return arch, nil
}

// requireArchive opens the archive for the audit commands.
func requireArchive(cfg *config.Config) (*archive.SQLiteArchive, error) {
	if !cfg.Audit.Archive.Enabled {
		return nil, cli.NewConfigError("audit.archive.enabled", "the audit archive is disabled")
	}
	return openArchive(cfg.Audit.Archive)
}

func thresholds(cfg config.GuardConfig) rules.Thresholds {
	return rules.Thresholds{
		DefaultRefreshHours: cfg.DefaultRefreshHours,
		FreshnessMultiplier: cfg.FreshnessMultiplier,
		PartialDataRatio:    cfg.PartialDataRatio,
		MinSampleFloor:      cfg.MinSampleFloor,
		ConcentrationLimit:  cfg.ConcentrationLimit,
		SegmentDriftLimit:   cfg.SegmentDriftLimit,
	}
}

func retentionConfig(cfg config.RetentionConfig) *retention.Config {
	return &retention.Config{
		RetentionDays:       cfg.Days,
		PruneSchedule:       cfg.PruneSchedule,
		ArchiveBeforeDelete: cfg.ArchiveBeforeDelete,
		ArchivePath:         cfg.ArchivePath,
		MaxRecords:          cfg.MaxRecords,
	}
}
