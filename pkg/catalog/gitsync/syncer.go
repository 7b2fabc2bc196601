package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/metricguard/pkg/catalog"
)

// Syncer loads the catalog file from the repository into a MemoryCatalog
// and polls the remote for new commits.
type Syncer struct {
	repo     *Repository
	target   *catalog.MemoryCatalog
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	running     bool
	rejectedSHA string
	stats       SyncStats
	onReload    func(count int, err error)
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewSyncer creates a syncer for a cloned repository. A non-positive
// interval defaults to one minute.
func NewSyncer(repo *Repository, target *catalog.MemoryCatalog, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Syncer{
		repo:     repo,
		target:   target,
		interval: interval,
		logger:   slog.Default().With("component", "catalog.gitsync"),
	}
}

// OnReload registers a callback invoked after every reload attempt with the
// number of loaded metrics and the reload error, if any.
func (s *Syncer) OnReload(fn func(count int, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = fn
}

// Load replaces the target catalog with the file at the current HEAD.
func (s *Syncer) Load() (int, error) {
	head, err := s.repo.Head()
	if err != nil {
		return 0, err
	}
	return s.apply(head.SHA)
}

// Start begins polling in the background until ctx is cancelled or Stop is
// called.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("catalog syncer already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.logger.Info("catalog sync started",
		"url", s.repo.URL(),
		"path", s.repo.CatalogPath(),
		"poll_interval", s.interval,
		"active_commit", shortSHA(s.stats.ActiveSHA),
	)

	go s.pollLoop(ctx, s.stopCh, s.doneCh)
	return nil
}

// Stop stops polling and waits for an in-flight check to finish. It is a
// no-op when the syncer is not running.
func (s *Syncer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	return nil
}

// Check pulls once and reloads the catalog if the catalog file changed.
func (s *Syncer) Check(ctx context.Context) error {
	s.mu.Lock()
	s.stats.Polls++
	s.mu.Unlock()

	result, err := s.repo.Pull(ctx)
	if err != nil {
		return err
	}
	if !result.HadChanges {
		return nil
	}

	s.logger.Info("detected catalog repository changes",
		"from_sha", shortSHA(result.FromSHA),
		"to_sha", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)

	if !s.repo.TouchesCatalog(result.ChangedFiles) {
		s.mu.Lock()
		s.stats.Skipped++
		s.mu.Unlock()
		s.logger.Debug("catalog file unchanged, skipping reload", "changed_files", result.ChangedFiles)
		return nil
	}

	_, err = s.apply(result.ToSHA)
	return err
}

// Stats returns a copy of the sync counters.
func (s *Syncer) Stats() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Catalog returns the catalog the syncer keeps up to date.
func (s *Syncer) Catalog() *catalog.MemoryCatalog {
	return s.target
}

// Repository returns the underlying repository.
func (s *Syncer) Repository() *Repository {
	return s.repo
}

// ActiveCommit returns the commit the active definitions were loaded from.
func (s *Syncer) ActiveCommit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.ActiveSHA
}

func (s *Syncer) pollLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("catalog sync stopped (context cancelled)")
			return
		case <-stopCh:
			s.logger.Info("catalog sync stopped")
			return
		case <-ticker.C:
			if err := s.Check(ctx); err != nil {
				s.logger.Error("catalog sync check failed", "error", err)
			}
		}
	}
}

// apply loads the catalog at sha. An invalid file leaves the target
// untouched and marks sha as rejected.
func (s *Syncer) apply(sha string) (int, error) {
	s.mu.Lock()
	if sha == s.rejectedSHA {
		s.mu.Unlock()
		return 0, fmt.Errorf("commit %s was already rejected", shortSHA(sha))
	}
	s.mu.Unlock()

	defs, err := s.load(sha)

	s.mu.Lock()
	if err != nil {
		s.rejectedSHA = sha
		s.stats.Rejected++
	} else {
		s.rejectedSHA = ""
		s.stats.Reloads++
		s.stats.ActiveSHA = sha
		s.stats.LastReloadTime = time.Now()
	}
	cb := s.onReload
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("catalog commit rejected, keeping previous definitions",
			"commit_sha", shortSHA(sha),
			"error", err,
		)
	} else {
		s.target.Replace(defs)
		s.logger.Info("catalog reloaded from repository",
			"commit_sha", shortSHA(sha),
			"metrics", len(defs),
		)
	}

	if cb != nil {
		cb(len(defs), err)
	}
	if err != nil {
		return 0, err
	}
	return len(defs), nil
}

func (s *Syncer) load(sha string) ([]*catalog.MetricDefinition, error) {
	data, err := s.repo.ReadCatalog(sha)
	if err != nil {
		return nil, err
	}
	defs, err := catalog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog at commit %s: %w", shortSHA(sha), err)
	}
	return defs, nil
}
