package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers Pruner.Prune from a standard five-field cron
// expression. A run that is still in progress when the next tick fires
// causes that tick to be skipped.
type Scheduler struct {
	pruner *Pruner
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	sched   cron.Schedule
	running bool
	onPrune func(deleted int64, err error)
}

// NewScheduler returns a stopped scheduler for pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: slog.Default().With("component", "audit.scheduler"),
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// OnPrune sets the observer called after every scheduled run, successful
// or not. A nil fn removes it.
func (s *Scheduler) OnPrune(fn func(deleted int64, err error)) {
	s.mu.Lock()
	s.onPrune = fn
	s.mu.Unlock()
}

// Start registers the prune job and starts the cron loop. The loop stops
// when ctx is done or Stop is called. An empty PruneSchedule leaves the
// scheduler idle; calling Start twice is harmless.
//
//	"0 3 * * *"    nightly at 03:00
//	"0 */6 * * *"  four times a day
func (s *Scheduler) Start(ctx context.Context) error {
	spec := s.pruner.config.PruneSchedule
	if spec == "" {
		s.logger.Info("no prune schedule, archive pruning is manual only")
		return nil
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.sched = sched
	s.entry = s.cron.Schedule(sched, cron.FuncJob(func() { s.runPruning(ctx) }))
	s.cron.Start()
	s.running = true

	s.logger.Info("archive pruning scheduled",
		"schedule", spec,
		"retention_days", s.pruner.config.RetentionDays,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	started := time.Now()
	deleted, err := s.pruner.Prune(ctx)

	s.mu.Lock()
	hook := s.onPrune
	s.mu.Unlock()
	if hook != nil {
		hook(deleted, err)
	}

	if err != nil {
		s.logger.Error("archive pruning failed", "error", err, "deleted_before_error", deleted)
		return
	}
	s.logger.Debug("archive pruning finished", "deleted_count", deleted, "duration", time.Since(started))
}

// Stop removes the prune job and blocks until an in-flight run returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entry)
	done := s.cron.Stop()
	s.mu.Unlock()

	<-done.Done()
	s.logger.Info("archive pruning unscheduled")
}

// IsRunning reports whether the prune job is scheduled.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun is the next time the prune job fires, or nil when it is not
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		// The cron loop has not computed the first activation yet.
		next = s.sched.Next(time.Now())
	}
	return &next
}
