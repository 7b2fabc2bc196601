package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/metricguard/pkg/audit"
)

// ErrClosed is returned when an event arrives after Close.
var ErrClosed = errors.New("recorder closed")

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables archive mirroring.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing and each archive write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// VerifyIntegrity re-checks each record's integrity hash before writing.
	// Default: true
	VerifyIntegrity bool
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		AsyncBuffer:     1000,
		WriteTimeout:    5 * time.Second,
		VerifyIntegrity: true,
	}
}

type eventKind int

const (
	eventAppend eventKind = iota
	eventOutcome
)

type event struct {
	kind       eventKind
	record     *audit.Record
	decisionID string
	outcome    audit.OutcomeTracking
}

func (e *event) id() string {
	if e.record != nil {
		return e.record.DecisionID
	}
	return e.decisionID
}

// Stats are cumulative recorder counters.
type Stats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Pending int   `json:"pending"`
}

// Recorder implements audit.Sink by writing events to an archive
// asynchronously.
type Recorder struct {
	archive audit.Archive
	config  *Config
	events  chan *event
	wg      sync.WaitGroup
	done    chan struct{}
	logger  *slog.Logger

	closeOnce sync.Once

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

var _ audit.Sink = (*Recorder)(nil)

// New creates a recorder that writes to archive and starts its worker.
func New(archive audit.Archive, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		archive: archive,
		config:  config,
		events:  make(chan *event, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// RecordAppended enqueues a copy of a newly appended record.
func (r *Recorder) RecordAppended(ctx context.Context, record *audit.Record) error {
	if !r.config.Enabled {
		return nil
	}
	return r.enqueue(ctx, &event{kind: eventAppend, record: record.Clone()})
}

// OutcomeUpdated enqueues an outcome replacement.
func (r *Recorder) OutcomeUpdated(ctx context.Context, decisionID string, outcome audit.OutcomeTracking) error {
	if !r.config.Enabled {
		return nil
	}
	if outcome.UpdatedAt != nil {
		ts := *outcome.UpdatedAt
		outcome.UpdatedAt = &ts
	}
	return r.enqueue(ctx, &event{kind: eventOutcome, decisionID: decisionID, outcome: outcome})
}

func (r *Recorder) enqueue(ctx context.Context, ev *event) error {
	select {
	case <-r.done:
		r.dropped.Add(1)
		return audit.NewRecorderError(ev.id(), ErrClosed)
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.events <- ev:
		r.logger.Debug("audit event enqueued", "decision_id", ev.id())
		return nil
	case <-timer.C:
		r.dropped.Add(1)
		r.logger.Error("audit channel full, dropping event",
			"decision_id", ev.id(),
			"channel_capacity", r.config.AsyncBuffer,
		)
		return audit.NewRecorderError(ev.id(), context.DeadlineExceeded)
	case <-ctx.Done():
		r.dropped.Add(1)
		return audit.NewRecorderError(ev.id(), ctx.Err())
	case <-r.done:
		r.dropped.Add(1)
		r.logger.Warn("recorder shutting down, dropping event", "decision_id", ev.id())
		return audit.NewRecorderError(ev.id(), ErrClosed)
	}
}

// Stats returns the current counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Written: r.written.Load(),
		Failed:  r.failed.Load(),
		Dropped: r.dropped.Load(),
		Pending: len(r.events),
	}
}

// Close drains queued events and waits for the worker to exit.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down complete",
			"written", r.written.Load(),
			"failed", r.failed.Load(),
			"dropped", r.dropped.Load(),
		)
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case ev := <-r.events:
			r.write(ev)

		case <-r.done:
			r.logger.Info("draining audit channel before shutdown",
				"pending_count", len(r.events),
			)
			for {
				select {
				case ev := <-r.events:
					r.write(ev)
				default:
					r.logger.Info("audit channel drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ev *event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	var err error
	switch ev.kind {
	case eventAppend:
		if r.config.VerifyIntegrity {
			err = audit.VerifyIntegrity(ev.record)
		}
		if err == nil {
			err = r.archive.Store(ctx, ev.record)
		}
	case eventOutcome:
		err = r.archive.UpdateOutcome(ctx, ev.decisionID, ev.outcome)
	}

	if err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to archive audit event",
			"decision_id", ev.id(),
			"error", err,
		)
		return
	}
	r.written.Add(1)

	duration := time.Since(start)
	r.logger.Debug("audit event archived",
		"decision_id", ev.id(),
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"decision_id", ev.id(),
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
