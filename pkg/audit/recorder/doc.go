// Package recorder mirrors audit lifecycle events into a durable archive.
//
// The decision lifecycle appends records to the bounded in-process audit
// log synchronously. The recorder receives the same events through the
// audit.Sink interface and writes them to an audit.Archive on a background
// worker, so archive latency never reaches the caller.
//
// # Ordering
//
// A single worker drains one channel, so an outcome update for a record is
// always written after the record itself.
//
// # Backpressure
//
// If the channel is full the enqueue waits up to Config.WriteTimeout and
// then drops the event with a RecorderError. The in-process log is the
// source of truth for recent records; the archive may lag or miss events
// under sustained overload.
//
// # Shutdown
//
// Close stops accepting events, drains everything already queued and waits
// for the worker to exit.
//
// Usage:
//
//	rec := recorder.New(archive, recorder.DefaultConfig())
//	defer rec.Close()
//
//	lifecycle := decision.New(cat, log, decision.WithRecorder(rec))
package recorder
