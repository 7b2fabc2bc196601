// Package audit provides the decision audit trail.
//
// Every evaluated decision produces a Record: a full, by-value capture of the
// request, the ordered rule results with their weighted contributions, the
// original and final decision state, the override block and the outcome
// tracking block. Every field except Outcome is write-once. Outcome may be
// relabelled any number of times by a reviewer.
//
// # Log
//
// Log is the bounded, most-recent-first store the decision lifecycle writes
// to. It keeps an arena of records indexed by decision ID plus an insertion
// order index. Appending beyond capacity evicts the oldest-inserted record in
// the same critical section as the insert:
//
//	log := audit.NewLog(100)
//	if err := log.Append(record); err != nil {
//	    return err
//	}
//	recent := log.List(&audit.Query{Limit: 10})
//
// Writes (append, outcome update) are serialized; reads run concurrently and
// always observe whole records. Records are copied on the way in and out, so
// callers can never mutate stored state.
//
// # Integrity
//
// ComputeIntegrityHash hashes the write-once fields of a record. The hash is
// set when the record is minted and is unaffected by outcome updates, so
// VerifyIntegrity detects any other modification.
//
// # Durable archive
//
// The Archive interface describes an optional durable mirror of the log.
// Implementations live in the archive subpackage; the recorder subpackage
// mirrors lifecycle events into an archive asynchronously, and the retention
// subpackage prunes it.
package audit
