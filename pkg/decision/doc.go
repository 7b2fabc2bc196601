// Package decision runs the decision lifecycle: evaluate a request through
// the guard, mint an audit record, and later override or label it.
//
// # States
//
//	PENDING ──evaluate──▶ ALLOW | WARN | BLOCK
//	WARN ──override (once)──▶ OVERRIDDEN
//
// ALLOW, BLOCK and OVERRIDDEN are terminal. Overriding never edits the WARN
// record: it appends a second record that points back at it through
// Override.SourceDecisionID.
//
// # Audit
//
// Every successful Evaluate or Override appends exactly one record to the
// injected audit.Log. Failed operations leave the log untouched. Outcome
// labels are the only mutation a record ever receives.
//
// An optional audit.Sink (normally a recorder.Recorder) receives the same
// events for durable archiving. Sink errors are logged, never returned:
// the in-process log is authoritative.
//
// Usage:
//
//	lc := decision.New(catalog.NewDefaultCatalog(), audit.NewLog(0),
//	    decision.WithRecorder(rec),
//	    decision.WithMetrics(collector.Decisions()),
//	)
//	out, err := lc.Evaluate(ctx, req)
//	if err != nil {
//	    return err
//	}
//	if out.Result.Status == guard.StatusWarn {
//	    out, err = lc.Override(ctx, out.Record.DecisionID, justification)
//	}
package decision
