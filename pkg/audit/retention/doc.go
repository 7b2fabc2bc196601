// Package retention prunes the audit archive.
//
// The in-process audit log is bounded on its own. The archive grows until
// the Pruner removes records, either by age (RetentionDays) or by count
// (MaxRecords), optionally exporting them to a JSON file first.
//
// The Scheduler runs the pruner on a cron expression:
//
//	pruner := retention.NewPruner(archive, &retention.Config{
//	    RetentionDays: 365,
//	    PruneSchedule: "0 3 * * *",
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention
