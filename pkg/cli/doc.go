/*
Package cli provides command-line interface utilities for metricguard.

The cli package includes output formatters, progress reporters, exit codes
and signal handling used by the metricguard command.

Output Formatting:

Results are printed as text, JSON or CSV. Types implementing Tabular render
as aligned columns in text and as rows in CSV:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Progress Reporting:

Long-running audit exports report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "records")
	progress.Start(total)
	for range records {
		progress.Increment()
	}
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 when evaluate --fail-on trips, 1 otherwise.
*/
package cli
