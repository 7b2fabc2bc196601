// metricguard is a decision-safety gate for business metrics.
//
// It evaluates a proposed use of a metric against eight guard rules and
// returns ALLOW, WARN, or BLOCK with a confidence score, an explanation, and
// an audit record. WARN decisions can be overridden with a justification.
//
// Usage:
//
//	# Start the decision API
//	metricguard run --config /etc/metricguard/config.yaml
//
//	# Evaluate one decision from the command line
//	metricguard evaluate --metric revenue --decision-type pricing \
//	    --start 2025-05-01 --end 2025-05-31 --sample-size 5000
//
//	# Evaluate a batch of requests and fail the build on any BLOCK
//	metricguard evaluate --file decisions.json --fail-on block
//
//	# Show which decisions a metric is certified for
//	metricguard catalog certify conversion
//
//	# Export the archived audit trail
//	metricguard audit export --format csv --output audit.csv
package main

import (
	"fmt"
	"os"

	"mercator-hq/metricguard/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
