// Package query validates audit queries and builds them from request
// parameters.
//
// # Validation
//
// Validate rejects queries the archive or log cannot answer sensibly:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort order is "asc" or "desc"
//   - Time range is ordered (start <= end)
//   - Status, decision type and outcome filters name known values
//
// # Parameters
//
// FromValues builds a query from URL query parameters, which is how both
// the HTTP API and the CLI express filters:
//
//	q, err := query.FromValues(r.URL.Query())
//	if err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q)
//	records := log.List(q)
package query
