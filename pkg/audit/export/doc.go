// Package export writes audit records as JSON or CSV.
//
// Both exporters implement audit.Exporter for in-memory slices and also
// provide ExportStream for channels produced by audit.Archive.QueryStream,
// so large archives can be exported without loading every record.
//
// JSON output is always an array of full records. CSV output flattens each
// record into one row; rule results are embedded as a JSON string.
package export
