package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mercator-hq/metricguard/pkg/audit"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// StreamExporter is an audit.Exporter that can also consume a record stream.
type StreamExporter interface {
	audit.Exporter
	ExportStream(ctx context.Context, recordsCh <-chan *audit.Record, w io.Writer) error
}

// New returns the exporter for a format name.
func New(format string, pretty bool) (StreamExporter, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONExporter(pretty), nil
	case FormatCSV:
		return NewCSVExporter(true), nil
	default:
		return nil, audit.NewExportError(format, 0, fmt.Errorf("unsupported format %q (must be 'json' or 'csv')", format))
	}
}
