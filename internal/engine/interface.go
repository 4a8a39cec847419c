package engine

import (
	"context"
	"io"
	"time"
)

// Integrator defines the core domain interface: the single owner of the
// data point store and the gatekeeper for all writes.
type Integrator interface {
	// AddDataPoint appends a point stamped with the current time.
	AddDataPoint(source, dataType string, data, metadata map[string]any) (DataPoint, error)

	// AddDataPointAt appends a point with a collector-supplied capture
	// timestamp. Preferred when the collector timestamps events itself,
	// to avoid skew from queuing delay.
	AddDataPointAt(source, dataType string, data, metadata map[string]any, ts time.Time) (DataPoint, error)

	// GetDataPoints returns all points matching the query, ordered by
	// timestamp ascending. An empty result is not an error.
	GetDataPoints(q Query) []DataPoint

	// Export serializes the points matching the query as a JSON array.
	Export(ctx context.Context, w io.Writer, q Query) error
	ExportFile(ctx context.Context, path string, q Query) error

	// Import reads a previously exported JSON array back into the store.
	// Returns the number of points imported.
	Import(r io.Reader) (int, error)
	ImportFile(path string) (int, error)

	// Prune deletes archived points older than the cutoff. Fails when no
	// archive is configured.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Clear removes all in-memory points. Maintenance operation, driven
	// by an external scheduler.
	Clear()

	Stats() Stats
	Close() error
}

// DataPoint is a single timestamped, source-tagged event record. Once
// appended it is never mutated; corrections are modeled as new points.
type DataPoint struct {
	Source    string
	Type      string
	Data      map[string]any
	Timestamp time.Time
	Metadata  map[string]any
}

// Query filters data point retrieval. Zero values are wildcards; the
// time bounds are inclusive.
type Query struct {
	Source string
	Type   string
	Since  time.Time
	Until  time.Time
}

// Stats holds aggregate information about the stored points.
type Stats struct {
	TotalPoints int
	BySource    map[string]int
	Oldest      time.Time
	Newest      time.Time
}
