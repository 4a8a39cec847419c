package processor

import (
	"time"
)

// Processor derives analytical structures from the engine's stored data
// without mutating it.
type Processor interface {
	// ProcessTimeSeries extracts the configured numeric field from every
	// matching data point. Points missing the field are skipped with a
	// warning, not fatal.
	ProcessTimeSeries(source, dataType string, since, until time.Time) (TimeSeries, error)

	// CorrelateSources computes the Pearson correlation between paired
	// values from two sources. Fewer than 2 pairs yields a zero score
	// flagged insufficient_data, never an error.
	CorrelateSources(source1, source2 string, window time.Duration) (CorrelationResult, error)

	// GenerateReport builds per-source series, pairwise correlations and
	// summary statistics for the given sources and time range.
	GenerateReport(sources []string, since, until time.Time) (*Report, error)

	// SaveReport writes the report as indented JSON.
	SaveReport(report *Report, path string) error
}

// TimePoint is one (timestamp, value) sample of a derived series.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is the ordered value sequence extracted for one
// (source, type) pair. Derived on demand, never stored.
type TimeSeries struct {
	Source string      `json:"source"`
	Type   string      `json:"type"`
	Field  string      `json:"field"`
	Points []TimePoint `json:"points"`
}

// CorrelationResult holds the correlation score between two sources over
// a time window. Pairing is nearest-match: each point of the
// lexicographically smaller source is paired with its nearest neighbor
// from the other source within ±window, earliest timestamp winning ties.
type CorrelationResult struct {
	Source1          string         `json:"source1"`
	Source2          string         `json:"source2"`
	CorrelationScore float64        `json:"correlation_score"`
	WindowMillis     int64          `json:"time_window_ms"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// SeriesSummary aggregates one series for the report.
type SeriesSummary struct {
	Count           int     `json:"count"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Mean            float64 `json:"mean"`
	DurationSeconds float64 `json:"duration_seconds"`
	AvgGapSeconds   float64 `json:"avg_gap_seconds"`
	MinGapSeconds   float64 `json:"min_gap_seconds"`
	MaxGapSeconds   float64 `json:"max_gap_seconds"`
}

// Report is the multi-source analysis output. JSON-serializable; series
// and summaries are keyed by "source/type".
type Report struct {
	ID           string                   `json:"id"`
	GeneratedAt  time.Time                `json:"generated_at"`
	Since        time.Time                `json:"since"`
	Until        time.Time                `json:"until"`
	TimeSeries   map[string]TimeSeries    `json:"time_series"`
	Correlations []CorrelationResult      `json:"correlations"`
	Summary      map[string]SeriesSummary `json:"summary"`
}
