package processor

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ergosense/datafuse/internal/errors"
	"github.com/ergosense/datafuse/internal/logger"
)

const reportFilePerm = 0o644

func (s *service) GenerateReport(sources []string, since, until time.Time) (*Report, error) {
	errFactory := errors.New()

	if len(sources) == 0 {
		return nil, errFactory.New(ErrNoSources)
	}

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Since:       since,
		Until:       until,
		TimeSeries:  make(map[string]TimeSeries),
		Summary:     make(map[string]SeriesSummary),
	}

	seriesBySource := make(map[string]TimeSeries, len(sources))
	for _, source := range sources {
		series, err := s.defaultSeries(source, since, until)
		if err != nil {
			return nil, err
		}
		seriesBySource[source] = series

		key := seriesKey(series)
		report.TimeSeries[key] = series
		report.Summary[key] = summarize(series)
	}

	// Pairwise correlations over every unordered source pair. Pairs with
	// an empty side are excluded, not errors.
	for i, source1 := range sources {
		for _, source2 := range sources[i+1:] {
			if len(seriesBySource[source1].Points) == 0 || len(seriesBySource[source2].Points) == 0 {
				logger.Debug().
					Str("source1", source1).
					Str("source2", source2).
					Msg("Skipping correlation pair with empty series")
				continue
			}
			result, err := s.correlateRange(source1, source2, s.cfg.Window, since, until)
			if err != nil {
				return nil, err
			}
			report.Correlations = append(report.Correlations, result)
		}
	}

	logger.Info().
		Str("report_id", report.ID).
		Int("sources", len(sources)).
		Int("correlations", len(report.Correlations)).
		Msg("Report generated")

	return report, nil
}

func (s *service) SaveReport(report *Report, path string) error {
	errFactory := errors.New()

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errFactory.Wrap(ErrReportWrite, err)
	}

	if err := os.WriteFile(path, encoded, reportFilePerm); err != nil {
		return errFactory.WithData(ErrReportWrite, struct {
			Path  string
			Error string
		}{path, err.Error()})
	}

	logger.Info().Str("path", path).Msg("Report saved")

	return nil
}

func seriesKey(series TimeSeries) string {
	if series.Type == "" {
		return series.Source
	}
	return series.Source + "/" + series.Type
}

// summarize computes value statistics and sampling cadence for a series.
func summarize(series TimeSeries) SeriesSummary {
	summary := SeriesSummary{Count: len(series.Points)}
	if summary.Count == 0 {
		return summary
	}

	summary.Min = series.Points[0].Value
	summary.Max = series.Points[0].Value

	var sum float64
	for _, p := range series.Points {
		sum += p.Value
		if p.Value < summary.Min {
			summary.Min = p.Value
		}
		if p.Value > summary.Max {
			summary.Max = p.Value
		}
	}
	summary.Mean = sum / float64(summary.Count)

	if summary.Count < 2 {
		return summary
	}

	first := series.Points[0].Timestamp
	last := series.Points[summary.Count-1].Timestamp
	summary.DurationSeconds = last.Sub(first).Seconds()

	var gapSum float64
	for i := 1; i < summary.Count; i++ {
		gap := series.Points[i].Timestamp.Sub(series.Points[i-1].Timestamp).Seconds()
		gapSum += gap
		if i == 1 || gap < summary.MinGapSeconds {
			summary.MinGapSeconds = gap
		}
		if gap > summary.MaxGapSeconds {
			summary.MaxGapSeconds = gap
		}
	}
	summary.AvgGapSeconds = gapSum / float64(summary.Count-1)

	return summary
}
