package processor

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ergosense/datafuse/internal/engine"
	"github.com/ergosense/datafuse/internal/errors"
	"github.com/ergosense/datafuse/internal/logger"
)

type service struct {
	engine engine.Integrator
	cfg    Config
}

// NewService constructs a processor over the given engine. The processor
// only calls the engine's read API and never mutates the store.
func NewService(eng engine.Integrator, cfg Config) (Processor, error) {
	errFactory := errors.New()

	if eng == nil {
		return nil, errFactory.New(ErrMissingEngine)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	return &service{
		engine: eng,
		cfg:    cfg,
	}, nil
}

func (s *service) ProcessTimeSeries(source, dataType string, since, until time.Time) (TimeSeries, error) {
	errFactory := errors.New()

	field, ok := s.cfg.fieldFor(source, dataType)
	if !ok {
		return TimeSeries{}, errFactory.WithData(ErrFieldNotConfigured, struct {
			Source string
			Type   string
		}{source, dataType})
	}

	points := s.engine.GetDataPoints(engine.Query{
		Source: source,
		Type:   dataType,
		Since:  since,
		Until:  until,
	})

	series := TimeSeries{
		Source: source,
		Type:   dataType,
		Field:  field,
	}

	for _, p := range points {
		raw, ok := p.Data[field]
		if !ok {
			logger.Warn().
				Str("source", source).
				Str("type", dataType).
				Str("field", field).
				Time("timestamp", p.Timestamp).
				Msg("Data point missing extraction field, skipping")
			continue
		}

		value, ok := coerceFloat(raw)
		if !ok {
			logger.Warn().
				Str("source", source).
				Str("type", dataType).
				Str("field", field).
				Time("timestamp", p.Timestamp).
				Msg("Extraction field is not numeric, skipping")
			continue
		}

		series.Points = append(series.Points, TimePoint{
			Timestamp: p.Timestamp,
			Value:     value,
		})
	}

	return series, nil
}

// coerceFloat converts the numeric representations that show up in
// collector payloads, including json.Number from decoded imports.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
