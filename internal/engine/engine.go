package engine

import (
	"context"
	"time"

	"github.com/ergosense/datafuse/internal/errors"
	"github.com/ergosense/datafuse/internal/logger"
)

type service struct {
	store   *memoryStore
	archive *Archive
	cfg     Config
}

// NewService constructs the integration engine. When the archive is
// enabled every appended point is also recorded to the SQLite archive.
func NewService(cfg Config) (Integrator, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	s := &service{
		store: newMemoryStore(),
		cfg:   cfg,
	}

	if cfg.ArchiveEnabled {
		archive, err := NewArchive(cfg)
		if err != nil {
			return nil, err // Already wrapped with appropriate error
		}
		s.archive = archive
	}

	return s, nil
}

func (s *service) AddDataPoint(source, dataType string, data, metadata map[string]any) (DataPoint, error) {
	return s.AddDataPointAt(source, dataType, data, metadata, time.Now().UTC())
}

func (s *service) AddDataPointAt(source, dataType string, data, metadata map[string]any, ts time.Time) (DataPoint, error) {
	errFactory := errors.New()

	if source == "" {
		return DataPoint{}, errFactory.New(ErrMissingSource)
	}
	if dataType == "" {
		return DataPoint{}, errFactory.New(ErrMissingType)
	}

	// Payload maps are copied on append so later producer-side mutation
	// cannot leak into the store.
	point := DataPoint{
		Source:    source,
		Type:      dataType,
		Data:      copyPayload(data),
		Timestamp: truncateMonotonic(ts),
		Metadata:  copyPayload(metadata),
	}

	s.store.append(point)

	if s.archive != nil {
		if err := s.archive.Record(point); err != nil {
			return DataPoint{}, err
		}
	}

	logger.Debug().
		Str("source", source).
		Str("type", dataType).
		Time("timestamp", point.Timestamp).
		Msg("Data point added")

	return point, nil
}

func (s *service) GetDataPoints(q Query) []DataPoint {
	return s.store.snapshot(q)
}

func (s *service) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if s.archive == nil {
		return 0, errors.New().New(ErrArchiveDisabled)
	}
	return s.archive.Prune(ctx, olderThan)
}

func (s *service) Clear() {
	s.store.clear()
	logger.Info().Msg("Cleared all data points")
}

func (s *service) Stats() Stats {
	return s.store.stats()
}

func (s *service) Close() error {
	if s.archive == nil {
		return nil
	}
	if err := s.archive.Close(); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}
	return nil
}
