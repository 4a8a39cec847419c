package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ergosense/datafuse/internal/errors"
	"github.com/ergosense/datafuse/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// Archive persists data points continuously to SQLite. Writes are
// buffered and flushed in batches, either when the buffer reaches the
// configured size or on the batch timeout tick.
type Archive struct {
	db            *sql.DB
	cfg           Config
	mu            sync.Mutex
	buffer        []DataPoint
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewArchive(cfg Config) (*Archive, error) {
	errFactory := errors.New()

	if cfg.ArchiveDBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ArchiveDBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.ArchiveDBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.ArchiveDBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", cfg.ArchiveDBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Archive initialized")

	a := &Archive{
		db:            db,
		cfg:           cfg,
		buffer:        make([]DataPoint, 0, cfg.BatchSize),
		flushTicker:   time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	go a.flusher()

	return a, nil
}

func (a *Archive) Record(p DataPoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buffer = append(a.buffer, p)

	if len(a.buffer) >= a.cfg.BatchSize {
		return a.flush()
	}

	return nil
}

// Query reads archived points back, ordered by timestamp then insertion
// sequence. Pending buffered writes are flushed first so the result
// reflects every recorded point.
func (a *Archive) Query(ctx context.Context, q Query) ([]DataPoint, error) {
	errFactory := errors.New()

	a.mu.Lock()
	err := a.flush()
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sqlQuery := `SELECT source, type, ts_ns, data, metadata FROM data_points WHERE 1=1`
	args := []any{}

	if q.Source != "" {
		sqlQuery += " AND source = ?"
		args = append(args, q.Source)
	}
	if q.Type != "" {
		sqlQuery += " AND type = ?"
		args = append(args, q.Type)
	}
	if !q.Since.IsZero() {
		sqlQuery += " AND ts_ns >= ?"
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		sqlQuery += " AND ts_ns <= ?"
		args = append(args, q.Until.UnixNano())
	}
	sqlQuery += " ORDER BY ts_ns, seq"

	rows, err := a.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var points []DataPoint
	for rows.Next() {
		var (
			p        DataPoint
			tsNanos  int64
			data     string
			metadata sql.NullString
		)
		if err := rows.Scan(&p.Source, &p.Type, &tsNanos, &data, &metadata); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		p.Timestamp = time.Unix(0, tsNanos).UTC()
		if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &p.Metadata); err != nil {
				return nil, errFactory.Wrap(ErrStorageAccess, err)
			}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return points, nil
}

// Prune deletes archived points older than the cutoff and returns the
// number of rows removed.
func (a *Archive) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	errFactory := errors.New()

	a.mu.Lock()
	err := a.flush()
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}

	res, err := a.db.ExecContext(ctx,
		"DELETE FROM data_points WHERE ts_ns < ?", olderThan.UnixNano())
	if err != nil {
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	logger.Info().
		Int64("pruned", pruned).
		Time("older_than", olderThan).
		Msg("Pruned archived data points")

	return pruned, nil
}

func (a *Archive) Close() error {
	close(a.shutdownChan)
	a.flushTicker.Stop()
	<-a.flushDoneChan

	if _, err := a.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := a.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	logger.Info().Msg("Archive closed gracefully")

	return nil
}

func (a *Archive) flusher() {
	defer close(a.flushDoneChan)

	for {
		select {
		case <-a.flushTicker.C:
			a.mu.Lock()
			if err := a.flush(); err != nil {
				logger.Error().Err(err).Msg("Periodic archive flush failed")
			}
			a.mu.Unlock()
		case <-a.shutdownChan:
			a.mu.Lock()
			if err := a.flush(); err != nil {
				logger.Error().Err(err).Msg("Final archive flush failed")
			}
			a.mu.Unlock()
			return
		}
	}
}

// flush writes the buffered points in a single transaction. Callers must
// hold a.mu.
func (a *Archive) flush() error {
	if len(a.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := a.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertDataPointSQL)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, p := range a.buffer {
		data, err := json.Marshal(p.Data)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}

		var metadata any
		if p.Metadata != nil {
			encoded, err := json.Marshal(p.Metadata)
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
				}
				return errFactory.Wrap(ErrTransactionFailed, err)
			}
			metadata = string(encoded)
		}

		if _, err := stmt.Exec(p.Source, p.Type, p.Timestamp.UnixNano(), string(data), metadata); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Debug().Int("records", len(a.buffer)).Msg("Flushed data points to archive")
	a.buffer = a.buffer[:0]

	return nil
}
