package engine

import "github.com/ergosense/datafuse/internal/errors"

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
	defaultDBPath   = "/var/lib/datafuse/archive.db"
)

type Config struct {
	// ArchiveEnabled turns on continuous persistence of every appended
	// point to a SQLite database.
	ArchiveEnabled bool
	ArchiveDBPath  string
	// BatchSize is the number of buffered points that triggers a flush.
	BatchSize int
	// BatchTimeout is the flush interval in seconds.
	BatchTimeout int
}

func DefaultConfig() Config {
	return Config{
		ArchiveEnabled: false,
		ArchiveDBPath:  defaultDBPath,
		BatchSize:      100,
		BatchTimeout:   5,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.ArchiveEnabled {
		return nil
	}
	if c.ArchiveDBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize <= 0 || c.BatchTimeout <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{c.BatchSize, c.BatchTimeout})
	}

	return nil
}
