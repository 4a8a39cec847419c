package processor

import (
	"time"

	"github.com/ergosense/datafuse/internal/errors"
)

const defaultWindow = 500 * time.Millisecond

// FieldSpec binds a (source, type) pair to the payload field numeric
// values are extracted from. The registry is explicit: the processor
// never guesses payload keys.
type FieldSpec struct {
	Source string
	Type   string
	Field  string
}

type Config struct {
	// Fields is the extraction registry. The first entry for a source is
	// that source's default type for reports.
	Fields []FieldSpec
	// Window is the pairing tolerance used for report correlations.
	Window time.Duration
}

func DefaultConfig() Config {
	return Config{
		Window: defaultWindow,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Window <= 0 {
		return errFactory.WithData(ErrInvalidWindow, c.Window.String())
	}
	for _, f := range c.Fields {
		if f.Source == "" || f.Type == "" || f.Field == "" {
			return errFactory.WithData(ErrInvalidConfig, f)
		}
	}

	return nil
}

// fieldFor returns the extraction field configured for (source, type).
func (c Config) fieldFor(source, dataType string) (string, bool) {
	for _, f := range c.Fields {
		if f.Source == source && f.Type == dataType {
			return f.Field, true
		}
	}
	return "", false
}

// defaultFor returns the first registered spec for a source.
func (c Config) defaultFor(source string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Source == source {
			return f, true
		}
	}
	return FieldSpec{}, false
}
