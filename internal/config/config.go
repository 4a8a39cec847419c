package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ergosense/datafuse/internal/errors"
)

const (
	DefaultLogLevel     = "info"
	DefaultWindowMillis = 500
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 5
	DefaultRetention    = 30
	defaultArchiveDB    = "/var/lib/datafuse/archive.db"
)

// FieldMapping binds a (source, type) pair to the payload field the
// processor extracts numeric values from.
type FieldMapping struct {
	Source string `mapstructure:"source"`
	Type   string `mapstructure:"type"`
	Field  string `mapstructure:"field"`
}

type Config struct {
	LogLevel      string         `mapstructure:"log_level"`
	Archive       bool           `mapstructure:"archive"`
	ArchiveDB     string         `mapstructure:"archive_db"`
	BatchSize     int            `mapstructure:"batch_size"`
	BatchTimeout  int            `mapstructure:"batch_timeout"`
	WindowMillis  int            `mapstructure:"window_ms"`
	RetentionDays int            `mapstructure:"retention_days"`
	Sources       []string       `mapstructure:"sources"`
	Fields        []FieldMapping `mapstructure:"fields"`
	Report        string         `mapstructure:"report"`
	Prune         bool           `mapstructure:"prune"`

	// Inputs are the positional arguments: collector export files to
	// load before analysis.
	Inputs []string `mapstructure:"-"`
}

// Load reads configuration from flags, the DATAFUSE_CONFIG file (or
// /etc/datafuse.toml) and DATAFUSE_* environment variables, in that
// order of precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("datafuse", pflag.ContinueOnError)
	flags.String("config", "", "Path to configuration file")
	flags.String("log-level", "", "Log level (debug, info, warning, error)")
	flags.Int("window-ms", 0, "Correlation time window in milliseconds")
	flags.String("report", "", "Write the generated report to this file")
	flags.Bool("prune", false, "Prune archived data older than the retention period and exit")
	flags.Bool("archive", false, "Enable the SQLite archive")
	flags.String("archive-db", "", "Path to the archive database")
	flags.ParseErrorsWhitelist.UnknownFlags = true

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("archive", false)
	v.SetDefault("archive_db", defaultArchiveDB)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("batch_timeout", DefaultBatchTimeout)
	v.SetDefault("window_ms", DefaultWindowMillis)
	v.SetDefault("retention_days", DefaultRetention)

	v.SetEnvPrefix("DATAFUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("DATAFUSE_CONFIG")
	if flagPath, err := flags.GetString("config"); err == nil && flagPath != "" {
		configPath = flagPath
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.WithMessage(errors.ErrReadConfig,
				"Failed to read config file").WithData(err.Error())
		}
	} else {
		v.SetConfigName("datafuse")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.WithMessage(errors.ErrReadConfig,
					"Failed to read config file").WithData(err.Error())
			}
		}
	}

	// Command line flags override file and environment values
	bindFlag(v, flags, "log-level", "log_level")
	bindFlag(v, flags, "window-ms", "window_ms")
	bindFlag(v, flags, "report", "report")
	bindFlag(v, flags, "prune", "prune")
	bindFlag(v, flags, "archive", "archive")
	bindFlag(v, flags, "archive-db", "archive_db")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Inputs = flags.Args()

	return config, nil
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, flagName, key string) {
	if f := flags.Lookup(flagName); f != nil && f.Changed {
		v.Set(key, f.Value.String())
	}
}

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "warn", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.WindowMillis <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			"window_ms must be positive").WithData(c.WindowMillis)
	}

	if c.Archive {
		if c.ArchiveDB == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig,
				"archive_db must be set when the archive is enabled")
		}
		if c.BatchSize <= 0 || c.BatchTimeout <= 0 {
			return errFactory.WithMessage(errors.ErrInvalidConfig,
				"batch_size and batch_timeout must be positive")
		}
	}

	if c.RetentionDays <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			"retention_days must be positive").WithData(c.RetentionDays)
	}

	for _, m := range c.Fields {
		if m.Source == "" || m.Type == "" || m.Field == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig,
				"field mappings require source, type and field").WithData(m)
		}
	}

	return nil
}
