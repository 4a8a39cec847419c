package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ergosense/datafuse/internal/config"
	"github.com/ergosense/datafuse/internal/engine"
	"github.com/ergosense/datafuse/internal/logger"
	"github.com/ergosense/datafuse/internal/processor"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logger.Error().Err(err).Msg("datafuse failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	eng, err := engine.NewService(engine.Config{
		ArchiveEnabled: cfg.Archive,
		ArchiveDBPath:  cfg.ArchiveDB,
		BatchSize:      cfg.BatchSize,
		BatchTimeout:   cfg.BatchTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error().Err(err).Msg("engine shutdown failed")
		}
	}()

	for _, path := range cfg.Inputs {
		count, err := eng.ImportFile(path)
		if err != nil {
			return err
		}
		logger.Info().Str("file", path).Int("points", count).Msg("Loaded collector export")
	}

	if cfg.Prune {
		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.RetentionDays)
		pruned, err := eng.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info().Int64("pruned", pruned).Msg("Retention pruning complete")
		return nil
	}

	fields := make([]processor.FieldSpec, 0, len(cfg.Fields))
	for _, m := range cfg.Fields {
		fields = append(fields, processor.FieldSpec{
			Source: m.Source,
			Type:   m.Type,
			Field:  m.Field,
		})
	}

	proc, err := processor.NewService(eng, processor.Config{
		Fields: fields,
		Window: time.Duration(cfg.WindowMillis) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	sources := cfg.Sources
	if len(sources) == 0 {
		sources = observedSources(eng)
	}
	if len(sources) == 0 {
		logger.Warn().Msg("No data points loaded and no sources configured, nothing to report")
		return nil
	}

	report, err := proc.GenerateReport(sources, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	if cfg.Report != "" {
		return proc.SaveReport(report, cfg.Report)
	}

	return proc.SaveReport(report, fmt.Sprintf("datafuse_report_%s.json",
		report.GeneratedAt.Format("20060102T150405Z")))
}

func observedSources(eng engine.Integrator) []string {
	stats := eng.Stats()
	sources := make([]string, 0, len(stats.BySource))
	for source := range stats.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
