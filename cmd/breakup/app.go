package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/breakup-etl/internal/adapter/history"
	"github.com/couchcryptid/breakup-etl/internal/adapter/input"
	kafkaadapter "github.com/couchcryptid/breakup-etl/internal/adapter/kafka"
	"github.com/couchcryptid/breakup-etl/internal/adapter/nws"
	"github.com/couchcryptid/breakup-etl/internal/adapter/report"
	"github.com/couchcryptid/breakup-etl/internal/adapter/stations"
	"github.com/couchcryptid/breakup-etl/internal/adapter/vaisala"
	"github.com/couchcryptid/breakup-etl/internal/config"
	"github.com/couchcryptid/breakup-etl/internal/domain"
	"github.com/couchcryptid/breakup-etl/internal/observability"
	"github.com/couchcryptid/breakup-etl/internal/pipeline"
)

// app owns everything a batch needs and the resources to release afterwards.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  *pipeline.Runner
	store   *history.Store
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*app, error) {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	a := &app{cfg: cfg, logger: logger}

	store, err := history.Open(ctx, cfg.HistoryDBDriver, cfg.HistoryDBDSN)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	locator := stations.NewLocator(store, cfg.HistoryRadiusMiles, cfg.HistoryMaxStations, cfg.StationCacheSize, metrics)

	var recent, forecast pipeline.TemperatureSource
	if cfg.VaisalaURL != "" {
		recent = vaisala.NewClient(cfg.VaisalaURL, cfg.VaisalaUsername, cfg.VaisalaPassword, cfg.VaisalaTimeout, locator, cfg.IDWPower, logger)
		logger.Info("vaisala recent readings enabled", "url", cfg.VaisalaURL)
	} else {
		logger.Info("vaisala recent readings disabled")
	}
	if cfg.ForecastEnabled {
		forecast = nws.NewClient(cfg.ForecastBaseURL, cfg.ForecastUserAgent, cfg.ForecastTimeout, logger)
		logger.Info("forecast enabled", "days", cfg.ForecastDays)
	}

	builder := pipeline.NewBuilder(
		history.NewSource(store, locator, cfg.IDWPower, logger),
		recent, forecast,
		pipeline.BuilderConfig{Retries: cfg.FetchRetries},
		logger, metrics,
	)

	season := domain.CurrentSeason(cfg.ForecastDays, cfg.TargetYear)
	reference, err := input.LoadReference(cfg.ReferenceTempFile, season.Start)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("reference temperatures loaded", "path", cfg.ReferenceTempFile, "days", reference.Len())

	loader := pipeline.MultiLoader{report.NewWriter(cfg.OutputDir, cfg.RollupFile, logger)}
	if cfg.KafkaEnabled {
		producer := kafkaadapter.NewWriter(cfg, metrics, logger)
		a.closers = append(a.closers, producer.Close)
		loader = append(loader, producer)
		logger.Info("kafka summaries enabled", "topic", cfg.KafkaTopic)
	}

	a.runner = pipeline.New(builder, pipeline.NewAnalyzer(reference), loader, logger, metrics, pipeline.Options{
		ForecastDays: cfg.ForecastDays,
		TargetYear:   cfg.TargetYear,
		Progress:     pipeline.LogProgress(logger),
	})
	return a, nil
}

// runFile loads the point file and runs one batch over it.
func (a *app) runFile(ctx context.Context, path string, mode domain.PointMode) (pipeline.Report, error) {
	points, err := input.LoadPoints(path, mode)
	if err != nil {
		return pipeline.Report{}, err
	}
	a.logger.Info("points loaded", "path", path, "mode", mode, "count", len(points))
	return a.runner.Run(ctx, points)
}

// CheckReadiness requires a reachable history store and one completed batch.
func (a *app) CheckReadiness(ctx context.Context) error {
	if err := a.store.CheckReadiness(ctx); err != nil {
		return fmt.Errorf("history store: %w", err)
	}
	return a.runner.CheckReadiness(ctx)
}

func (a *app) Latest() *pipeline.Report {
	return a.runner.Latest()
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
