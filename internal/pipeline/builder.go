package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/breakup-etl/internal/domain"
	"github.com/couchcryptid/breakup-etl/internal/observability"
)

// TemperatureSource returns daily highs and lows for a point over [from, to].
type TemperatureSource interface {
	Name() string
	Fetch(ctx context.Context, p domain.Point, from, to time.Time) ([]domain.Reading, error)
}

// BuilderConfig tunes source retries.
type BuilderConfig struct {
	Retries     int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Builder assembles a point's series from station history, recent readings,
// and the short-range forecast, in that precedence. History is required;
// the other two are best effort and may be nil.
type Builder struct {
	history  TemperatureSource
	recent   TemperatureSource
	forecast TemperatureSource
	cfg      BuilderConfig
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewBuilder creates a Builder. recent and forecast may be nil to disable them.
func NewBuilder(history, recent, forecast TemperatureSource, cfg BuilderConfig, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Builder{
		history:  history,
		recent:   recent,
		forecast: forecast,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Build returns the merged series for p over the season window.
func (b *Builder) Build(ctx context.Context, p domain.Point, season domain.Season, progress ProgressReporter) ([]domain.Reading, error) {
	progress.Report(ProgressEvent{Stage: StageHistory, Point: p})
	history, err := b.fetch(ctx, b.history, p, season.Start, season.Today)
	if err != nil {
		return nil, err
	}

	parts := [][]domain.Reading{history}

	if b.recent != nil {
		from := season.Start
		if n := len(history); n > 0 {
			from = domain.Day(history[n-1].Date).AddDate(0, 0, 1)
		}
		if !from.After(season.Today) {
			progress.Report(ProgressEvent{Stage: StageRecent, Point: p})
			recent, err := b.fetch(ctx, b.recent, p, from, season.Today)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				b.logger.Warn("recent readings unavailable, continuing without them",
					"point", p.Label(), "error", err)
			}
			parts = append(parts, recent)
		}
	}

	if b.forecast != nil && season.End.After(season.Today) {
		progress.Report(ProgressEvent{Stage: StageForecast, Point: p})
		forecast, err := b.fetch(ctx, b.forecast, p, season.Today.AddDate(0, 0, 1), season.End)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("forecast unavailable, continuing without it",
				"point", p.Label(), "error", err)
		}
		parts = append(parts, forecast)
	}

	return mergeSeries(season.Start, season.End, parts...), nil
}

// fetch calls src with exponential backoff, wrapping the final failure in
// an UpstreamFetchError.
func (b *Builder) fetch(ctx context.Context, src TemperatureSource, p domain.Point, from, to time.Time) ([]domain.Reading, error) {
	backoff := b.cfg.BaseBackoff
	var lastErr error
	for attempt := 0; attempt <= b.cfg.Retries; attempt++ {
		start := time.Now()
		readings, err := src.Fetch(ctx, p, from, to)
		b.metrics.FetchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			return readings, nil
		}
		lastErr = err
		b.metrics.FetchErrors.WithLabelValues(src.Name()).Inc()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == b.cfg.Retries {
			break
		}
		b.logger.Debug("fetch failed, retrying",
			"source", src.Name(), "attempt", attempt+1, "backoff", backoff, "error", err)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = sharedretry.NextBackoff(backoff, b.cfg.MaxBackoff)
	}

	var upstream *domain.UpstreamFetchError
	if errors.As(lastErr, &upstream) {
		return nil, lastErr
	}
	return nil, &domain.UpstreamFetchError{Source: src.Name(), Err: lastErr}
}

// mergeSeries concatenates parts, keeps the first reading seen for each
// date, drops days outside [from, to], and sorts ascending.
func mergeSeries(from, to time.Time, parts ...[]domain.Reading) []domain.Reading {
	seen := make(map[time.Time]bool)
	var out []domain.Reading
	for _, part := range parts {
		for _, r := range part {
			d := domain.Day(r.Date)
			if d.Before(from) || d.After(to) || seen[d] {
				continue
			}
			seen[d] = true
			r.Date = d
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Reading) int { return a.Date.Compare(b.Date) })
	return out
}
