package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/breakup-etl/internal/domain"
	"github.com/couchcryptid/breakup-etl/internal/observability"
)

var errLoadPoint = errors.New("load point")

// SeriesBuilder produces the ordered temperature series for one point.
type SeriesBuilder interface {
	Build(ctx context.Context, p domain.Point, season domain.Season, progress ProgressReporter) ([]domain.Reading, error)
}

// Analyzer runs the freeze/thaw engine over a built series.
type Analyzer interface {
	Analyze(ctx context.Context, readings []domain.Reading, year int) (domain.Result, error)
}

// Loader writes per-point output and the final rollup.
type Loader interface {
	LoadPoint(ctx context.Context, out domain.PointOutput) error
	LoadRollup(ctx context.Context, runID string, entries []domain.RollupEntry) error
}

// Options configures a Runner.
type Options struct {
	ForecastDays int
	// TargetYear overrides the year derived from the run date when positive.
	TargetYear int
	Progress   ProgressReporter
}

// Report summarises a finished batch.
type Report struct {
	RunID     string               `json:"run_id"`
	Season    domain.Season        `json:"season"`
	Started   time.Time            `json:"started"`
	Finished  time.Time            `json:"finished"`
	Points    int                  `json:"points"`
	Processed int                  `json:"processed"`
	Failed    int                  `json:"failed"`
	Rollup    []domain.RollupEntry `json:"rollup"`
}

// Runner scans a batch of points one at a time: build, analyze, load. A
// failing point is logged and skipped; cancellation stops the batch between
// points.
type Runner struct {
	builder  SeriesBuilder
	analyzer Analyzer
	loader   Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
	ready    atomic.Bool
	running  atomic.Bool
	latest   atomic.Pointer[Report]
}

// New creates a Runner with the given stages and observability.
func New(b SeriesBuilder, a Analyzer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Runner {
	if opts.Progress == nil {
		opts.Progress = discardProgress{}
	}
	return &Runner{
		builder:  b,
		analyzer: a,
		loader:   l,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// CheckReadiness returns nil once a batch has completed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no batch has completed yet")
	}
	return nil
}

// Latest returns the report of the most recent completed batch, or nil.
func (r *Runner) Latest() *Report {
	return r.latest.Load()
}

// Run processes every point in order. It returns a *CancelledError if ctx is
// done before the batch finishes; per-point failures are logged and counted
// in the report instead.
func (r *Runner) Run(ctx context.Context, points []domain.Point) (Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, errors.New("a batch is already running")
	}
	defer r.running.Store(false)

	season := domain.CurrentSeason(r.opts.ForecastDays, r.opts.TargetYear)
	report := Report{
		RunID:   uuid.NewString(),
		Season:  season,
		Started: time.Now(),
		Points:  len(points),
	}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("batch started",
		"points", len(points),
		"season_start", season.Start.Format(time.DateOnly),
		"season_end", season.End.Format(time.DateOnly),
		"target_year", season.TargetYear,
	)

	r.metrics.BatchRunning.Set(1)
	defer r.metrics.BatchRunning.Set(0)

	rollup := domain.NewRollup()
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return r.cancel(logger, report, i, err)
		}

		progress := r.pointProgress(report.RunID, i, len(points))
		res, err := r.processPoint(ctx, p, season, report.RunID, progress)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.cancel(logger, report, i, ctxErr)
			}
			report.Failed++
			r.metrics.PointFailures.WithLabelValues(failureReason(err)).Inc()
			logger.Warn("point failed, skipping",
				"point_id", p.GroupID,
				"label", p.Label(),
				"lat", p.Lat,
				"lon", p.Lon,
				"error", err,
			)
			continue
		}

		report.Processed++
		r.metrics.PointsProcessed.Inc()
		if res.Summary.BreakupImposed != nil {
			r.metrics.BreakupsFound.Inc()
		}
		rollup.Add(p, res)
	}

	r.opts.Progress.Report(ProgressEvent{RunID: report.RunID, Stage: StageRollup, Index: len(points), Total: len(points)})
	report.Rollup = rollup.Entries()
	if err := r.loader.LoadRollup(ctx, report.RunID, report.Rollup); err != nil {
		logger.Error("load rollup failed", "groups", len(report.Rollup), "error", err)
	}

	report.Finished = time.Now()
	r.metrics.BatchDuration.Observe(report.Finished.Sub(report.Started).Seconds())
	r.metrics.BatchesTotal.WithLabelValues("completed").Inc()
	r.latest.Store(&report)
	r.ready.Store(true)
	r.opts.Progress.Report(ProgressEvent{RunID: report.RunID, Stage: StageDone, Index: len(points), Total: len(points)})

	logger.Info("batch finished",
		"processed", report.Processed,
		"failed", report.Failed,
		"groups", len(report.Rollup),
		"duration", report.Finished.Sub(report.Started),
	)
	return report, nil
}

func (r *Runner) processPoint(ctx context.Context, p domain.Point, season domain.Season, runID string, progress ProgressReporter) (domain.Result, error) {
	readings, err := r.builder.Build(ctx, p, season, progress)
	if err != nil {
		return domain.Result{}, fmt.Errorf("build series: %w", err)
	}

	progress.Report(ProgressEvent{Stage: StageCompute, Point: p})
	res, err := r.analyzer.Analyze(ctx, readings, season.TargetYear)
	if err != nil {
		return domain.Result{}, fmt.Errorf("compute indices: %w", err)
	}

	progress.Report(ProgressEvent{Stage: StageLoad, Point: p})
	out := domain.PointOutput{RunID: runID, Point: p, CreatedAt: season.Today, Result: res}
	if err := r.loader.LoadPoint(ctx, out); err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", errLoadPoint, err)
	}
	return res, nil
}

// cancel records a batch stopped before point i. Outputs already written stay
// in place; the rollup is not written.
func (r *Runner) cancel(logger *slog.Logger, report Report, i int, cause error) (Report, error) {
	report.Finished = time.Now()
	r.metrics.BatchesTotal.WithLabelValues("cancelled").Inc()
	logger.Warn("batch cancelled",
		"processed", report.Processed,
		"failed", report.Failed,
		"remaining", report.Points-i,
		"reason", cause,
	)
	return report, &CancelledError{Processed: i, Remaining: report.Points - i, Cause: cause}
}

func (r *Runner) pointProgress(runID string, index, total int) ProgressReporter {
	return ProgressFunc(func(e ProgressEvent) {
		e.RunID = runID
		e.Index = index
		e.Total = total
		r.opts.Progress.Report(e)
	})
}

func failureReason(err error) string {
	var (
		misaligned *domain.MisalignedInputError
		unordered  *domain.UnorderedInputError
		upstream   *domain.UpstreamFetchError
		invalid    *domain.InvalidReadingError
	)
	switch {
	case errors.As(err, &misaligned):
		return "misaligned"
	case errors.As(err, &unordered):
		return "unordered"
	case errors.As(err, &invalid):
		return "invalid"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.Is(err, errLoadPoint):
		return "load"
	default:
		return "other"
	}
}
