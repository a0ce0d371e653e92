package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// Batch stages reported through ProgressReporter.
const (
	StageHistory  = "history"
	StageRecent   = "recent"
	StageForecast = "forecast"
	StageCompute  = "compute"
	StageLoad     = "load"
	StageRollup   = "rollup"
	StageDone     = "done"
)

// ProgressEvent describes where a batch is.
type ProgressEvent struct {
	RunID string
	Stage string
	Point domain.Point
	// Index is zero-based; Total is the number of points in the batch.
	Index int
	Total int
}

// ProgressReporter receives progress updates from the builder and runner.
type ProgressReporter interface {
	Report(ProgressEvent)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) Report(e ProgressEvent) { f(e) }

// LogProgress writes progress at debug level.
func LogProgress(logger *slog.Logger) ProgressReporter {
	return ProgressFunc(func(e ProgressEvent) {
		logger.Debug("batch progress",
			"run_id", e.RunID,
			"stage", e.Stage,
			"point", e.Point.Label(),
			"index", e.Index+1,
			"total", e.Total,
		)
	})
}

type discardProgress struct{}

func (discardProgress) Report(ProgressEvent) {}
