package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// MultiLoader fans output out to several sinks. Every sink is attempted; the
// errors are joined.
type MultiLoader []Loader

func (m MultiLoader) LoadPoint(ctx context.Context, out domain.PointOutput) error {
	var errs []error
	for _, l := range m {
		if err := l.LoadPoint(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiLoader) LoadRollup(ctx context.Context, runID string, entries []domain.RollupEntry) error {
	var errs []error
	for _, l := range m {
		if err := l.LoadRollup(ctx, runID, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
