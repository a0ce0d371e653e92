package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// ReferenceAligner supplies the reference temperature for each reading.
type ReferenceAligner interface {
	Align(readings []domain.Reading) ([]float64, error)
}

// IndexAnalyzer joins a series with its reference temperatures and runs the
// freeze/thaw engine over it.
type IndexAnalyzer struct {
	reference ReferenceAligner
}

// NewAnalyzer creates an IndexAnalyzer over the given reference table.
func NewAnalyzer(reference ReferenceAligner) *IndexAnalyzer {
	return &IndexAnalyzer{reference: reference}
}

func (a *IndexAnalyzer) Analyze(_ context.Context, readings []domain.Reading, year int) (domain.Result, error) {
	ref, err := a.reference.Align(readings)
	if err != nil {
		return domain.Result{}, fmt.Errorf("align reference temperatures: %w", err)
	}
	return domain.Compute(domain.Input{Readings: readings, Reference: ref, Year: year})
}
