package domain

import (
	"fmt"
	"time"
)

// MisalignedInputError reports a reference series that does not line up with
// the temperature series.
type MisalignedInputError struct {
	Records   int
	Reference int
	// Missing is the first date without a reference temperature when the
	// series was joined by date.
	Missing time.Time
}

func (e *MisalignedInputError) Error() string {
	if !e.Missing.IsZero() {
		return fmt.Sprintf("misaligned input: no reference temperature for %s", e.Missing.Format(time.DateOnly))
	}
	return fmt.Sprintf("misaligned input: %d records but %d reference temperatures", e.Records, e.Reference)
}

// UnorderedInputError reports a date that is not strictly after its predecessor.
type UnorderedInputError struct {
	Index    int
	Previous time.Time
	Current  time.Time
}

func (e *UnorderedInputError) Error() string {
	return fmt.Sprintf("unordered input: record %d (%s) does not follow %s",
		e.Index, e.Current.Format(time.DateOnly), e.Previous.Format(time.DateOnly))
}

// InvalidReadingError reports a NaN or infinite temperature.
type InvalidReadingError struct {
	Index int
	Date  time.Time
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid input: record %d (%s) has a non-finite temperature", e.Index, e.Date.Format(time.DateOnly))
}

// UpstreamFetchError wraps a failure from an external temperature source.
type UpstreamFetchError struct {
	Source string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream fetch %s: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }
