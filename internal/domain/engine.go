package domain

import (
	"math"
	"time"
)

// Thresholds of the load-restriction schedule.
const (
	FreezingPoint       = 32.0
	WinterLoadThreshold = 280.0
	BreakupThreshold    = 25.0

	// BreakupDays is the length of the spring breakup restriction window.
	BreakupDays = 56
	// OverweightDelayDays separates normal limits from overweight permits.
	OverweightDelayDays = 14
)

// Input is one point's temperature series with its reference temperatures
// aligned by position.
type Input struct {
	Readings  []Reading
	Reference []float64
	// Year selects the July 1 and January 1 reset dates.
	Year int
}

// Compute scans the series once, in date order, and returns the annotated
// records with every transition fired along the way. It does not modify its
// input. An empty series yields an empty Result.
func Compute(in Input) (Result, error) {
	if len(in.Readings) == 0 {
		return Result{}, nil
	}
	if len(in.Reference) != len(in.Readings) {
		return Result{}, &MisalignedInputError{Records: len(in.Readings), Reference: len(in.Reference)}
	}
	if err := checkOrder(in.Readings); err != nil {
		return Result{}, err
	}
	if err := checkFinite(in); err != nil {
		return Result{}, err
	}

	s := newSeriesState(in.Year)
	records := make([]DailyRecord, len(in.Readings))
	for i, r := range in.Readings {
		rec := newDailyRecord(r, in.Reference[i])
		if i == 0 {
			s.seed(&rec)
		} else {
			s.step(&rec)
		}
		records[i] = rec
	}

	return Result{Records: records, Events: s.events, Summary: s.summary()}, nil
}

func checkOrder(readings []Reading) error {
	for i := 1; i < len(readings); i++ {
		prev, cur := Day(readings[i-1].Date), Day(readings[i].Date)
		if !cur.After(prev) {
			return &UnorderedInputError{Index: i, Previous: prev, Current: cur}
		}
	}
	return nil
}

func checkFinite(in Input) error {
	for i, r := range in.Readings {
		for _, v := range []float64{r.High, r.Low, in.Reference[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvalidReadingError{Index: i, Date: Day(r.Date)}
			}
		}
	}
	return nil
}

func newDailyRecord(r Reading, reference float64) DailyRecord {
	avg := (r.High + r.Low) / 2
	return DailyRecord{
		Date:              Day(r.Date),
		High:              r.High,
		Low:               r.Low,
		Average:           avg,
		ReferenceTemp:     reference,
		DailyThawingIndex: math.Max(0, avg-reference),
	}
}

// seriesState is the running state of a single forward scan.
type seriesState struct {
	freezeResetDate time.Time
	thawResetDate   time.Time

	prevCTI float64
	prevCFI float64

	freezingStarted       bool
	winterLoadIncreased   bool
	freezeReset           bool
	thawReset             bool
	thawingStarted        bool
	breakupImposed        bool
	breakupWindowElapsed  bool
	normalLimitsRestarted bool
	overweightStarted     bool

	breakupDate         time.Time
	breakupEndDate      time.Time
	overweightStartDate time.Time

	events []Event
}

func newSeriesState(year int) *seriesState {
	return &seriesState{
		freezeResetDate: time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
		thawResetDate:   time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seed initialises the scan from the first day. No transitions fire here, but
// a series starting on a reset date counts that reset as applied since the
// seeded values already equal the reset values.
func (s *seriesState) seed(rec *DailyRecord) {
	rec.CumulativeThawingIndex = rec.DailyThawingIndex
	rec.Status = classify(rec.DailyThawingIndex, 0)

	if SameDay(rec.Date, s.freezeResetDate) {
		s.freezeReset = true
		s.notice(EventFreezingIndexReset, rec.Date)
	}
	if SameDay(rec.Date, s.thawResetDate) {
		s.thawReset = true
		s.notice(EventThawingIndexReset, rec.Date)
	}

	s.prevCTI = rec.CumulativeThawingIndex
	s.prevCFI = 0
}

func (s *seriesState) step(rec *DailyRecord) {
	dti := rec.DailyThawingIndex
	diff := (FreezingPoint - rec.Average) / 2

	var dfi float64
	if dti == 0 && s.prevCTI > diff {
		dfi = FreezingPoint - rec.Average
	}
	rec.DailyFreezingIndex = dfi

	if !s.freezeReset && SameDay(rec.Date, s.freezeResetDate) {
		s.freezeReset = true
		rec.CumulativeFreezingIndex = 0
		s.notice(EventFreezingIndexReset, rec.Date)
	} else {
		rec.CumulativeFreezingIndex = s.prevCFI + dfi
	}

	// On the reset day accumulation restarts from zero, so only the day's own
	// contribution remains. This differs from zeroing CTI outright: a warm
	// January 1 can fire THAWING_BEGINS on the reset day itself.
	carry := s.prevCTI
	if !s.thawReset && SameDay(rec.Date, s.thawResetDate) {
		s.thawReset = true
		carry = 0
		s.notice(EventThawingIndexReset, rec.Date)
	}
	rec.CumulativeThawingIndex = math.Max(0, carry+dti-dfi/2)

	rec.Status = classify(dti, dfi)
	s.transition(rec)

	s.prevCTI = rec.CumulativeThawingIndex
	s.prevCFI = rec.CumulativeFreezingIndex
}

// transition evaluates the schedule in its fixed order. Each firing overwrites
// the day's message.
func (s *seriesState) transition(rec *DailyRecord) {
	cti, cfi := rec.CumulativeThawingIndex, rec.CumulativeFreezingIndex

	if !s.freezingStarted && rec.DailyFreezingIndex > 0 {
		s.freezingStarted = true
		s.fire(rec, EventFreezingStarted)
	}

	if !s.winterLoadIncreased && cfi > WinterLoadThreshold {
		s.winterLoadIncreased = true
		s.fire(rec, EventWinterLoadIncreased)
	}

	if !s.thawingStarted && s.thawReset && cti > 0 {
		s.thawingStarted = true
		s.fire(rec, EventThawingBegins)
	}

	if !s.breakupImposed && s.thawingStarted && cti > BreakupThreshold {
		s.breakupImposed = true
		s.breakupDate = rec.Date
		s.breakupEndDate = rec.Date.AddDate(0, 0, BreakupDays)
		s.fire(rec, EventBreakupLimitsImposed)
	}

	if s.breakupImposed && !s.breakupWindowElapsed && !rec.Date.Before(s.breakupEndDate) {
		s.breakupWindowElapsed = true
	}

	if !s.normalLimitsRestarted && s.breakupImposed && cti > BreakupThreshold && SameDay(rec.Date, s.breakupEndDate) {
		s.normalLimitsRestarted = true
		s.overweightStartDate = rec.Date.AddDate(0, 0, OverweightDelayDays)
		s.fire(rec, EventNormalLimitsRestarted)
	}

	if !s.overweightStarted && s.normalLimitsRestarted && SameDay(rec.Date, s.overweightStartDate) {
		s.overweightStarted = true
		s.fire(rec, EventOverweightPermitsBegin)
	}
}

func (s *seriesState) fire(rec *DailyRecord, kind EventKind) {
	rec.Message = kind.Message()
	s.events = append(s.events, Event{Kind: kind, Date: rec.Date, Message: rec.Message})
}

func (s *seriesState) notice(kind EventKind, date time.Time) {
	s.events = append(s.events, Event{Kind: kind, Date: date, Message: kind.Message()})
}

func (s *seriesState) summary() Summary {
	var sum Summary
	if s.breakupImposed {
		sum.BreakupImposed = timePtr(s.breakupDate)
		sum.BreakupEnd = timePtr(s.breakupEndDate)
	}
	sum.BreakupWindowElapsed = s.breakupWindowElapsed
	if s.normalLimitsRestarted {
		sum.OverweightStart = timePtr(s.overweightStartDate)
	}
	return sum
}

func classify(dti, dfi float64) RoadwayStatus {
	switch {
	case dti == 0 && dfi == 0:
		return StatusNoThaw
	case dti > 0 && dfi == 0:
		return StatusThawing
	default:
		return StatusRefreezing
	}
}

func timePtr(t time.Time) *time.Time { return &t }
