package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// breakupResult fabricates a 30-day result from Mar 20 2024 whose breakup
// fires on the given date; a zero date means no breakup.
func breakupResult(breakup time.Time) Result {
	start := date(2024, time.March, 20)
	var res Result
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		rec := DailyRecord{Date: d, Average: float64(30 + i), Status: StatusThawing}
		if !breakup.IsZero() && SameDay(d, breakup) {
			rec.Message = EventBreakupLimitsImposed.Message()
			res.Events = append(res.Events, Event{Kind: EventBreakupLimitsImposed, Date: d, Message: rec.Message})
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func TestRollup_EarliestBreakupPerGroup(t *testing.T) {
	r := NewRollup()
	r.Add(Point{GroupID: "12", Code: "A", Measure: "1.0"}, breakupResult(date(2024, time.April, 10)))
	r.Add(Point{GroupID: "12", Code: "B", Measure: "2.0"}, breakupResult(date(2024, time.April, 3)))
	r.Add(Point{GroupID: "12", Code: "C", Measure: "3.0"}, breakupResult(time.Time{}))

	entries := r.Entries()
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "12", e.GroupID)
	assert.True(t, e.BrokenUp)
	assert.Equal(t, date(2024, time.April, 3), e.Breakup.Date)
	assert.Equal(t, "B", e.Point.Code)
	require.Len(t, e.Review, ReviewDays)
	assert.Equal(t, date(2024, time.April, 3), e.Review[0].Date)
	assert.Equal(t, date(2024, time.April, 9), e.Review[ReviewDays-1].Date)
}

func TestRollup_NotBrokenUp(t *testing.T) {
	r := NewRollup()
	r.Add(Point{GroupID: "7", Code: "first"}, breakupResult(time.Time{}))
	r.Add(Point{GroupID: "7", Code: "second"}, breakupResult(time.Time{}))

	e := r.Entries()[0]
	assert.False(t, e.BrokenUp)
	assert.Equal(t, "first", e.Point.Code)
	assert.True(t, e.Breakup.Date.IsZero())
	require.Len(t, e.Review, ReviewDays)
	assert.Equal(t, date(2024, time.April, 18), e.Review[ReviewDays-1].Date)
}

func TestRollup_TieKeepsFirst(t *testing.T) {
	r := NewRollup()
	r.Add(Point{GroupID: "3", Code: "first"}, breakupResult(date(2024, time.April, 1)))
	r.Add(Point{GroupID: "3", Code: "second"}, breakupResult(date(2024, time.April, 1)))

	assert.Equal(t, "first", r.Entries()[0].Point.Code)
}

func TestRollup_ReviewTruncatedAtSeriesEnd(t *testing.T) {
	r := NewRollup()
	r.Add(Point{GroupID: "9"}, breakupResult(date(2024, time.April, 16)))

	e := r.Entries()[0]
	assert.Len(t, e.Review, 3)
}

func TestRollup_EntriesSortedByGroup(t *testing.T) {
	r := NewRollup()
	for _, id := range []string{"b", "c", "a"} {
		r.Add(Point{GroupID: id}, breakupResult(time.Time{}))
	}

	var ids []string
	for _, e := range r.Entries() {
		ids = append(ids, e.GroupID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 3, r.Len())
}

func TestRollup_EmptyResult(t *testing.T) {
	r := NewRollup()
	r.Add(Point{GroupID: "1"}, Result{})

	e := r.Entries()[0]
	assert.False(t, e.BrokenUp)
	assert.Empty(t, e.Review)
}
