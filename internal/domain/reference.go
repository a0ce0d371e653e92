package domain

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// ReferenceTable holds per-day baseline temperatures keyed by calendar date,
// by month and day, or both. Full dates take precedence.
type ReferenceTable struct {
	byDate     map[time.Time]float64
	byMonthDay map[monthDay]float64
}

// NewReferenceTable returns an empty table.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		byDate:     make(map[time.Time]float64),
		byMonthDay: make(map[monthDay]float64),
	}
}

// NewPositionalReference anchors a bare column of temperatures at start, one
// value per consecutive day.
func NewPositionalReference(start time.Time, temps []float64) *ReferenceTable {
	t := NewReferenceTable()
	start = Day(start)
	for i, v := range temps {
		t.SetDate(start.AddDate(0, 0, i), v)
	}
	return t
}

// SetDate stores the reference temperature for one calendar date.
func (t *ReferenceTable) SetDate(d time.Time, temp float64) {
	t.byDate[Day(d)] = temp
}

// SetMonthDay stores a reference temperature that repeats every year.
func (t *ReferenceTable) SetMonthDay(m time.Month, day int, temp float64) {
	t.byMonthDay[monthDay{m, day}] = temp
}

// Len is the number of entries in the table.
func (t *ReferenceTable) Len() int {
	return len(t.byDate) + len(t.byMonthDay)
}

// Lookup returns the reference temperature for d. February 29 falls back to
// February 28 for month-day entries.
func (t *ReferenceTable) Lookup(d time.Time) (float64, bool) {
	if v, ok := t.byDate[Day(d)]; ok {
		return v, true
	}
	_, m, day := d.Date()
	if v, ok := t.byMonthDay[monthDay{m, day}]; ok {
		return v, true
	}
	if m == time.February && day == 29 {
		v, ok := t.byMonthDay[monthDay{time.February, 28}]
		return v, ok
	}
	return 0, false
}

// Align joins readings to the table by date and returns one reference value
// per reading.
func (t *ReferenceTable) Align(readings []Reading) ([]float64, error) {
	out := make([]float64, len(readings))
	for i, r := range readings {
		v, ok := t.Lookup(r.Date)
		if !ok {
			return nil, &MisalignedInputError{Records: len(readings), Reference: i, Missing: Day(r.Date)}
		}
		out[i] = v
	}
	return out, nil
}
