package domain

import "time"

// RoadwayStatus classifies a day by the sign of its daily indices.
type RoadwayStatus string

const (
	StatusNoThaw     RoadwayStatus = "NO_THAW"
	StatusThawing    RoadwayStatus = "THAWING"
	StatusRefreezing RoadwayStatus = "REFREEZING"
)

// EventKind identifies a transition in the load-restriction schedule.
type EventKind string

const (
	EventFreezingStarted        EventKind = "FREEZING_STARTED"
	EventWinterLoadIncreased    EventKind = "WINTER_LOAD_INCREASED"
	EventThawingBegins          EventKind = "THAWING_BEGINS"
	EventBreakupLimitsImposed   EventKind = "BREAKUP_LIMITS_IMPOSED"
	EventNormalLimitsRestarted  EventKind = "NORMAL_LIMITS_RESTARTED"
	EventOverweightPermitsBegin EventKind = "OVERWEIGHT_PERMITS_BEGIN"

	// Index resets are reported as events but never written to a day's message.
	EventFreezingIndexReset EventKind = "FREEZING_INDEX_RESET"
	EventThawingIndexReset  EventKind = "THAWING_INDEX_RESET"
)

var eventMessages = map[EventKind]string{
	EventFreezingStarted:        "FREEZING STARTED",
	EventWinterLoadIncreased:    "WINTER LOAD INCREASED",
	EventThawingBegins:          "THAWING BEGINS: RESCIND WINTER LOAD INCREASES",
	EventBreakupLimitsImposed:   "CUMULATIVE THAWING INDEX > 25: IMPOSE BREAKUP LIMITS",
	EventNormalLimitsRestarted:  "CTI > 25 + 8-WEEKS: RESCIND SPRING BREAKUP LIMITS; BEGIN NORMAL WEIGHT LIMITS",
	EventOverweightPermitsBegin: "NORMAL WEIGHT LIMITS + 2 WEEKS: BEGIN OVERWEIGHT PERMITS",
	EventFreezingIndexReset:     "CUMULATIVE FREEZING INDEX RESET",
	EventThawingIndexReset:      "CUMULATIVE THAWING INDEX RESET",
}

// Message returns the operator-facing label for the event kind.
func (k EventKind) Message() string {
	return eventMessages[k]
}

// Reading is one day of interpolated or forecast temperatures in °F.
type Reading struct {
	Date time.Time `json:"date"`
	High float64   `json:"high"`
	Low  float64   `json:"low"`
}

// DailyRecord is a Reading annotated with the freeze/thaw indices for that day.
type DailyRecord struct {
	Date          time.Time `json:"date"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Average       float64   `json:"average"`
	ReferenceTemp float64   `json:"reference_temp"`

	DailyThawingIndex       float64       `json:"daily_thawing_index"`
	DailyFreezingIndex      float64       `json:"daily_freezing_index"`
	CumulativeThawingIndex  float64       `json:"cumulative_thawing_index"`
	CumulativeFreezingIndex float64       `json:"cumulative_freezing_index"`
	Status                  RoadwayStatus `json:"roadway_status"`
	Message                 string        `json:"message,omitempty"`
}

// ReducedRecord is the projection consumed by reports.
type ReducedRecord struct {
	Date    time.Time     `json:"date"`
	Average float64       `json:"average"`
	Status  RoadwayStatus `json:"roadway_status"`
	Message string        `json:"message,omitempty"`
}

// Event is a single fired transition.
type Event struct {
	Kind    EventKind `json:"kind"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// Summary holds the dates derived from the breakup transitions. Nil means the
// transition did not fire inside the scanned window.
type Summary struct {
	BreakupImposed  *time.Time `json:"breakup_imposed,omitempty"`
	BreakupEnd      *time.Time `json:"breakup_end,omitempty"`
	OverweightStart *time.Time `json:"overweight_start,omitempty"`
	// BreakupWindowElapsed is set once the scan reaches BreakupEnd.
	BreakupWindowElapsed bool `json:"breakup_window_elapsed"`
}

// Result is the annotated series and the events fired while scanning it.
type Result struct {
	Records []DailyRecord `json:"records"`
	Events  []Event       `json:"events"`
	Summary Summary       `json:"summary"`
}

// Reduced projects the annotated series onto (date, average, status, message).
func (r Result) Reduced() []ReducedRecord {
	out := make([]ReducedRecord, len(r.Records))
	for i := range r.Records {
		out[i] = r.Records[i].Reduced()
	}
	return out
}

// Reduced projects a single record.
func (d DailyRecord) Reduced() ReducedRecord {
	return ReducedRecord{Date: d.Date, Average: d.Average, Status: d.Status, Message: d.Message}
}

// Event returns the first event of the given kind.
func (r Result) Event(kind EventKind) (Event, bool) {
	for _, e := range r.Events {
		if e.Kind == kind {
			return e, true
		}
	}
	return Event{}, false
}

// IndexOf returns the position of the record dated d, or -1.
func (r Result) IndexOf(d time.Time) int {
	for i := range r.Records {
		if SameDay(r.Records[i].Date, d) {
			return i
		}
	}
	return -1
}

// PointOutput is everything the sinks need about one scanned point.
type PointOutput struct {
	RunID     string    `json:"run_id"`
	Point     Point     `json:"point"`
	CreatedAt time.Time `json:"created_at"`
	Result    Result    `json:"result"`
}
