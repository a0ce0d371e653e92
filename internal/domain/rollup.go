package domain

import (
	"cmp"
	"slices"
)

// ReviewDays is the number of days surfaced per group for operator review.
const ReviewDays = 7

// RollupEntry is the selected point for one group.
type RollupEntry struct {
	GroupID  string `json:"group_id"`
	Point    Point  `json:"point"`
	BrokenUp bool   `json:"broken_up"`
	// Breakup is the breakup-imposed day. Zero when BrokenUp is false.
	Breakup ReducedRecord `json:"breakup"`
	// Review is the seven days from the breakup date, or the final seven
	// scanned days when the group has not broken up.
	Review []ReducedRecord `json:"review"`
}

// Rollup keeps the earliest breakup per group across points. It is
// append-only and not safe for concurrent use.
type Rollup struct {
	entries map[string]*RollupEntry
}

// NewRollup returns an empty rollup.
func NewRollup() *Rollup {
	return &Rollup{entries: make(map[string]*RollupEntry)}
}

// Add offers a point's result to its group. A strictly earlier breakup
// replaces the current selection; ties keep the point added first.
func (r *Rollup) Add(p Point, res Result) {
	candidate := newRollupEntry(p, res)
	current, ok := r.entries[p.GroupID]
	if !ok {
		r.entries[p.GroupID] = candidate
		return
	}
	if !candidate.BrokenUp {
		return
	}
	if !current.BrokenUp || candidate.Breakup.Date.Before(current.Breakup.Date) {
		r.entries[p.GroupID] = candidate
	}
}

// Len is the number of groups seen.
func (r *Rollup) Len() int { return len(r.entries) }

// Entries returns the selections ordered by group id.
func (r *Rollup) Entries() []RollupEntry {
	out := make([]RollupEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b RollupEntry) int { return cmp.Compare(a.GroupID, b.GroupID) })
	return out
}

func newRollupEntry(p Point, res Result) *RollupEntry {
	e := &RollupEntry{GroupID: p.GroupID, Point: p}
	reduced := res.Reduced()

	if ev, ok := res.Event(EventBreakupLimitsImposed); ok {
		if i := res.IndexOf(ev.Date); i >= 0 {
			e.BrokenUp = true
			e.Breakup = reduced[i]
			e.Review = reduced[i:min(i+ReviewDays, len(reduced))]
			return e
		}
	}

	e.Review = reduced[max(0, len(reduced)-ReviewDays):]
	return e
}
