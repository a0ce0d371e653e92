package domain

import (
	"fmt"
	"strings"
)

// PointMode selects how survey points are identified in the input table.
type PointMode string

const (
	// ModeRoute identifies points by route number and milepoint.
	ModeRoute PointMode = "route"
	// ModeSegment identifies points by segment code and measure.
	ModeSegment PointMode = "segment"
)

// ParseMode accepts the long mode names and their single-letter aliases.
func ParseMode(s string) (PointMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "route", "r":
		return ModeRoute, nil
	case "segment", "s":
		return ModeSegment, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be route or segment", s)
	}
}

// Point is a surveyed location with its own temperature series.
type Point struct {
	// GroupID is the logical id used by the rollup (milepost range id or segment code).
	GroupID string    `json:"group_id"`
	Mode    PointMode `json:"mode"`
	// Code is the route number or segment code.
	Code string `json:"code"`
	// Measure is the milepoint or segment measure, kept verbatim.
	Measure string  `json:"measure"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Label is the human-readable identification written into reports.
func (p Point) Label() string {
	if p.Mode == ModeSegment {
		return fmt.Sprintf("SegCode: %s\t Measure: %s", p.Code, p.Measure)
	}
	return fmt.Sprintf("RouteNo: %s\t MilePoint: %s", p.Code, p.Measure)
}

// Coordinates formats the point location with six decimals.
func (p Point) Coordinates() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}
