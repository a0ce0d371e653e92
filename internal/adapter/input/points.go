// Package input reads the batch inputs: the survey point table and the
// reference temperature file.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// pointColumns names the columns read in each mode.
type pointColumns struct {
	group, code, measure, lat, lon string
}

var columnsByMode = map[domain.PointMode]pointColumns{
	domain.ModeRoute:   {group: "id", code: "ROUTE", measure: "MILEPOINTER", lat: "LAT", lon: "LON"},
	domain.ModeSegment: {group: "SegCode", code: "SegCode", measure: "Measure", lat: "lat", lon: "lon"},
}

// LoadPoints reads the point table at path.
func LoadPoints(path string, mode domain.PointMode) ([]domain.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open points: %w", err)
	}
	defer f.Close()
	return ReadPoints(f, mode)
}

// ReadPoints parses a CSV point table with a header row. Column names are
// matched case-insensitively.
func ReadPoints(r io.Reader, mode domain.PointMode) ([]domain.Point, error) {
	cols, ok := columnsByMode[mode]
	if !ok {
		return nil, fmt.Errorf("unknown point mode %q", mode)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read points header: %w", err)
	}
	index, err := headerIndex(header, cols.group, cols.code, cols.measure, cols.lat, cols.lon)
	if err != nil {
		return nil, err
	}

	var out []domain.Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read points line %d: %w", line, err)
		}

		field := func(name string) string {
			if i := index[strings.ToLower(name)]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		lat, err := strconv.ParseFloat(field(cols.lat), 64)
		if err != nil {
			return nil, fmt.Errorf("points line %d: invalid %s %q", line, cols.lat, field(cols.lat))
		}
		lon, err := strconv.ParseFloat(field(cols.lon), 64)
		if err != nil {
			return nil, fmt.Errorf("points line %d: invalid %s %q", line, cols.lon, field(cols.lon))
		}

		out = append(out, domain.Point{
			GroupID: field(cols.group),
			Mode:    mode,
			Code:    field(cols.code),
			Measure: field(cols.measure),
			Lat:     lat,
			Lon:     lon,
		})
	}
}

func headerIndex(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, name := range required {
		if _, ok := index[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("points header missing column %q", name)
		}
	}
	return index, nil
}
