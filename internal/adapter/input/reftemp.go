package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// LoadReference reads the reference temperature file at path. See
// ReadReference for the accepted layouts.
func LoadReference(path string, seasonStart time.Time) (*domain.ReferenceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference temperatures: %w", err)
	}
	defer f.Close()
	return ReadReference(f, seasonStart)
}

// ReadReference parses reference temperatures. Rows are either a bare value,
// taken positionally from seasonStart, or a key and value where the key is
// MM-DD (every year) or YYYY-MM-DD. A non-numeric first row is a header.
func ReadReference(r io.Reader, seasonStart time.Time) (*domain.ReferenceTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	table := domain.NewReferenceTable()
	var positional []float64

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read reference line %d: %w", line, err)
		}

		raw := strings.TrimSpace(rec[len(rec)-1])
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("reference line %d: invalid temperature %q", line, raw)
		}

		if len(rec) == 1 {
			positional = append(positional, temp)
			continue
		}
		if err := setKeyed(table, strings.TrimSpace(rec[0]), temp); err != nil {
			return nil, fmt.Errorf("reference line %d: %w", line, err)
		}
	}

	start := domain.Day(seasonStart)
	for i, v := range positional {
		table.SetDate(start.AddDate(0, 0, i), v)
	}
	return table, nil
}

func setKeyed(table *domain.ReferenceTable, key string, temp float64) error {
	if d, err := time.Parse(time.DateOnly, key); err == nil {
		table.SetDate(d, temp)
		return nil
	}
	md, err := time.Parse("01-02", key)
	if err != nil {
		return fmt.Errorf("invalid date %q: want MM-DD or YYYY-MM-DD", key)
	}
	table.SetMonthDay(md.Month(), md.Day(), temp)
	return nil
}
