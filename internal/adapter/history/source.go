package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/breakup-etl/internal/adapter/stations"
	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// Locator finds the stations around a point.
type Locator interface {
	Nearest(ctx context.Context, lat, lon float64) ([]stations.Neighbor, error)
}

// Source interpolates station history onto a point.
type Source struct {
	store   *Store
	locator Locator
	power   float64
	logger  *slog.Logger
}

// NewSource creates a history Source with the given IDW power.
func NewSource(store *Store, locator Locator, power float64, logger *slog.Logger) *Source {
	return &Source{store: store, locator: locator, power: power, logger: logger}
}

func (s *Source) Name() string { return "history" }

// Fetch returns one reading per day in [from, to] with data from at least one
// nearby station. Days whose interpolated high equals the low are dropped.
func (s *Source) Fetch(ctx context.Context, p domain.Point, from, to time.Time) ([]domain.Reading, error) {
	neighbors, err := s.locator.Nearest(ctx, p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, fmt.Errorf("no stations within range of %s", p.Coordinates())
	}

	highs := make(map[time.Time][]stations.Sample)
	lows := make(map[time.Time][]stations.Sample)
	for _, n := range neighbors {
		extremes, err := s.store.DailyExtremes(ctx, n.Name, from, to)
		if err != nil {
			return nil, err
		}
		for _, e := range extremes {
			highs[e.Day] = append(highs[e.Day], stations.Sample{Value: e.High, Miles: n.Miles})
			lows[e.Day] = append(lows[e.Day], stations.Sample{Value: e.Low, Miles: n.Miles})
		}
	}

	out := make([]domain.Reading, 0, len(highs))
	for day, hs := range highs {
		high, _ := stations.Interpolate(hs, s.power)
		low, _ := stations.Interpolate(lows[day], s.power)
		if high == low {
			continue
		}
		out = append(out, domain.Reading{Date: day, High: high, Low: low})
	}
	slices.SortFunc(out, func(a, b domain.Reading) int { return a.Date.Compare(b.Date) })

	s.logger.Debug("history interpolated",
		"point", p.Label(), "stations", len(neighbors), "days", len(out))
	return out, nil
}
