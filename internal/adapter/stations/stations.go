// Package stations locates the road weather stations around a point and
// interpolates their readings onto it.
package stations

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/breakup-etl/internal/observability"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.8

// Station is a road weather information station.
type Station struct {
	Name string
	ID   string
	Lat  float64
	Lon  float64
}

// Neighbor is a station with its distance to the query point.
type Neighbor struct {
	Station
	Miles float64
}

// Catalog lists every known station.
type Catalog interface {
	Stations(ctx context.Context) ([]Station, error)
}

// DistanceMiles returns the great-circle distance between two coordinates.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMiles
}

// Nearest returns up to limit stations within radius miles of (lat, lon),
// closest first.
func Nearest(all []Station, lat, lon, radius float64, limit int) []Neighbor {
	var out []Neighbor
	for _, s := range all {
		d := DistanceMiles(lat, lon, s.Lat, s.Lon)
		if d >= radius {
			continue
		}
		out = append(out, Neighbor{Station: s, Miles: d})
	}
	slices.SortStableFunc(out, func(a, b Neighbor) int { return cmp.Compare(a.Miles, b.Miles) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Sample is one station's value at its distance from the point.
type Sample struct {
	Value float64
	Miles float64
}

// Interpolate returns the inverse-distance weighted mean of samples. A sample
// at zero distance is returned as is. ok is false when samples is empty.
func Interpolate(samples []Sample, power float64) (value float64, ok bool) {
	if len(samples) == 0 {
		return 0, false
	}
	values := make([]float64, len(samples))
	weights := make([]float64, len(samples))
	for i, s := range samples {
		if s.Miles == 0 {
			return s.Value, true
		}
		values[i] = s.Value
		weights[i] = 1 / math.Pow(s.Miles, power)
	}
	return stat.Mean(values, weights), true
}

// Locator finds the nearest stations for a point, caching results per
// coordinate. The catalog is loaded once on first use.
type Locator struct {
	catalog Catalog
	radius  float64
	limit   int
	cache   *lruCache[[]Neighbor]
	metrics *observability.Metrics

	mu  sync.Mutex
	all []Station
}

// NewLocator creates a Locator over catalog.
func NewLocator(catalog Catalog, radiusMiles float64, limit, cacheSize int, metrics *observability.Metrics) *Locator {
	return &Locator{
		catalog: catalog,
		radius:  radiusMiles,
		limit:   limit,
		cache:   newLRUCache[[]Neighbor](cacheSize),
		metrics: metrics,
	}
}

// Nearest returns the stations around (lat, lon), closest first.
func (l *Locator) Nearest(ctx context.Context, lat, lon float64) ([]Neighbor, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if n, ok := l.cache.get(key); ok {
		l.metrics.StationCache.WithLabelValues("hit").Inc()
		return n, nil
	}
	l.metrics.StationCache.WithLabelValues("miss").Inc()

	all, err := l.stations(ctx)
	if err != nil {
		return nil, err
	}
	n := Nearest(all, lat, lon, l.radius, l.limit)
	l.cache.put(key, n)
	return n, nil
}

func (l *Locator) stations(ctx context.Context) ([]Station, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.all != nil {
		return l.all, nil
	}
	all, err := l.catalog.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load station catalog: %w", err)
	}
	l.all = all
	return all, nil
}
