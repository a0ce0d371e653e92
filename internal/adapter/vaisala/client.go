// Package vaisala reads recent road weather observations from the Vaisala
// export API.
package vaisala

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/breakup-etl/internal/adapter/stations"
	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// missingValue marks an observation code the station did not report.
const missingValue = -999.99

// Observation is one timestamped station report. Temperatures are °C.
type Observation struct {
	Site      string
	Timestamp string
	AirTemp   float64 // T
	Humidity  float64 // RH
	SurfTemp  float64 // TS
	State     float64 // ST
}

// Day returns the calendar day of the observation.
func (o Observation) Day() (time.Time, error) {
	if len(o.Timestamp) < 10 {
		return time.Time{}, fmt.Errorf("short timestamp %q", o.Timestamp)
	}
	return time.Parse(time.DateOnly, o.Timestamp[:10])
}

// Locator finds the stations around a point.
type Locator interface {
	Nearest(ctx context.Context, lat, lon float64) ([]stations.Neighbor, error)
}

// Client queries the export API and interpolates the observations of the
// stations around a point.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	locator    Locator
	power      float64
	logger     *slog.Logger
}

// NewClient creates a Vaisala export client.
func NewClient(baseURL, username, password string, timeout time.Duration, locator Locator, power float64, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		locator: locator,
		power:   power,
		logger:  logger,
	}
}

func (c *Client) Name() string { return "vaisala" }

// Fetch returns interpolated daily highs and lows in °F for [from, to].
// Stations that fail or return unparseable payloads contribute nothing; Fetch
// fails only when the locator does or every station fails.
func (c *Client) Fetch(ctx context.Context, p domain.Point, from, to time.Time) ([]domain.Reading, error) {
	neighbors, err := c.locator.Nearest(ctx, p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}

	highs := make(map[time.Time][]stations.Sample)
	lows := make(map[time.Time][]stations.Sample)
	var lastErr error
	failed := 0
	for _, n := range neighbors {
		obs, err := c.Observations(ctx, n.ID, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("vaisala station unavailable, skipping", "station", n.ID, "error", err)
			lastErr = err
			failed++
			continue
		}
		for day, ext := range dailyAirTemp(obs, from, to) {
			highs[day] = append(highs[day], stations.Sample{Value: ext[0], Miles: n.Miles})
			lows[day] = append(lows[day], stations.Sample{Value: ext[1], Miles: n.Miles})
		}
	}

	if failed > 0 && failed == len(neighbors) {
		return nil, fmt.Errorf("all %d vaisala stations failed: %w", failed, lastErr)
	}

	var out []domain.Reading
	for d := domain.Day(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		high, ok := stations.Interpolate(highs[d], c.power)
		if !ok {
			continue
		}
		low, _ := stations.Interpolate(lows[d], c.power)
		out = append(out, domain.Reading{Date: d, High: celsiusToFahrenheit(high), Low: celsiusToFahrenheit(low)})
	}
	return out, nil
}

// Observations downloads the reports of one station over [from, to]. The
// export's end bound is exclusive, so the request runs one day further.
func (c *Client) Observations(ctx context.Context, stationID string, from, to time.Time) ([]Observation, error) {
	params := url.Values{
		"username":     {c.username},
		"password":     {c.password},
		"station":      {stationID},
		"earliesttime": {from.Format(time.DateOnly)},
		"latesttime":   {to.AddDate(0, 0, 1).Format(time.DateOnly)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vaisala export request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vaisala response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vaisala API error: status %d: %s", resp.StatusCode, body)
	}

	obs, err := parseExport(body)
	if err != nil {
		c.logger.Warn("unreadable vaisala export, skipping station", "station", stationID, "error", err)
		return nil, nil
	}
	return obs, nil
}

// dailyAirTemp reduces observations to [max, min] air temperature per day
// inside [from, to].
func dailyAirTemp(obs []Observation, from, to time.Time) map[time.Time][2]float64 {
	out := make(map[time.Time][2]float64)
	for _, o := range obs {
		if o.AirTemp == missingValue {
			continue
		}
		d, err := o.Day()
		if err != nil || d.Before(domain.Day(from)) || d.After(to) {
			continue
		}
		ext, ok := out[d]
		if !ok {
			out[d] = [2]float64{o.AirTemp, o.AirTemp}
			continue
		}
		ext[0] = max(ext[0], o.AirTemp)
		ext[1] = min(ext[1], o.AirTemp)
		out[d] = ext
	}
	return out
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Export API payload.

type exportDoc struct {
	Instances []instance `xml:",any"`
}

type instance struct {
	Name    string     `xml:"name"`
	Results []resultOf `xml:"resultOf"`
}

type resultOf struct {
	Timestamp string  `xml:"timestamp,attr"`
	Values    []value `xml:"value"`
}

type value struct {
	Code string `xml:"code,attr"`
	Text string `xml:",chardata"`
}

func parseExport(body []byte) ([]Observation, error) {
	var doc exportDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	var out []Observation
	for _, inst := range doc.Instances {
		for _, r := range inst.Results {
			o := Observation{
				Site:      inst.Name,
				Timestamp: r.Timestamp,
				AirTemp:   missingValue,
				Humidity:  missingValue,
				SurfTemp:  missingValue,
				State:     missingValue,
			}
			for _, v := range r.Values {
				f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					continue
				}
				switch v.Code {
				case "T":
					o.AirTemp = f
				case "RH":
					o.Humidity = f
				case "TS":
					o.SurfTemp = f
				case "ST":
					o.State = f
				}
			}
			out = append(out, o)
		}
	}
	return out, nil
}
