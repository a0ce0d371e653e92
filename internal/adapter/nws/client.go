// Package nws reads the hourly point forecast from the National Weather
// Service API.
package nws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

// Client implements a forecast temperature source over api.weather.gov.
type Client struct {
	http   *resty.Client
	logger *slog.Logger

	// forecast URLs by grid point; they do not change between runs
	mu        sync.Mutex
	forecasts map[string]string
}

// NewClient creates an NWS client. The API requires an identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/geo+json")
	return &Client{
		http:      rc,
		logger:    logger,
		forecasts: make(map[string]string),
	}
}

func (c *Client) Name() string { return "forecast" }

// Fetch returns the forecast high and low of each local calendar day in
// [from, to].
func (c *Client) Fetch(ctx context.Context, p domain.Point, from, to time.Time) ([]domain.Reading, error) {
	forecastURL, err := c.forecastURL(ctx, p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}

	var body forecastResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(forecastURL)
	if err != nil {
		return nil, fmt.Errorf("nws hourly forecast request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	return dailyExtremes(body.Properties.Periods, from, to)
}

func (c *Client) forecastURL(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)

	c.mu.Lock()
	u, ok := c.forecasts[key]
	c.mu.Unlock()
	if ok {
		return u, nil
	}

	var body pointsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/points/" + key)
	if err != nil {
		return "", fmt.Errorf("nws points request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("nws API error: status %d: %s", resp.StatusCode(), resp.String())
	}
	if body.Properties.ForecastHourly == "" {
		return "", fmt.Errorf("nws points %s: no hourly forecast", key)
	}

	c.mu.Lock()
	c.forecasts[key] = body.Properties.ForecastHourly
	c.mu.Unlock()
	c.logger.Debug("nws forecast url resolved", "point", key, "url", body.Properties.ForecastHourly)
	return body.Properties.ForecastHourly, nil
}

func dailyExtremes(periods []period, from, to time.Time) ([]domain.Reading, error) {
	byDay := make(map[time.Time]*domain.Reading)
	var days []time.Time
	for _, p := range periods {
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			return nil, fmt.Errorf("parse period start %q: %w", p.StartTime, err)
		}
		d := domain.Day(start)
		if d.Before(domain.Day(from)) || d.After(to) {
			continue
		}
		temp := p.Temperature
		if strings.EqualFold(p.TemperatureUnit, "C") {
			temp = temp*9/5 + 32
		}
		r, ok := byDay[d]
		if !ok {
			byDay[d] = &domain.Reading{Date: d, High: temp, Low: temp}
			days = append(days, d)
			continue
		}
		r.High = max(r.High, temp)
		r.Low = min(r.Low, temp)
	}

	out := make([]domain.Reading, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out, nil
}

// API response types.

type pointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []period `json:"periods"`
	} `json:"properties"`
}

type period struct {
	StartTime       string  `json:"startTime"`
	Temperature     float64 `json:"temperature"`
	TemperatureUnit string  `json:"temperatureUnit"`
}
