package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

const contentTypeGeoJSON = "application/geo+json"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newForecastServer(t *testing.T, pointsCalls *int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "breakup-etl-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", contentTypeGeoJSON)
		switch r.URL.Path {
		case "/points/43.6000,-116.3000":
			*pointsCalls++
			fmt.Fprintf(w, `{"properties":{"forecastHourly":"%s/gridpoints/BOI/130,80/forecast/hourly"}}`, srv.URL)
		case "/gridpoints/BOI/130,80/forecast/hourly":
			_, _ = io.WriteString(w, `{"properties":{"periods":[
				{"startTime":"2024-03-05T22:00:00-07:00","temperature":30,"temperatureUnit":"F"},
				{"startTime":"2024-03-06T05:00:00-07:00","temperature":25,"temperatureUnit":"F"},
				{"startTime":"2024-03-06T14:00:00-07:00","temperature":48,"temperatureUnit":"F"},
				{"startTime":"2024-03-06T23:00:00-07:00","temperature":35,"temperatureUnit":"F"},
				{"startTime":"2024-03-07T13:00:00-07:00","temperature":10,"temperatureUnit":"C"},
				{"startTime":"2024-03-07T16:00:00-07:00","temperature":0,"temperatureUnit":"C"},
				{"startTime":"2024-03-09T12:00:00-07:00","temperature":60,"temperatureUnit":"F"}
			]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"title":"Not Found"}`)
		}
	}))
	return srv
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "breakup-etl-test", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Fetch(t *testing.T) {
	var pointsCalls int
	srv := newForecastServer(t, &pointsCalls)
	defer srv.Close()

	c := testClient(srv.URL)
	p := domain.Point{Lat: 43.6, Lon: -116.3}

	got, err := c.Fetch(context.Background(), p, day(2024, time.March, 6), day(2024, time.March, 8))
	require.NoError(t, err)

	assert.Equal(t, []domain.Reading{
		{Date: day(2024, time.March, 6), High: 48, Low: 25},
		{Date: day(2024, time.March, 7), High: 50, Low: 32},
	}, got)

	_, err = c.Fetch(context.Background(), p, day(2024, time.March, 6), day(2024, time.March, 8))
	require.NoError(t, err)
	assert.Equal(t, 1, pointsCalls, "forecast URL should be cached")
	assert.Equal(t, "forecast", c.Name())
}

func TestClient_Fetch_UnknownPoint(t *testing.T) {
	var pointsCalls int
	srv := newForecastServer(t, &pointsCalls)
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), domain.Point{Lat: 10, Lon: 10}, day(2024, time.March, 6), day(2024, time.March, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDailyExtremes_BadTimestamp(t *testing.T) {
	_, err := dailyExtremes([]period{{StartTime: "yesterday"}}, day(2024, time.March, 6), day(2024, time.March, 8))
	require.Error(t, err)
}
