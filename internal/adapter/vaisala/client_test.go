package vaisala

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/breakup-etl/internal/adapter/stations"
	"github.com/couchcryptid/breakup-etl/internal/domain"
)

const northExport = `<?xml version="1.0"?>
<observations>
  <instance>
    <name>NORTH</name>
    <resultOf timestamp="2024-03-01 06:00:00">
      <value code="T">-5.0</value><value code="RH">80</value><value code="TS">-2</value><value code="ST">1</value>
    </resultOf>
    <resultOf timestamp="2024-03-01 15:00:00"><value code="T">5.0</value></resultOf>
    <resultOf timestamp="2024-03-01 18:00:00"><value code="RH">70</value></resultOf>
    <resultOf timestamp="2024-03-02 12:00:00"><value code="T">10</value></resultOf>
    <resultOf timestamp="2024-03-03 00:00:00"><value code="T">30</value></resultOf>
  </instance>
</observations>`

// --- mocks ---

type staticLocator struct {
	neighbors []stations.Neighbor
	err       error
}

func (l staticLocator) Nearest(context.Context, float64, float64) ([]stations.Neighbor, error) {
	return l.neighbors, l.err
}

func testClient(baseURL string, locator Locator) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   "dot",
		password:   "secret",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		locator:    locator,
		power:      1.2,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- tests ---

func TestClient_Observations_Request(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "dot", q.Get("username"))
		assert.Equal(t, "secret", q.Get("password"))
		assert.Equal(t, "101", q.Get("station"))
		assert.Equal(t, "2024-03-01", q.Get("earliesttime"))
		assert.Equal(t, "2024-03-03", q.Get("latesttime"))
		_, _ = io.WriteString(w, northExport)
	}))
	defer srv.Close()

	c := testClient(srv.URL, staticLocator{})
	obs, err := c.Observations(context.Background(), "101", day(2024, time.March, 1), day(2024, time.March, 2))
	require.NoError(t, err)
	require.Len(t, obs, 5)

	assert.Equal(t, Observation{
		Site: "NORTH", Timestamp: "2024-03-01 06:00:00",
		AirTemp: -5, Humidity: 80, SurfTemp: -2, State: 1,
	}, obs[0])
	assert.InDelta(t, missingValue, obs[2].AirTemp, 0)
}

func TestClient_Fetch_InterpolatesAndConverts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("station") {
		case "101":
			_, _ = io.WriteString(w, northExport)
		default:
			_, _ = io.WriteString(w, "<html>maintenance</html")
		}
	}))
	defer srv.Close()

	locator := staticLocator{neighbors: []stations.Neighbor{
		{Station: stations.Station{Name: "NORTH", ID: "101"}, Miles: 3},
		{Station: stations.Station{Name: "BROKEN", ID: "102"}, Miles: 5},
	}}
	c := testClient(srv.URL, locator)

	got, err := c.Fetch(context.Background(), domain.Point{}, day(2024, time.March, 1), day(2024, time.March, 2))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, day(2024, time.March, 1), got[0].Date)
	assert.InDelta(t, 41, got[0].High, 1e-9)
	assert.InDelta(t, 23, got[0].Low, 1e-9)
	assert.Equal(t, day(2024, time.March, 2), got[1].Date)
	assert.InDelta(t, 50, got[1].High, 1e-9)
	assert.InDelta(t, 50, got[1].Low, 1e-9)
	assert.Equal(t, "vaisala", c.Name())
}

func TestClient_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "bad credentials")
	}))
	defer srv.Close()

	locator := staticLocator{neighbors: []stations.Neighbor{{Station: stations.Station{ID: "101"}, Miles: 1}}}
	c := testClient(srv.URL, locator)

	_, err := c.Fetch(context.Background(), domain.Point{}, day(2024, time.March, 1), day(2024, time.March, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Fetch_OneStationDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("station") == "102" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "station offline")
			return
		}
		_, _ = io.WriteString(w, northExport)
	}))
	defer srv.Close()

	locator := staticLocator{neighbors: []stations.Neighbor{
		{Station: stations.Station{Name: "NORTH", ID: "101"}, Miles: 3},
		{Station: stations.Station{Name: "SOUTH", ID: "102"}, Miles: 4},
	}}
	c := testClient(srv.URL, locator)

	got, err := c.Fetch(context.Background(), domain.Point{}, day(2024, time.March, 1), day(2024, time.March, 2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 41, got[0].High, 1e-9)
	assert.InDelta(t, 23, got[0].Low, 1e-9)
}

func TestClient_Fetch_AllStationsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	locator := staticLocator{neighbors: []stations.Neighbor{
		{Station: stations.Station{ID: "101"}, Miles: 3},
		{Station: stations.Station{ID: "102"}, Miles: 4},
	}}
	c := testClient(srv.URL, locator)

	_, err := c.Fetch(context.Background(), domain.Point{}, day(2024, time.March, 1), day(2024, time.March, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 vaisala stations failed")
	assert.Contains(t, err.Error(), "status 502")
}

func TestParseExport_SkipsNonFiniteValues(t *testing.T) {
	obs, err := parseExport([]byte(`<observations><instance><name>N</name>
<resultOf timestamp="2024-03-01 06:00:00"><value code="T">NaN</value><value code="RH">+Inf</value><value code="TS">1.5</value></resultOf>
</instance></observations>`))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.InDelta(t, missingValue, obs[0].AirTemp, 0)
	assert.InDelta(t, missingValue, obs[0].Humidity, 0)
	assert.InDelta(t, 1.5, obs[0].SurfTemp, 0)
}

func TestClient_Fetch_LocatorError(t *testing.T) {
	c := testClient("http://unused", staticLocator{err: errors.New("catalog down")})

	_, err := c.Fetch(context.Background(), domain.Point{}, day(2024, time.March, 1), day(2024, time.March, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog down")
}

func TestCelsiusToFahrenheit(t *testing.T) {
	assert.InDelta(t, 32, celsiusToFahrenheit(0), 0)
	assert.InDelta(t, 212, celsiusToFahrenheit(100), 1e-9)
	assert.InDelta(t, -40, celsiusToFahrenheit(-40), 1e-9)
}
