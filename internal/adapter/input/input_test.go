package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadPoints_RouteMode(t *testing.T) {
	in := "OBJECTID,ROUTE,MILEPOINTER,id,LAT,LON\n" +
		"1,US-95,12.500,12,43.61,-116.20\n" +
		"2,US-95,13.000,12,43.62,-116.21\n" +
		"3,SH-55,0.250,7,44.10,-116.05\n"

	got, err := ReadPoints(strings.NewReader(in), domain.ModeRoute)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.Point{
		GroupID: "12", Mode: domain.ModeRoute, Code: "US-95", Measure: "12.500", Lat: 43.61, Lon: -116.20,
	}, got[0])
	assert.Equal(t, "7", got[2].GroupID)
	assert.Equal(t, "RouteNo: US-95\t MilePoint: 12.500", got[0].Label())
}

func TestReadPoints_SegmentMode(t *testing.T) {
	in := "\ufeffSegCode,Measure,lat,lon\n" +
		"001234,1.5,43.5,-116.1\n"

	got, err := ReadPoints(strings.NewReader(in), domain.ModeSegment)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "001234", got[0].GroupID)
	assert.Equal(t, "001234", got[0].Code)
	assert.Equal(t, "1.5", got[0].Measure)
	assert.Equal(t, domain.ModeSegment, got[0].Mode)
}

func TestReadPoints_Errors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		_, err := ReadPoints(strings.NewReader("ROUTE,LAT,LON\nUS-95,1,2\n"), domain.ModeRoute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MILEPOINTER")
	})

	t.Run("bad coordinate", func(t *testing.T) {
		in := "SegCode,Measure,lat,lon\nA,1,north,-116\n"
		_, err := ReadPoints(strings.NewReader(in), domain.ModeSegment)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := ReadPoints(strings.NewReader(""), domain.PointMode("x"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		got, err := ReadPoints(strings.NewReader(""), domain.ModeRoute)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoadPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte("SegCode,Measure,lat,lon\nA,1,43,-116\n"), 0o600))

	got, err := LoadPoints(path, domain.ModeSegment)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = LoadPoints(filepath.Join(t.TempDir(), "missing.csv"), domain.ModeSegment)
	assert.Error(t, err)
}

func TestReadReference_Positional(t *testing.T) {
	table, err := ReadReference(strings.NewReader("ref_temp\n30\n30.5\n31\n"), day(2023, time.October, 1))
	require.NoError(t, err)

	got, err := table.Align([]domain.Reading{
		{Date: day(2023, time.October, 1)},
		{Date: day(2023, time.October, 3)},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 31}, got)
}

func TestReadReference_Keyed(t *testing.T) {
	in := "day,temp\n10-01,29.5\n02-28,20\n2024-03-01,18\n"
	table, err := ReadReference(strings.NewReader(in), day(2023, time.October, 1))
	require.NoError(t, err)

	got, err := table.Align([]domain.Reading{
		{Date: day(2023, time.October, 1)},
		{Date: day(2024, time.February, 29)},
		{Date: day(2024, time.March, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{29.5, 20, 18}, got)
}

func TestReadReference_Errors(t *testing.T) {
	_, err := ReadReference(strings.NewReader("30\nwarm\n"), day(2023, time.October, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadReference(strings.NewReader("13-45,30\n"), day(2023, time.October, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MM-DD")
}

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference_temp.csv")
	require.NoError(t, os.WriteFile(path, []byte("31\n32\n"), 0o600))

	table, err := LoadReference(path, day(2023, time.October, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}
