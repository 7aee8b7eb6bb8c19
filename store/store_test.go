package store

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/climatrend/timeseries"
)

func sample(domain timeseries.Domain, values ...float64) *timeseries.Series {
	pts := make([]timeseries.TimePoint, len(values))
	start := time.Date(2001, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		pts[i] = timeseries.TimePoint{Time: start.AddDate(0, 0, i), Value: v}
	}
	return timeseries.FromPoints(domain, pts)
}

var regions = []timeseries.RegionRecord{
	{Year: 2001, Region: "BRA", Area: 1200.5},
	{Year: 2001, Region: "IDN", Area: 300},
	{Year: 2002, Region: "BRA", Area: 1100},
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "climate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		DriverCSV:    NewCSVStore(t.TempDir()),
		DriverSQLite: sqlite,
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := sample(timeseries.SeaLevel, 1.5, -0.25, 3.125)
			require.NoError(t, s.SaveSeries(in))

			out, err := s.LoadSeries(timeseries.SeaLevel)
			require.NoError(t, err)
			assert.Equal(t, timeseries.SeaLevel, out.Domain)
			assert.Equal(t, "Sea Level", out.Name)
			assert.Equal(t, in.Values, out.Values)
			require.Len(t, out.Timestamps, 3)
			for i := range in.Timestamps {
				assert.True(t, in.Timestamps[i].Equal(out.Timestamps[i]), "timestamp %d", i)
			}
		})
	}
}

func TestSaveReplacesDomain(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveSeries(sample(timeseries.CO2, 300, 301, 302)))
			require.NoError(t, s.SaveSeries(sample(timeseries.CO2, 410)))
			require.NoError(t, s.SaveSeries(sample(timeseries.Temperature, 0.5, 0.6)))

			co2, err := s.LoadSeries(timeseries.CO2)
			require.NoError(t, err)
			assert.Equal(t, []float64{410}, co2.Values)

			temp, err := s.LoadSeries(timeseries.Temperature)
			require.NoError(t, err)
			assert.Equal(t, []float64{0.5, 0.6}, temp.Values)
		})
	}
}

func TestMissingDomainIsNotFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.LoadSeries(timeseries.Temperature)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.LoadRegions()
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRegionsRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveRegions(regions))
			out, err := s.LoadRegions()
			require.NoError(t, err)
			assert.Equal(t, regions, out)

			require.NoError(t, s.SaveRegions(regions[:1]))
			out, err = s.LoadRegions()
			require.NoError(t, err)
			assert.Equal(t, regions[:1], out)
		})
	}
}

func TestSQLiteKeepsMissingValues(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "climate.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveSeries(sample(timeseries.Temperature, 0.1, math.NaN(), 0.3)))
	out, err := s.LoadSeries(timeseries.Temperature)
	require.NoError(t, err)
	require.Len(t, out.Values, 3)
	assert.True(t, math.IsNaN(out.Values[1]))
	assert.Equal(t, 0.3, out.Values[2])
}

func TestCSVStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	assert.Equal(t, filepath.Join(dir, "cleaned_sea_level.csv"), s.Path(timeseries.SeaLevel))
	assert.Equal(t, filepath.Join(dir, "cleaned_deforestation.csv"), s.Path(timeseries.Deforestation))
}

func TestOpen(t *testing.T) {
	s, err := Open(DriverCSV, t.TempDir(), "")
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, s)

	s, err = Open(DriverSQLite, "", filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("parquet", "", "")
	assert.Error(t, err)
}
