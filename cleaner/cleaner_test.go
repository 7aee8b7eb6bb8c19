package cleaner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/timeseries"
)

func day(n int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(t *testing.T, domain timeseries.Domain, days []int, values []float64) *timeseries.Series {
	t.Helper()
	points := make([]timeseries.TimePoint, len(days))
	for i, d := range days {
		points[i] = timeseries.TimePoint{Time: day(d), Value: values[i]}
	}
	return timeseries.FromPoints(domain, points)
}

func policy(t *testing.T, domain timeseries.Domain) Policy {
	t.Helper()
	p, err := PolicyFor(domain, DefaultOptions())
	require.NoError(t, err)
	return p
}

func TestCleanTemperatureRange(t *testing.T) {
	raw := series(t, timeseries.Temperature,
		[]int{0, 1, 2, 3, 4},
		[]float64{0.1, 12.0, 0.3, -5, 5})

	cleaned, report, err := Clean(raw, policy(t, timeseries.Temperature))
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.3, -5, 5}, cleaned.Values)
	assert.Equal(t, 1, report.Removed["range"])
	assert.Equal(t, 1, report.RemovedTotal())
	for _, v := range cleaned.Values {
		assert.True(t, cleaned.Bounds.Contains(v))
	}
	assert.Equal(t, "Temperature", cleaned.Name)
}

func TestCleanInsertsAndInterpolatesDailyGaps(t *testing.T) {
	raw := series(t, timeseries.Temperature,
		[]int{0, 1, 3},
		[]float64{1.0, math.NaN(), 4.0})

	cleaned, report, err := Clean(raw, policy(t, timeseries.Temperature))
	require.NoError(t, err)

	require.Equal(t, 4, cleaned.Len())
	assert.Equal(t, day(2), cleaned.Timestamps[2])
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4}, cleaned.Values, 1e-12)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.Interpolated)
}

func TestCleanInterpolationIsTimeWeighted(t *testing.T) {
	raw := series(t, timeseries.CO2,
		[]int{0, 1, 4},
		[]float64{300, math.NaN(), 304})

	cleaned, report, err := Clean(raw, policy(t, timeseries.CO2))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Inserted)
	assert.InDeltaSlice(t, []float64{300, 301, 304}, cleaned.Values, 1e-12)
}

func TestCleanDropsEdgesAndResolvesDuplicates(t *testing.T) {
	raw := series(t, timeseries.CO2,
		[]int{3, 0, 1, 2, 1, 4},
		[]float64{math.NaN(), math.NaN(), 400, 402, 401, math.NaN()})

	cleaned, report, err := Clean(raw, policy(t, timeseries.CO2))
	require.NoError(t, err)

	assert.Equal(t, []time.Time{day(1), day(2)}, cleaned.Timestamps)
	assert.Equal(t, []float64{401, 402}, cleaned.Values)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 3, report.EdgeDropped)

	// The input is left untouched.
	assert.Equal(t, day(3), raw.Timestamps[0])
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := series(t, timeseries.Temperature,
		[]int{0, 1, 2, 5, 6, 9},
		[]float64{0.2, math.NaN(), 0.4, 0.1, 0.9, 0.3})
	p := policy(t, timeseries.Temperature)

	once, _, err := Clean(raw, p)
	require.NoError(t, err)
	twice, report, err := Clean(once, p)
	require.NoError(t, err)

	assert.Equal(t, once.Timestamps, twice.Timestamps)
	assert.Equal(t, once.Values, twice.Values)
	assert.Equal(t, 0, report.Interpolated)
	assert.Equal(t, 0, report.RemovedTotal())
}

func TestCleanSeaLevelSpikeIsOnlyRemoval(t *testing.T) {
	n := 100
	days := make([]int, n)
	values := make([]float64, n)
	for i := range values {
		days[i] = i
		values[i] = 0.1
		if i%2 == 1 {
			values[i] = -0.1
		}
	}
	values[60] = 1.0

	cleaned, report, err := Clean(series(t, timeseries.SeaLevel, days, values), policy(t, timeseries.SeaLevel))
	require.NoError(t, err)

	assert.Equal(t, n-1, cleaned.Len())
	assert.Equal(t, 1, report.Removed["rolling_zscore"])
	for _, ts := range cleaned.Timestamps {
		assert.NotEqual(t, day(60), ts)
	}
}

func TestCleanEmptyResult(t *testing.T) {
	raw := series(t, timeseries.CO2, []int{0, 1}, []float64{100, 6000})

	cleaned, report, err := Clean(raw, policy(t, timeseries.CO2))
	require.Error(t, err)
	assert.Nil(t, cleaned)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrEmptyResult)
	assert.Equal(t, 2, report.Removed["range"])
}

func TestIntervalMonthsDoNotDrift(t *testing.T) {
	points := []timeseries.TimePoint{
		{Time: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), Value: 1},
		{Time: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), Value: 2},
	}
	out := fillGaps(points, Interval{Months: 1})

	// Jan 31 + k months normalises, but each step is taken from Jan 31.
	require.Len(t, out, 6)
	assert.Equal(t, time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC), out[1].Time)
	assert.Equal(t, time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), out[2].Time)
	assert.True(t, math.IsNaN(out[1].Value))
}

func TestPolicyForUnknownDomain(t *testing.T) {
	_, err := PolicyFor(timeseries.Domain("ozone"), DefaultOptions())
	assert.Error(t, err)
}
