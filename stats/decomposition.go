package stats

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/sartorproj/climatrend/timeseries"
)

// DecompositionResult represents the additive decomposition of a time series.
// Trend and Residual are NaN where the centred moving average is undefined.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
}

// Decompose performs classical additive decomposition (Y = T + S + R).
// The trend is a centred moving average over one period (a 2×period average
// for even periods); the seasonal component is the per-position mean of the
// detrended series, centred to sum to zero. At least two full periods of
// data are required.
func Decompose(series *timeseries.Series, period int) (*DecompositionResult, error) {
	n := series.Len()
	if period < 2 {
		return nil, fmt.Errorf("decomposition period must be at least 2, got %d", period)
	}
	if n < 2*period {
		return nil, fmt.Errorf("%w: decomposition with period %d needs %d points, got %d",
			ErrInsufficientData, period, 2*period, n)
	}
	for i, v := range series.Values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("decomposition input has a missing value at index %d", i)
		}
	}

	trendValues := centredMovingAverage(series.Values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		detrended[i] = series.Values[i] - trendValues[i]
	}

	seasonalPattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(detrended[i]) {
			seasonIdx := i % period
			seasonalPattern[seasonIdx] += detrended[i]
			counts[seasonIdx]++
		}
	}
	for i := 0; i < period; i++ {
		if counts[i] > 0 {
			seasonalPattern[i] /= float64(counts[i])
		}
	}

	sum := 0.0
	for _, v := range seasonalPattern {
		sum += v
	}
	mean := sum / float64(period)
	for i := range seasonalPattern {
		seasonalPattern[i] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = seasonalPattern[i%period]
		residual[i] = series.Values[i] - trendValues[i] - seasonal[i]
	}

	component := func(values []float64, name string) *timeseries.Series {
		return &timeseries.Series{
			Timestamps: series.Timestamps,
			Values:     values,
			Name:       name,
			Domain:     series.Domain,
			Bounds:     timeseries.Unbounded(),
		}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    component(trendValues, "trend"),
		Seasonal: component(seasonal, "seasonal"),
		Residual: component(residual, "residual"),
		Period:   period,
	}, nil
}

// TrendSpan returns the number of points with a defined trend value.
func (d *DecompositionResult) TrendSpan() int {
	n := 0
	for _, v := range d.Trend.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// centredMovingAverage returns a slice aligned with values holding the
// centred moving average, NaN for the first and last period/2 points.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	half := period / 2
	ma := sma(values, period)
	if period%2 == 0 {
		// Averaging adjacent windows gives the half-weighted 2×period MA.
		ma = sma(ma, 2)
	}
	for k, v := range ma {
		i := k + half
		if i < n-half {
			out[i] = v
		}
	}
	return out
}

// sma returns the trailing simple moving average; element k covers
// values[k : k+period].
func sma(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	indicator := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(indicator.Compute(helper.SliceToChan(values)))
}
