package cleaner

import (
	"math"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

// Rule decides which values of a series survive. Keep returns one flag per
// value; every rule sees the same input, so rules never observe each
// other's removals.
type Rule interface {
	Name() string
	Keep(values []float64) []bool
}

// RangeRule keeps values inside physical bounds. Values outside are dropped,
// never clamped.
type RangeRule struct {
	Bounds timeseries.Bounds
}

// Name returns "range".
func (r RangeRule) Name() string { return "range" }

// Keep marks the values inside Bounds. NaN is never kept.
func (r RangeRule) Keep(values []float64) []bool {
	keep := make([]bool, len(values))
	for i, v := range values {
		keep[i] = r.Bounds.Contains(v)
	}
	return keep
}

// IQRRule keeps values within Factor interquartile ranges of the quartiles.
type IQRRule struct {
	Factor float64
}

// Name returns "iqr".
func (r IQRRule) Name() string { return "iqr" }

// Keep marks the values within Factor interquartile ranges of the quartiles.
func (r IQRRule) Keep(values []float64) []bool {
	keep := make([]bool, len(values))
	q1 := stats.Quantile(values, 0.25)
	q3 := stats.Quantile(values, 0.75)
	iqr := q3 - q1
	lo, hi := q1-r.Factor*iqr, q3+r.Factor*iqr
	for i, v := range values {
		keep[i] = v >= lo && v <= hi
	}
	return keep
}

// RollingZScoreRule drops a value whose distance from the trailing mean
// exceeds Sigma trailing standard deviations. The window includes the value
// itself and expands over the first Window-1 values; a window with a single
// value has no deviation and always keeps it.
type RollingZScoreRule struct {
	Window int
	Sigma  float64
}

// Name returns "rolling_zscore".
func (r RollingZScoreRule) Name() string { return "rolling_zscore" }

// Keep marks the values within Sigma trailing standard deviations of the
// trailing mean. Windows with fewer than 2 samples keep their point.
func (r RollingZScoreRule) Keep(values []float64) []bool {
	mean, std := stats.RollingMeanStd(values, r.Window)
	keep := make([]bool, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(std[i]) {
			keep[i] = true
			continue
		}
		keep[i] = math.Abs(v-mean[i]) <= r.Sigma*std[i]
	}
	return keep
}
