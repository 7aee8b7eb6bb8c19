// Package stats provides the statistical functions used by the trend analyzer
// and the forecast models.
package stats

import (
	"errors"

	"github.com/sartorproj/climatrend/timeseries"
)

var (
	// ErrInsufficientData means there are too few points for the statistic.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerate means an input has no variance to work with.
	ErrDegenerate = errors.New("degenerate input")
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag, or nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := series.Mean()
	variance := 0.0
	for _, v := range series.Values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (series.Values[i] - mean) * (series.Values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}
