package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks (h = (n-1)·q). NaN values are ignored; an empty
// input yields NaN.
func Quantile(values []float64, q float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	q = math.Max(0, math.Min(1, q))
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// RollingMeanStd returns the trailing mean and sample standard deviation of
// each point over the last window values including itself. The first
// window-1 points use the values available so far. The deviation is NaN
// where fewer than two values are in the window.
func RollingMeanStd(values []float64, window int) (mean, std []float64) {
	n := len(values)
	mean = make([]float64, n)
	std = make([]float64, n)
	if window < 1 {
		window = 1
	}

	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, count := 0.0, 0
		for _, v := range values[start : i+1] {
			if !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count == 0 {
			mean[i], std[i] = math.NaN(), math.NaN()
			continue
		}
		m := sum / float64(count)
		mean[i] = m
		if count < 2 {
			std[i] = math.NaN()
			continue
		}
		ss := 0.0
		for _, v := range values[start : i+1] {
			if !math.IsNaN(v) {
				ss += (v - m) * (v - m)
			}
		}
		std[i] = math.Sqrt(ss / float64(count-1))
	}
	return mean, std
}
