// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"time"
)

// TimePoint is a single observation. A NaN Value marks a missing reading.
type TimePoint struct {
	Time  time.Time
	Value float64
}

// Series represents a time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
	Domain     Domain
	Bounds     Bounds
}

// epoch anchors the synthetic daily timestamps assigned by New.
var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// New creates a new time series from values, one day apart from 1970-01-01.
func New(values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = epoch.AddDate(0, 0, i)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Bounds:     Unbounded(),
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Bounds:     Unbounded(),
	}, nil
}

// FromPoints builds a series for a domain from observations, keeping their order.
func FromPoints(domain Domain, points []TimePoint) *Series {
	s := &Series{
		Timestamps: make([]time.Time, len(points)),
		Values:     make([]float64, len(points)),
		Name:       domain.Column(),
		Domain:     domain,
		Bounds:     domain.DefaultBounds(),
	}
	for i, p := range points {
		s.Timestamps[i] = p.Time
		s.Values[i] = p.Value
	}
	return s
}

// Points returns the observations as TimePoints.
func (s *Series) Points() []TimePoint {
	points := make([]TimePoint, len(s.Values))
	for i := range s.Values {
		points[i] = TimePoint{Time: s.Timestamps[i], Value: s.Values[i]}
	}
	return points
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// First returns the earliest timestamp, or the zero time for an empty series.
func (s *Series) First() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// Last returns the latest timestamp, or the zero time for an empty series.
func (s *Series) Last() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Missing counts NaN values.
func (s *Series) Missing() int {
	n := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the lag-n difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Values: []float64{}, Domain: s.Domain, Bounds: Unbounded()}
	}

	result := make([]float64, len(s.Values)-n)
	for i := n; i < len(s.Values); i++ {
		result[i-n] = s.Values[i] - s.Values[i-n]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > n {
		copy(timestamps, s.Timestamps[n:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_diff",
		Domain:     s.Domain,
		Bounds:     Unbounded(),
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name, Domain: s.Domain, Bounds: s.Bounds}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Domain:     s.Domain,
		Bounds:     s.Bounds,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Domain:     s.Domain,
		Bounds:     s.Bounds,
	}
}
