package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Period is a calendar grouping used to aggregate a series.
type Period int

const (
	Annual Period = iota
	Decadal
)

// String returns "annual" or "decadal".
func (p Period) String() string {
	switch p {
	case Annual:
		return "annual"
	case Decadal:
		return "decadal"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// key returns the grouping key for a year: the year itself, or the first
// year of its decade.
func (p Period) key(year int) int {
	if p == Decadal {
		return int(math.Floor(float64(year)/10)) * 10
	}
	return year
}

// end returns the timestamp an aggregate is labelled with: December 31 of
// the last year in the group.
func (p Period) end(key int) time.Time {
	if p == Decadal {
		return YearEnd(key + 9)
	}
	return YearEnd(key)
}

// PeriodAggregate is the mean of the observations falling in one period.
type PeriodAggregate struct {
	Key   int
	Time  time.Time
	Mean  float64
	Count int
}

// YearEnd returns December 31 of year, midnight UTC.
func YearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Aggregate groups the series by calendar period and averages each group.
// Missing values are ignored and periods without data are not emitted, so
// the result may have holes. Aggregates are ordered by key.
func Aggregate(s *Series, period Period) []PeriodAggregate {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		k := period.key(s.Timestamps[i].Year())
		sums[k] += v
		counts[k]++
	}

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]PeriodAggregate, len(keys))
	for i, k := range keys {
		out[i] = PeriodAggregate{
			Key:   k,
			Time:  period.end(k),
			Mean:  sums[k] / float64(counts[k]),
			Count: counts[k],
		}
	}
	return out
}

// Resample is Aggregate returned as a series stamped at each period's end.
func Resample(s *Series, period Period) *Series {
	aggs := Aggregate(s, period)
	out := &Series{
		Timestamps: make([]time.Time, len(aggs)),
		Values:     make([]float64, len(aggs)),
		Name:       s.Name,
		Domain:     s.Domain,
		Bounds:     s.Bounds,
	}
	for i, a := range aggs {
		out.Timestamps[i] = a.Time
		out.Values[i] = a.Mean
	}
	return out
}

// ResampleFilled is Resample with every period between the first and the
// last one present: periods without data carry NaN.
func ResampleFilled(s *Series, period Period) *Series {
	aggs := Aggregate(s, period)
	out := &Series{Name: s.Name, Domain: s.Domain, Bounds: s.Bounds}
	if len(aggs) == 0 {
		out.Timestamps, out.Values = []time.Time{}, []float64{}
		return out
	}
	step := 1
	if period == Decadal {
		step = 10
	}
	next := 0
	for k := aggs[0].Key; k <= aggs[len(aggs)-1].Key; k += step {
		v := math.NaN()
		if aggs[next].Key == k {
			v = aggs[next].Mean
			next++
		}
		out.Timestamps = append(out.Timestamps, period.end(k))
		out.Values = append(out.Values, v)
	}
	return out
}

// ForwardFillDaily returns one value per calendar day from the first to the
// last observation. Each day carries the latest valid observation made on or
// before it; several observations on one day resolve to the last of them.
// The input must be sorted by time.
func ForwardFillDaily(s *Series) *Series {
	out := &Series{Name: s.Name, Domain: s.Domain, Bounds: s.Bounds}

	first, last := -1, -1
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		out.Timestamps = []time.Time{}
		out.Values = []float64{}
		return out
	}

	start := truncateDay(s.Timestamps[first])
	end := truncateDay(s.Timestamps[last])
	days := int(end.Sub(start).Hours()/24) + 1
	out.Timestamps = make([]time.Time, 0, days)
	out.Values = make([]float64, 0, days)

	j := first
	current := math.NaN()
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for j <= last && !truncateDay(s.Timestamps[j]).After(day) {
			if !math.IsNaN(s.Values[j]) {
				current = s.Values[j]
			}
			j++
		}
		out.Timestamps = append(out.Timestamps, day)
		out.Values = append(out.Values, current)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
