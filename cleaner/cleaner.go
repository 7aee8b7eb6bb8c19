package cleaner

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/timeseries"
)

const stage = "clean"

// Report counts what each cleaning step did to one series.
type Report struct {
	Domain       timeseries.Domain
	Input        int
	Duplicates   int
	Inserted     int
	Interpolated int
	EdgeDropped  int
	Removed      map[string]int // per rule name
	Output       int
}

// RemovedTotal is the number of points dropped by outlier rules. A point
// rejected by several rules is counted once.
func (r *Report) RemovedTotal() int {
	return r.Input - r.Duplicates + r.Inserted - r.EdgeDropped - r.Output
}

// Fields renders the report for structured logging.
func (r *Report) Fields() logrus.Fields {
	f := logrus.Fields{
		"domain":       r.Domain,
		"input":        r.Input,
		"duplicates":   r.Duplicates,
		"inserted":     r.Inserted,
		"interpolated": r.Interpolated,
		"edge_dropped": r.EdgeDropped,
		"output":       r.Output,
	}
	for name, n := range r.Removed {
		f["removed_"+name] = n
	}
	return f
}

// Clean runs the cleaning steps of policy over raw and returns a new series.
// raw is not modified.
//
// Steps, in order: sort and resolve duplicate timestamps keeping the last
// value seen; insert missing timestamps into gaps wider than the policy
// interval; interpolate missing values linearly in time; drop the leading
// and trailing points that could not be interpolated; drop points rejected
// by any outlier rule. Rules are all evaluated on the interpolated values.
func Clean(raw *timeseries.Series, policy Policy) (*timeseries.Series, *Report, error) {
	unit := policy.Domain.String()
	if raw == nil {
		return nil, nil, apperr.Input(unit, stage, errors.New("nil series"))
	}
	if policy.Interval.Years < 0 || policy.Interval.Months < 0 || policy.Interval.Days < 0 {
		return nil, nil, apperr.Validation(unit, stage, fmt.Errorf("negative interval %+v", policy.Interval))
	}

	report := &Report{Domain: policy.Domain, Input: raw.Len(), Removed: make(map[string]int)}

	points := dedupe(raw.Points())
	report.Duplicates = report.Input - len(points)

	if !policy.Interval.IsZero() {
		before := len(points)
		points = fillGaps(points, policy.Interval)
		report.Inserted = len(points) - before
	}

	report.Interpolated = interpolate(points)

	before := len(points)
	points = trimEdges(points)
	report.EdgeDropped = before - len(points)

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	keep := make([]bool, len(points))
	for i := range keep {
		keep[i] = true
	}
	for _, rule := range policy.Rules {
		mask := rule.Keep(values)
		for i, ok := range mask {
			if !ok {
				report.Removed[rule.Name()]++
				keep[i] = false
			}
		}
	}

	kept := points[:0]
	for i, p := range points {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	report.Output = len(kept)
	if len(kept) == 0 {
		return nil, report, apperr.Validation(unit, stage, apperr.ErrEmptyResult)
	}

	out := timeseries.FromPoints(policy.Domain, kept)
	if raw.Name != "" {
		out.Name = raw.Name
	}
	out.Bounds = policy.Bounds
	return out, report, nil
}

// dedupe sorts points by time and keeps the last value seen for each
// timestamp.
func dedupe(points []timeseries.TimePoint) []timeseries.TimePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// fillGaps inserts NaN points at whole multiples of step after each point,
// up to the next observation. Steps are counted from the left point so month
// arithmetic does not drift.
func fillGaps(points []timeseries.TimePoint, step Interval) []timeseries.TimePoint {
	if len(points) < 2 {
		return points
	}
	out := make([]timeseries.TimePoint, 0, len(points))
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		out = append(out, a)
		for k := 1; ; k++ {
			t := step.step(a.Time, k)
			if !t.Before(b.Time) || !t.After(a.Time) {
				break
			}
			out = append(out, timeseries.TimePoint{Time: t, Value: math.NaN()})
		}
	}
	return append(out, points[len(points)-1])
}

// interpolate fills interior NaN values in place, weighting the neighbours
// by elapsed time, and returns how many were filled.
func interpolate(points []timeseries.TimePoint) int {
	filled := 0
	prev := -1
	for i := 0; i < len(points); i++ {
		if math.IsNaN(points[i].Value) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			t0, t1 := points[prev].Time, points[i].Time
			v0, v1 := points[prev].Value, points[i].Value
			span := float64(t1.Sub(t0))
			for j := prev + 1; j < i; j++ {
				w := weight(t0, points[j].Time, span)
				points[j].Value = v0 + w*(v1-v0)
				filled++
			}
		}
		prev = i
	}
	return filled
}

func weight(t0, t time.Time, span float64) float64 {
	if span == 0 {
		return 0
	}
	return float64(t.Sub(t0)) / span
}

// trimEdges removes the leading and trailing missing values.
func trimEdges(points []timeseries.TimePoint) []timeseries.TimePoint {
	start, end := 0, len(points)
	for start < end && math.IsNaN(points[start].Value) {
		start++
	}
	for end > start && math.IsNaN(points[end-1].Value) {
		end--
	}
	return points[start:end]
}
