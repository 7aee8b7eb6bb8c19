package timeseries

import (
	"math"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	if s.Len() != 5 {
		t.Errorf("Expected length 5, got %d", s.Len())
	}

	for i, v := range s.Values {
		if v != values[i] {
			t.Errorf("Expected value %f at index %d, got %f", values[i], i, v)
		}
	}

	if got := s.Timestamps[4].Sub(s.Timestamps[0]); got != 4*24*time.Hour {
		t.Errorf("Expected daily spacing, got %v over 4 steps", got)
	}
	if !s.First().Equal(New([]float64{9}).First()) {
		t.Error("Expected New to use a deterministic start date")
	}
}

func TestNewWithTimestampsLengthMismatch(t *testing.T) {
	_, err := NewWithTimestamps([]time.Time{time.Now()}, []float64{1, 2})
	if err == nil {
		t.Error("Expected error for mismatched lengths")
	}
}

func TestFromPoints(t *testing.T) {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := FromPoints(CO2, []TimePoint{
		{Time: day, Value: 370},
		{Time: day.AddDate(0, 0, 1), Value: math.NaN()},
	})

	if s.Name != "CO2" || s.Domain != CO2 {
		t.Errorf("Expected CO2 series, got name %q domain %q", s.Name, s.Domain)
	}
	if s.Missing() != 1 {
		t.Errorf("Expected 1 missing value, got %d", s.Missing())
	}
	points := s.Points()
	if len(points) != 2 || !points[0].Time.Equal(day) || points[0].Value != 370 {
		t.Errorf("Unexpected points: %v", points)
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"mixed", []float64{-1, 0, 1}, 0.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.values)
			result := s.Mean()
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected mean %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestVarianceAndStd(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	expected := 4.571428571428571

	if math.Abs(s.Variance()-expected) > 1e-10 {
		t.Errorf("Expected variance %f, got %f", expected, s.Variance())
	}
	if math.Abs(s.Std()-math.Sqrt(expected)) > 1e-10 {
		t.Errorf("Expected std %f, got %f", math.Sqrt(expected), s.Std())
	}
}

func TestMinMax(t *testing.T) {
	s := New([]float64{5, 2, 8, 1, 9, 3})

	if s.Min() != 1 {
		t.Errorf("Expected min 1, got %f", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("Expected max 9, got %f", s.Max())
	}
	if !math.IsNaN(New(nil).Min()) {
		t.Error("Expected NaN min for empty series")
	}
}

func TestDiff(t *testing.T) {
	s := New([]float64{1, 3, 6, 10, 15})
	diff := s.Diff()

	expected := []float64{2, 3, 4, 5}
	if diff.Len() != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), diff.Len())
	}
	for i, v := range expected {
		if diff.Values[i] != v {
			t.Errorf("Expected %f at index %d, got %f", v, i, diff.Values[i])
		}
	}
	if !diff.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Error("Expected differenced series to start at the second timestamp")
	}

	if New([]float64{1}).Diff().Len() != 0 {
		t.Error("Expected empty diff for a single value")
	}
}

func TestSliceAndCopy(t *testing.T) {
	s := FromPoints(Temperature, []TimePoint{
		{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Value: 0.1},
		{Time: time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), Value: 0.2},
		{Time: time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC), Value: 0.3},
	})

	sub := s.Slice(1, 10)
	if sub.Len() != 2 || sub.Values[0] != 0.2 || sub.Domain != Temperature {
		t.Errorf("Unexpected slice: %+v", sub)
	}

	c := s.Copy()
	c.Values[0] = 99
	if s.Values[0] != 0.1 {
		t.Error("Copy should not share the value slice")
	}
	if c.Bounds != s.Bounds {
		t.Error("Copy should keep bounds")
	}
}
