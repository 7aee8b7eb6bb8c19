package timeseries

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateDecadal(t *testing.T) {
	var points []TimePoint
	for i := 0; i < 10; i++ {
		points = append(points, TimePoint{Time: date(1990+i, 6, 1), Value: 0.1 * float64(i+1)})
	}
	points = append(points, TimePoint{Time: date(2003, 1, 1), Value: 2})
	s := FromPoints(Temperature, points)

	aggs := Aggregate(s, Decadal)
	if len(aggs) != 2 {
		t.Fatalf("Expected 2 decades, got %d", len(aggs))
	}
	if aggs[0].Key != 1990 || aggs[0].Count != 10 {
		t.Errorf("Unexpected first decade: %+v", aggs[0])
	}
	if math.Abs(aggs[0].Mean-0.55) > 1e-12 {
		t.Errorf("Expected decade 1990 mean 0.55, got %f", aggs[0].Mean)
	}
	if aggs[1].Key != 2000 || aggs[1].Mean != 2 {
		t.Errorf("Unexpected second decade: %+v", aggs[1])
	}
}

func TestResampleAnnualSkipsEmptyYears(t *testing.T) {
	s := FromPoints(CO2, []TimePoint{
		{Time: date(2000, 1, 1), Value: 360},
		{Time: date(2000, 7, 1), Value: 370},
		{Time: date(2000, 9, 1), Value: math.NaN()},
		{Time: date(2002, 3, 1), Value: 380},
	})

	annual := Resample(s, Annual)
	if annual.Len() != 2 {
		t.Fatalf("Expected 2 years, got %d", annual.Len())
	}
	if annual.Values[0] != 365 || annual.Values[1] != 380 {
		t.Errorf("Unexpected annual means: %v", annual.Values)
	}
	if !annual.Timestamps[0].Equal(date(2000, 12, 31)) {
		t.Errorf("Expected year-end stamp, got %v", annual.Timestamps[0])
	}
	if annual.Domain != CO2 {
		t.Error("Resample should keep the domain")
	}
}

func TestResampleFilledMarksEmptyYears(t *testing.T) {
	s := FromPoints(Temperature, []TimePoint{
		{Time: date(2000, 3, 1), Value: 0.2},
		{Time: date(2000, 9, 1), Value: 0.4},
		{Time: date(2002, 3, 1), Value: 0.5},
		{Time: date(2003, 3, 1), Value: math.NaN()},
		{Time: date(2004, 3, 1), Value: 0.7},
	})

	annual := ResampleFilled(s, Annual)
	if annual.Len() != 5 {
		t.Fatalf("Expected 5 years, got %d", annual.Len())
	}
	for i, year := range []int{2000, 2001, 2002, 2003, 2004} {
		if !annual.Timestamps[i].Equal(YearEnd(year)) {
			t.Errorf("Expected %d-12-31 at %d, got %v", year, i, annual.Timestamps[i])
		}
	}
	if math.Abs(annual.Values[0]-0.3) > 1e-12 || annual.Values[2] != 0.5 || annual.Values[4] != 0.7 {
		t.Errorf("Unexpected annual means: %v", annual.Values)
	}
	if !math.IsNaN(annual.Values[1]) || !math.IsNaN(annual.Values[3]) {
		t.Errorf("Expected NaN for 2001 and 2003, got %v", annual.Values)
	}

	if empty := ResampleFilled(FromPoints(Temperature, nil), Annual); empty.Len() != 0 {
		t.Errorf("Expected empty series, got %d points", empty.Len())
	}
}

func TestForwardFillDaily(t *testing.T) {
	s := FromPoints(CO2, []TimePoint{
		{Time: date(2000, 1, 1), Value: 1},
		{Time: date(2000, 1, 4), Value: 4},
		{Time: date(2000, 1, 4).Add(6 * time.Hour), Value: 5},
		{Time: date(2000, 1, 6), Value: 6},
	})

	daily := ForwardFillDaily(s)
	expected := []float64{1, 1, 1, 5, 5, 6}
	if daily.Len() != len(expected) {
		t.Fatalf("Expected %d days, got %d", len(expected), daily.Len())
	}
	for i, v := range expected {
		if daily.Values[i] != v {
			t.Errorf("Day %d: expected %f, got %f", i, v, daily.Values[i])
		}
		if !daily.Timestamps[i].Equal(date(2000, 1, 1+i)) {
			t.Errorf("Day %d: unexpected timestamp %v", i, daily.Timestamps[i])
		}
	}

	if ForwardFillDaily(New(nil)).Len() != 0 {
		t.Error("Expected empty fill for empty series")
	}
}
