package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/timeseries"
)

var errEmptyPartition = errors.New("empty train or test partition")

// MissingPolicy says what a date without a deforestation record means.
type MissingPolicy string

const (
	// MissingZero treats a missing record as no deforestation.
	MissingZero MissingPolicy = "zero"
	// MissingDrop excludes dates without a record.
	MissingDrop MissingPolicy = "drop"
)

// ParseMissingPolicy accepts "zero" or "drop".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case MissingZero, MissingDrop:
		return p, nil
	}
	return "", fmt.Errorf("invalid missing policy %q", s)
}

// FeatureNames lists the regressor inputs in column order.
var FeatureNames = []string{"CO2", "Area_Deforested", "Year", "Month"}

// ForestRegressor predicts temperature from CO2, deforestation and the
// calendar with a random forest trained on the years before SplitYear and
// evaluated on the rest.
type ForestRegressor struct {
	SplitYear int
	Trees     int
	Seed      uint64
	Missing   MissingPolicy
	MinSplit  int
	MaxDepth  int
}

// NewForestRegressor returns a regressor with the given split year, tree
// count and seed, treating missing deforestation as zero.
func NewForestRegressor(splitYear, trees int, seed uint64) *ForestRegressor {
	return &ForestRegressor{
		SplitYear: splitYear,
		Trees:     trees,
		Seed:      seed,
		Missing:   MissingZero,
		MinSplit:  2,
	}
}

// Name returns ModelRandomForest.
func (r *ForestRegressor) Name() string { return ModelRandomForest }

// Sample is one row of the regression frame.
type Sample struct {
	Time     time.Time
	Features []float64 // in FeatureNames order
	Target   float64
}

// Year returns the calendar year of the sample.
func (s Sample) Year() int { return s.Time.Year() }

// BuildSamples joins temperature and CO2 on exact dates and attaches the
// deforestation value recorded for the same date, following the missing
// policy for dates without one.
func BuildSamples(temperature, co2, deforestation *timeseries.Series, missing MissingPolicy) ([]Sample, error) {
	series := []*timeseries.Series{withName(temperature, "Temperature"), withName(co2, "CO2")}
	if deforestation != nil {
		series = append(series, withName(deforestation, "Area_Deforested"))
	}
	frame, err := timeseries.Join(timeseries.Left, math.NaN(), series...)
	if err != nil {
		return nil, err
	}

	temp := frame.Column("Temperature")
	c := frame.Column("CO2")
	area := frame.Column("Area_Deforested")

	samples := make([]Sample, 0, frame.Len())
	for i, t := range frame.Timestamps {
		if math.IsNaN(temp[i]) || math.IsNaN(c[i]) {
			continue
		}
		a := math.NaN()
		if area != nil {
			a = area[i]
		}
		if math.IsNaN(a) {
			if missing == MissingDrop {
				continue
			}
			a = 0
		}
		samples = append(samples, Sample{
			Time:     t,
			Features: []float64{c[i], a, float64(t.Year()), float64(t.Month())},
			Target:   temp[i],
		})
	}
	return samples, nil
}

func withName(s *timeseries.Series, name string) *timeseries.Series {
	c := *s
	c.Name = name
	return &c
}

// Split partitions samples chronologically: train holds years before
// splitYear, test the rest. Either side being empty is a fitting error.
func Split(samples []Sample, splitYear int) (train, test []Sample, err error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: no joined samples", errEmptyPartition)
	}
	minYear, maxYear := samples[0].Year(), samples[0].Year()
	for _, s := range samples {
		minYear = min(minYear, s.Year())
		maxYear = max(maxYear, s.Year())
		if s.Year() < splitYear {
			train = append(train, s)
		} else {
			test = append(test, s)
		}
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("%w: split year %d outside data years %d..%d (train %d, test %d)",
			errEmptyPartition, splitYear, minYear, maxYear, len(train), len(test))
	}
	return train, test, nil
}

// Regress trains on the years before SplitYear and returns a prediction
// with its observation for every test date, plus MSE, R² and MAE.
func (r *ForestRegressor) Regress(temperature, co2, deforestation *timeseries.Series) (*Result, error) {
	unit := r.Name()
	if temperature == nil || co2 == nil {
		return nil, apperr.Input(unit, "load", errors.New("temperature and CO2 series are required"))
	}
	if r.Trees < 1 {
		return nil, apperr.Validation(unit, "configure", fmt.Errorf("need at least one tree, got %d", r.Trees))
	}

	samples, err := BuildSamples(temperature, co2, deforestation, r.Missing)
	if err != nil {
		return nil, apperr.Computation(unit, "join", err)
	}
	train, test, err := Split(samples, r.SplitYear)
	if err != nil {
		return nil, classify(unit, "split", err)
	}

	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, s := range train {
		x[i], y[i] = s.Features, s.Target
	}
	minSplit := r.MinSplit
	if minSplit < 2 {
		minSplit = 2
	}
	forest, err := fitForest(x, y, r.Trees, r.Seed, treeParams{minSplit: minSplit, maxDepth: r.MaxDepth})
	if err != nil {
		return nil, apperr.Computation(unit, "fit", err)
	}

	result := &Result{
		Model:  unit,
		Target: timeseries.Temperature,
		Points: make([]Prediction, len(test)),
	}
	actual := make([]float64, len(test))
	predicted := make([]float64, len(test))
	for i, s := range test {
		actual[i] = s.Target
		predicted[i] = forest.predict(s.Features)
		result.Points[i] = Prediction{Time: s.Time, Predicted: predicted[i], Actual: ptr(actual[i])}
	}
	result.Metrics = Evaluate(actual, predicted)
	result.Diagnostics = map[string]float64{
		"train_rows": float64(len(train)),
		"test_rows":  float64(len(test)),
		"split_year": float64(r.SplitYear),
	}
	return result, nil
}
