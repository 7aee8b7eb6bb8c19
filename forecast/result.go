package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/climatrend/timeseries"
)

// Model names, used in file names, log fields and error units.
const (
	ModelARIMA        = "arima"
	ModelTrend        = "trend"
	ModelRandomForest = "random_forest"
)

// Prediction is one forecast value. Actual is set where an observation
// exists for the same date.
type Prediction struct {
	Time      time.Time
	Predicted float64
	Actual    *float64
}

// Metrics scores predictions against observations.
type Metrics struct {
	MSE      float64
	RSquared float64
	MAE      float64
	N        int
}

// Result is the output of one model run. It is not modified after the
// model returns it.
type Result struct {
	Model       string
	Target      timeseries.Domain
	Points      []Prediction
	Metrics     *Metrics
	Diagnostics map[string]float64
}

// FileName is the predictions artifact name for the result.
func (r *Result) FileName() string {
	if r.Model == ModelRandomForest {
		return "random_forest_predictions.csv"
	}
	return fmt.Sprintf("%s_%s_predictions.csv", r.Model, r.Target)
}

// hasActuals reports whether every point carries an observation.
func (r *Result) hasActuals() bool {
	if len(r.Points) == 0 {
		return false
	}
	for _, p := range r.Points {
		if p.Actual == nil {
			return false
		}
	}
	return true
}

// WriteCSV writes Date,Predicted, or Date,Actual,Predicted when every point
// has an observation.
func (r *Result) WriteCSV(w io.Writer) error {
	withActual := r.hasActuals()
	header := []string{"Date", "Predicted"}
	if withActual {
		header = []string{"Date", "Actual", "Predicted"}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, p := range r.Points {
		row := []string{p.Time.Format(timeseries.DateLayout)}
		if withActual {
			row = append(row, timeseries.FormatValue(*p.Actual))
		}
		row = append(row, timeseries.FormatValue(p.Predicted))
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Evaluate computes MSE, R² and MAE of predicted against actual. R² is 1 for
// a perfect fit of a constant target and 0 otherwise when the target has no
// variance.
func Evaluate(actual, predicted []float64) *Metrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return &Metrics{MSE: math.NaN(), RSquared: math.NaN(), MAE: math.NaN()}
	}
	l2 := floats.Distance(actual, predicted, 2)
	m := &Metrics{
		MSE: l2 * l2 / float64(n),
		MAE: floats.Distance(actual, predicted, 1) / float64(n),
		N:   n,
	}
	if stat.Variance(actual, nil) == 0 || n < 2 {
		if m.MSE == 0 {
			m.RSquared = 1
		}
		return m
	}
	m.RSquared = stat.RSquaredFrom(predicted, actual, nil)
	return m
}

func ptr(v float64) *float64 { return &v }
