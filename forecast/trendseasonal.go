package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

const (
	daysPerYear       = 365.25
	minSeasonalSpan   = 2 * daysPerYear * 24 * time.Hour
	defaultCPRange    = 0.8
	defaultCPPenalty  = 1.0
	defaultSeaPenalty = 0.1
)

// TrendSeasonalForecaster models a series as a piecewise-linear trend plus
// a yearly Fourier seasonality, fitted by penalised least squares on the raw
// (date, value) pairs.
//
// Potential changepoints are spread evenly over the first ChangepointRange
// share of the observations; the slope change at each is ridge-penalised so
// only the changes the data supports survive.
type TrendSeasonalForecaster struct {
	Changepoints       int
	ChangepointRange   float64
	FourierOrder       int
	ChangepointPenalty float64
	SeasonalPenalty    float64
}

// NewTrendSeasonalForecaster returns a forecaster with the given number of
// potential changepoints and Fourier order.
func NewTrendSeasonalForecaster(changepoints, fourierOrder int) *TrendSeasonalForecaster {
	return &TrendSeasonalForecaster{
		Changepoints:       changepoints,
		ChangepointRange:   defaultCPRange,
		FourierOrder:       fourierOrder,
		ChangepointPenalty: defaultCPPenalty,
		SeasonalPenalty:    defaultSeaPenalty,
	}
}

// Name returns ModelTrend.
func (f *TrendSeasonalForecaster) Name() string { return ModelTrend }

// trendModel is a fitted TrendSeasonalForecaster.
type trendModel struct {
	start, end   time.Time
	scale        float64 // max |y|
	changepoints []float64
	order        int // 0: no seasonality
	beta         []float64
}

// Forecast returns the fitted value at every observed date, each paired with
// its observation, followed by horizonYears year-end dates after the last
// observation.
func (f *TrendSeasonalForecaster) Forecast(series *timeseries.Series, horizonYears int) (*Result, error) {
	if err := checkInput(f.Name(), series, horizonYears); err != nil {
		return nil, err
	}

	var times []time.Time
	var ys []float64
	for i, v := range series.Values {
		if !math.IsNaN(v) {
			times = append(times, series.Timestamps[i])
			ys = append(ys, v)
		}
	}

	model, err := f.fit(times, ys)
	if err != nil {
		return nil, classify(f.Name(), "fit", err)
	}

	result := &Result{
		Model:  f.Name(),
		Target: series.Domain,
		Points: make([]Prediction, 0, len(times)+horizonYears),
	}
	fitted := make([]float64, len(times))
	for i, t := range times {
		fitted[i] = model.predict(t)
		result.Points = append(result.Points, Prediction{Time: t, Predicted: fitted[i], Actual: ptr(ys[i])})
	}
	result.Metrics = Evaluate(ys, fitted)

	last := times[len(times)-1]
	next := timeseries.YearEnd(last.Year())
	if !next.After(last) {
		next = timeseries.YearEnd(last.Year() + 1)
	}
	for h := 0; h < horizonYears; h++ {
		t := timeseries.YearEnd(next.Year() + h)
		result.Points = append(result.Points, Prediction{Time: t, Predicted: model.predict(t)})
	}

	result.Diagnostics = map[string]float64{
		"changepoints":  float64(len(model.changepoints)),
		"fourier_order": float64(model.order),
		"final_slope":   model.slopeAt(1) * model.scale / model.span(),
	}
	return result, nil
}

func (f *TrendSeasonalForecaster) fit(times []time.Time, ys []float64) (*trendModel, error) {
	n := len(times)
	if n < 3 {
		return nil, fmt.Errorf("%w: trend model needs 3 points, got %d", stats.ErrInsufficientData, n)
	}
	m := &trendModel{start: times[0], end: times[n-1], scale: 1}
	if !m.end.After(m.start) {
		return nil, fmt.Errorf("%w: observations span no time", stats.ErrInsufficientData)
	}
	for _, y := range ys {
		m.scale = math.Max(m.scale, math.Abs(y))
	}

	// Changepoints at evenly spaced observations inside the first part of
	// the history.
	cpRange := f.ChangepointRange
	if cpRange <= 0 || cpRange > 1 {
		cpRange = defaultCPRange
	}
	hist := int(math.Floor(float64(n) * cpRange))
	k := f.Changepoints
	if k > hist-1 {
		k = hist - 1
	}
	for j := 1; j <= k; j++ {
		idx := int(math.Round(float64(j) * float64(hist-1) / float64(k)))
		m.changepoints = append(m.changepoints, m.scaled(times[idx]))
	}

	if f.FourierOrder > 0 && m.end.Sub(m.start) >= minSeasonalSpan {
		m.order = f.FourierOrder
	}

	cols := 2 + len(m.changepoints) + 2*m.order
	x := mat.NewDense(n, cols, nil)
	y := mat.NewVecDense(n, nil)
	for i, t := range times {
		x.SetRow(i, m.features(t))
		y.SetVec(i, ys[i]/m.scale)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for c := 2; c < cols; c++ {
		penalty := f.ChangepointPenalty
		if c >= 2+len(m.changepoints) {
			penalty = f.SeasonalPenalty
		}
		xtx.Set(c, c, xtx.At(c, c)+penalty)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(cols, xtx.RawMatrix().Data)); !ok {
		return nil, errors.New("normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	m.beta = make([]float64, cols)
	for i := range m.beta {
		m.beta[i] = beta.AtVec(i)
	}
	for _, b := range m.beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, errors.New("non-finite coefficient")
		}
	}
	return m, nil
}

func (m *trendModel) span() float64 {
	return m.end.Sub(m.start).Hours() / 24 / daysPerYear
}

// scaled maps t onto [0, 1] over the fitted history.
func (m *trendModel) scaled(t time.Time) float64 {
	return float64(t.Sub(m.start)) / float64(m.end.Sub(m.start))
}

// features is the design row for t: intercept, slope, one hinge per
// changepoint, then sin/cos pairs of the yearly cycle.
func (m *trendModel) features(t time.Time) []float64 {
	s := m.scaled(t)
	row := make([]float64, 0, 2+len(m.changepoints)+2*m.order)
	row = append(row, 1, s)
	for _, cp := range m.changepoints {
		row = append(row, math.Max(0, s-cp))
	}
	yearFrac := float64(t.Unix()) / 86400 / daysPerYear
	for k := 1; k <= m.order; k++ {
		angle := 2 * math.Pi * float64(k) * yearFrac
		row = append(row, math.Sin(angle), math.Cos(angle))
	}
	return row
}

func (m *trendModel) predict(t time.Time) float64 {
	row := m.features(t)
	v := 0.0
	for i, x := range row {
		v += m.beta[i] * x
	}
	return v * m.scale
}

// slopeAt returns the trend slope in scaled units at scaled time s.
func (m *trendModel) slopeAt(s float64) float64 {
	slope := m.beta[1]
	for j, cp := range m.changepoints {
		if s > cp {
			slope += m.beta[2+j]
		}
	}
	return slope
}
