package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/sartorproj/climatrend/arima"
	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

// DaysPerYear is the number of daily steps forecast per horizon year.
const DaysPerYear = 365

// ARIMAForecaster fits an ARIMA model to the daily forward-filled series and
// reports the daily forecasts as calendar-year means.
type ARIMAForecaster struct {
	Order arima.Order
}

// NewARIMAForecaster returns a forecaster with the given order.
func NewARIMAForecaster(p, d, q int) *ARIMAForecaster {
	return &ARIMAForecaster{Order: arima.Order{P: p, D: d, Q: q}}
}

// Name returns ModelARIMA.
func (f *ARIMAForecaster) Name() string { return ModelARIMA }

// Forecast predicts horizonYears·365 days starting the day after the last
// observation. Partial calendar years at either end are averaged over the
// days they contain.
func (f *ARIMAForecaster) Forecast(series *timeseries.Series, horizonYears int) (*Result, error) {
	if err := checkInput(f.Name(), series, horizonYears); err != nil {
		return nil, err
	}

	daily := timeseries.ForwardFillDaily(series)
	model := arima.New(f.Order.P, f.Order.D, f.Order.Q)
	if err := model.Fit(daily); err != nil {
		return nil, classify(f.Name(), "fit", err)
	}

	steps := horizonYears * DaysPerYear
	values, err := model.Predict(steps)
	if err != nil {
		return nil, classify(f.Name(), "predict", err)
	}

	last := daily.Last()
	dates := make([]time.Time, steps)
	for i := range dates {
		dates[i] = last.AddDate(0, 0, i+1)
	}
	future, err := timeseries.NewWithTimestamps(dates, values)
	if err != nil {
		return nil, apperr.Computation(f.Name(), "rollup", err)
	}
	annual := timeseries.Resample(future, timeseries.Annual)

	result := &Result{
		Model:  f.Name(),
		Target: series.Domain,
		Points: make([]Prediction, annual.Len()),
	}
	for i := range annual.Values {
		result.Points[i] = Prediction{Time: annual.Timestamps[i], Predicted: annual.Values[i]}
	}

	summary := model.Summary()
	result.Diagnostics = map[string]float64{
		"aic":     summary.AIC,
		"bic":     summary.BIC,
		"sigma2":  summary.Variance,
		"n_obs":   float64(summary.NObs),
		"order_p": float64(f.Order.P),
		"order_d": float64(f.Order.D),
		"order_q": float64(f.Order.Q),
	}
	// Residuals with no variance have no Ljung-Box statistic.
	if lb := summary.LjungBox; lb != nil {
		result.Diagnostics["lb_stat"] = lb.Statistic
		result.Diagnostics["lb_p"] = lb.PValue
		result.Diagnostics["lb_lags"] = float64(lb.Lags)
	}
	return result, nil
}

func checkInput(unit string, series *timeseries.Series, horizonYears int) error {
	if series == nil || series.Len() == 0 {
		return apperr.Input(unit, "load", errors.New("series not available"))
	}
	if horizonYears < 1 {
		return apperr.Validation(unit, "horizon", fmt.Errorf("horizon must be at least one year, got %d", horizonYears))
	}
	return nil
}

// classify maps model sentinels onto the error taxonomy.
func classify(unit, stage string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stats.ErrInsufficientData), errors.Is(err, errEmptyPartition):
		return apperr.Fitting(unit, stage, err)
	default:
		return apperr.Computation(unit, stage, err)
	}
}
