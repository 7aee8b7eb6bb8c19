// Package forecast produces side-by-side forecasts from independent models.
//
// Three strategies are provided:
//   - ARIMAForecaster: ARIMA(p,d,q) on the daily forward-filled series,
//     rolled up to calendar-year means
//   - TrendSeasonalForecaster: piecewise-linear trend with changepoints plus
//     yearly Fourier terms, fitted on the raw observations
//   - ForestRegressor: random forest of regression trees predicting
//     temperature from CO2, deforestation and the calendar, validated on a
//     chronological split
//
// An Ensemble runs any mix of them concurrently and writes one predictions
// CSV per result. Results are reported as they are; combining them is left
// to the caller.
//
//	ens := forecast.NewEnsemble(dir, log,
//	    forecast.NewARIMAForecaster(2, 1, 2),
//	    forecast.NewTrendSeasonalForecaster(25, 10))
//	for _, o := range ens.Forecast(temperature, 30) {
//	    if o.Err != nil {
//	        // the other models still ran
//	    }
//	}
package forecast
