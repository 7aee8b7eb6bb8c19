// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// Parameters are estimated by conditional sum of squares, starting from
// Yule-Walker estimates for the AR terms.
//
// # Basic Usage
//
//	model := arima.New(2, 1, 2)
//	if err := model.Fit(daily); err != nil {
//	    return err
//	}
//
//	// Forecasts are returned on the original scale.
//	forecasts, _ := model.Predict(365)
//
// # Diagnostics
//
//	summary := model.Summary()
//	fmt.Printf("AIC: %.2f, Ljung-Box p: %.3f\n", summary.AIC, summary.LjungBox.PValue)
package arima
