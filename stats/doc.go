// Package stats provides the statistical building blocks of the climate
// pipeline: decomposition, regression, correlation and residual diagnostics.
//
// # Decomposition
//
// Split an annual series into trend, seasonal and residual components:
//
//	decomp, err := stats.Decompose(annual, 10)
//	// decomp.Trend is NaN for the first and last period/2 points
//
// # Regression and Correlation
//
//	fit, err := stats.LinRegress(years, co2)
//	fmt.Printf("%.3f ppm/year (p=%.2g)\n", fit.Slope, fit.PValue)
//
//	matrix, err := stats.Correlate(frame)
//	r, _ := matrix.Get("Temperature", "CO2")
//
// Correlation matrices round-trip through CSV with WriteCSV and
// ReadCorrelationCSV.
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.PValue > 0.05 {
//	    // Residuals are white noise (good)
//	}
//
// # Robust Summaries
//
// Quantile and RollingMeanStd back the IQR and rolling z-score outlier rules.
package stats
