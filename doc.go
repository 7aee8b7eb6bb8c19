// Package climatrend is a batch pipeline for climate observation series:
// temperature anomaly, atmospheric CO2, sea level and deforestation area.
//
// # Stages
//
//   - clean: sort, de-duplicate, fill calendar gaps, interpolate in time and
//     drop outliers with a per-domain rule (range, rolling z-score, IQR)
//   - analyze: classical decomposition, decadal means, the CO2 linear trend,
//     a correlation matrix and the CO2/temperature regression
//   - forecast: daily ARIMA rolled up to annual means, a piecewise trend
//     with yearly seasonality, and a random forest regressor, side by side
//
// Every domain, analysis and model is an isolated unit; one failing never
// stops the others. The run summary records each unit's status.
//
// # Quick Start
//
//	climatrend run --config configs/climatrend.yaml
//
// Or from Go:
//
//	cfg, _ := config.Load("configs/climatrend.yaml", nil)
//	st, _ := store.Open(cfg.Store.Driver, cfg.Output.CleanedDir, cfg.Store.Path)
//	summary := pipeline.New(cfg, st, logging.New("info", "text")).Run("run", pipeline.Stages()...)
//	os.Exit(summary.ExitCode())
//
// # Packages
//
//   - timeseries: series types, loading and saving, resample and join
//   - stats: quantiles, decomposition, regression, correlation, Ljung-Box
//   - cleaner: the Series Cleaner and its outlier rules
//   - trend: the Trend Analyzer
//   - arima: ARIMA(p,d,q) estimation and forecasting
//   - forecast: the Forecast Ensemble
//   - store: cleaned series storage (CSV directory or SQLite)
//   - pipeline: stage orchestration and the run summary
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
//   - Breiman, L. (2001). Random Forests. Machine Learning 45(1)
package climatrend
