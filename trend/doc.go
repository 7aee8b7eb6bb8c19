// Package trend computes descriptive statistics over cleaned climate series.
//
// Five analyses run independently and concurrently:
//   - additive decomposition of annual mean temperature
//   - decadal mean temperature
//   - linear trend of annual mean CO2
//   - Pearson correlation of annual temperature, CO2 and sea level
//   - regression of temperature on CO2 over shared dates
//
// Each analysis is also available as a plain function (DecomposeTemperature,
// FitCO2Trend, ...) for callers that do not want files written.
package trend
