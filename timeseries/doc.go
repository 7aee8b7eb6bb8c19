// Package timeseries provides the climate series data structures and the
// loading, resampling and joining utilities shared by the cleaner, the trend
// analyzer and the forecast models.
//
// # Series and Domains
//
// A Series is an ordered sequence of timestamped float64 values tagged with
// the Domain it measures. Missing readings are NaN until cleaning removes or
// interpolates them:
//
//	s := timeseries.FromPoints(timeseries.CO2, points)
//	fmt.Println(s.Domain.Column(), s.Bounds) // CO2 (250, 5000)
//
// # Loading
//
// Each domain file has a Date column and the domain's value column.
// Malformed rows are dropped and counted rather than failing the load:
//
//	s, stats, err := timeseries.LoadCSV("co2.csv", timeseries.CO2, nil)
//	fmt.Println(stats.Malformed, stats.Missing)
//
// Deforestation arrives as a JSON array of region-year records:
//
//	records, stats, err := timeseries.LoadRegionsJSON("deforestation.json")
//
// # Resampling and Joining
//
// Aggregate groups a series by calendar year or decade; Resample returns the
// same means as a series stamped at December 31. Join aligns several series
// on exact timestamps, and ResampleJoin combines both steps:
//
//	frame, err := timeseries.ResampleJoin(timeseries.Annual, timeseries.Inner, math.NaN(),
//	    temperature, co2, seaLevel)
//	frame = frame.DropMissing()
package timeseries
