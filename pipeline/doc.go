// Package pipeline runs the cleaning, trend analysis and forecasting stages
// against one store and records every unit of work in a run summary.
//
// A unit is one domain during cleaning, one analysis, or one model. Units
// never fail each other: each ends as succeeded, partial (its result was
// computed but an artifact could not be written) or failed, and the summary
// turns those statuses into the process exit code.
package pipeline
