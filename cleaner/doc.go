// Package cleaner turns raw climate observations into validated series.
//
// Each domain has a Policy: an optional nominal sampling interval and the
// outlier rules that apply to it. Policies are looked up in a table keyed by
// domain, so a new domain registers its own entry without touching the
// others.
//
//	policy, _ := cleaner.PolicyFor(timeseries.SeaLevel, cleaner.DefaultOptions())
//	cleaned, report, err := cleaner.Clean(raw, policy)
//
// Deforestation arrives as region records rather than a series; use
// CleanRegions and AnnualDeforestation for it.
package cleaner
