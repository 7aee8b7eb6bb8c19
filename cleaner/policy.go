package cleaner

import (
	"fmt"
	"time"

	"github.com/sartorproj/climatrend/timeseries"
)

// Interval is a nominal calendar step between observations.
type Interval struct {
	Years, Months, Days int
}

// IsZero reports whether no interval is declared.
func (i Interval) IsZero() bool {
	return i.Years == 0 && i.Months == 0 && i.Days == 0
}

// step returns t advanced by k intervals.
func (i Interval) step(t time.Time, k int) time.Time {
	return t.AddDate(k*i.Years, k*i.Months, k*i.Days)
}

// Policy is the cleaning recipe of one domain.
type Policy struct {
	Domain   timeseries.Domain
	Bounds   timeseries.Bounds
	Interval Interval // zero: irregular series, no gap insertion
	Rules    []Rule
}

// Options tunes the default policies.
type Options struct {
	IQRFactor           float64
	SeaLevelWindow      int
	SeaLevelSigma       float64
	TemperatureInterval Interval
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		IQRFactor:           1.5,
		SeaLevelWindow:      30,
		SeaLevelSigma:       3,
		TemperatureInterval: Interval{Days: 1},
	}
}

// Policies returns the dispatch table from domain to policy. Adding a domain
// means adding an entry here.
func Policies(opts Options) map[timeseries.Domain]Policy {
	return map[timeseries.Domain]Policy{
		timeseries.Temperature: {
			Domain:   timeseries.Temperature,
			Bounds:   timeseries.Temperature.DefaultBounds(),
			Interval: opts.TemperatureInterval,
			Rules:    []Rule{RangeRule{Bounds: timeseries.Temperature.DefaultBounds()}},
		},
		timeseries.CO2: {
			Domain: timeseries.CO2,
			Bounds: timeseries.CO2.DefaultBounds(),
			Rules:  []Rule{RangeRule{Bounds: timeseries.CO2.DefaultBounds()}},
		},
		timeseries.SeaLevel: {
			Domain: timeseries.SeaLevel,
			Bounds: timeseries.SeaLevel.DefaultBounds(),
			Rules:  []Rule{RollingZScoreRule{Window: opts.SeaLevelWindow, Sigma: opts.SeaLevelSigma}},
		},
		timeseries.Deforestation: {
			Domain: timeseries.Deforestation,
			Bounds: timeseries.Deforestation.DefaultBounds(),
			Rules: []Rule{
				RangeRule{Bounds: timeseries.Deforestation.DefaultBounds()},
				IQRRule{Factor: opts.IQRFactor},
			},
		},
	}
}

// PolicyFor looks up a domain in the table built from opts.
func PolicyFor(domain timeseries.Domain, opts Options) (Policy, error) {
	p, ok := Policies(opts)[domain]
	if !ok {
		return Policy{}, fmt.Errorf("no cleaning policy for domain %q", domain)
	}
	return p, nil
}
