package trend

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

// Analysis names, also used as the unit in errors and log fields.
const (
	Decomposition = "decomposition"
	Decadal       = "decadal"
	CO2Trend      = "co2_trend"
	Correlation   = "correlation"
	Regression    = "co2_temperature_regression"
)

// Analyses lists every analysis in report order.
var Analyses = []string{Decomposition, Decadal, CO2Trend, Correlation, Regression}

var errNoSeries = errors.New("series not available")

// classify maps statistical sentinels onto the error taxonomy.
func classify(unit, stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, stats.ErrInsufficientData) {
		return apperr.Fitting(unit, stage, err)
	}
	return apperr.Computation(unit, stage, err)
}

func needSeries(unit string, series ...*timeseries.Series) error {
	for _, s := range series {
		if s == nil || s.Len() == 0 {
			return apperr.Input(unit, "load", errNoSeries)
		}
	}
	return nil
}

// named returns a shallow copy of s labelled with its domain column.
func named(s *timeseries.Series) *timeseries.Series {
	c := *s
	c.Name = s.Domain.Column()
	return &c
}

// DecomposeTemperature averages temperature per calendar year and splits the
// annual series into trend, seasonal and residual parts.
func DecomposeTemperature(temperature *timeseries.Series, period int) (*stats.DecompositionResult, error) {
	if err := needSeries(Decomposition, temperature); err != nil {
		return nil, err
	}
	annual := timeseries.ResampleFilled(temperature, timeseries.Annual)
	for i, v := range annual.Values {
		if math.IsNaN(v) {
			return nil, apperr.Fitting(Decomposition, "resample",
				fmt.Errorf("no temperature observations in %d; seasonal phase needs consecutive years", annual.Timestamps[i].Year()))
		}
	}
	result, err := stats.Decompose(annual, period)
	return result, classify(Decomposition, "decompose", err)
}

// DecadalTemperature averages raw temperature observations per decade.
func DecadalTemperature(temperature *timeseries.Series) ([]timeseries.PeriodAggregate, error) {
	if err := needSeries(Decadal, temperature); err != nil {
		return nil, err
	}
	return timeseries.Aggregate(temperature, timeseries.Decadal), nil
}

// CO2TrendResult is the linear trend of annual mean CO2 against the year.
type CO2TrendResult struct {
	Annual *timeseries.Series
	Fit    *stats.RegressionResult
}

// SlopePerYear is the fitted growth rate in ppm per year.
func (r *CO2TrendResult) SlopePerYear() float64 { return r.Fit.Slope }

// FitCO2Trend regresses annual mean CO2 on the calendar year.
func FitCO2Trend(co2 *timeseries.Series) (*CO2TrendResult, error) {
	if err := needSeries(CO2Trend, co2); err != nil {
		return nil, err
	}
	annual := timeseries.Resample(co2, timeseries.Annual)
	years := make([]float64, annual.Len())
	for i, t := range annual.Timestamps {
		years[i] = float64(t.Year())
	}
	fit, err := stats.LinRegress(years, annual.Values)
	if err != nil {
		return nil, classify(CO2Trend, "regress", err)
	}
	return &CO2TrendResult{Annual: annual, Fit: fit}, nil
}

// Correlate builds the Pearson matrix of annual temperature, CO2 and sea
// level over the years all three cover.
func Correlate(temperature, co2, seaLevel *timeseries.Series) (*stats.CorrelationMatrix, error) {
	if err := needSeries(Correlation, temperature, co2, seaLevel); err != nil {
		return nil, err
	}
	frame, err := timeseries.ResampleJoin(timeseries.Annual, timeseries.Inner, math.NaN(),
		named(temperature), named(co2), named(seaLevel))
	if err != nil {
		return nil, apperr.Computation(Correlation, "join", err)
	}
	m, err := stats.Correlate(frame)
	return m, classify(Correlation, "correlate", err)
}

// RegressionResult pairs the CO2/temperature fit with the rows it was fitted on.
type RegressionResult struct {
	Frame *timeseries.Frame // columns CO2, Temperature
	Fit   *stats.RegressionResult
}

// Predicted returns the fitted temperature for each joined row.
func (r *RegressionResult) Predicted() []float64 {
	co2 := r.Frame.Column(timeseries.CO2.Column())
	out := make([]float64, len(co2))
	for i, x := range co2 {
		out[i] = r.Fit.Predict(x)
	}
	return out
}

// RegressTemperatureOnCO2 fits temperature = slope·CO2 + intercept over the
// dates where both series have an observation.
func RegressTemperatureOnCO2(temperature, co2 *timeseries.Series) (*RegressionResult, error) {
	if err := needSeries(Regression, temperature, co2); err != nil {
		return nil, err
	}
	frame, err := timeseries.Join(timeseries.Inner, math.NaN(), named(co2), named(temperature))
	if err != nil {
		return nil, apperr.Computation(Regression, "join", err)
	}
	frame = frame.DropMissing()

	x := frame.Column(timeseries.CO2.Column())
	y := frame.Column(timeseries.Temperature.Column())
	fit, err := stats.LinRegress(x, y)
	if err != nil {
		return nil, classify(Regression, "regress", fmt.Errorf("%d joined rows: %w", frame.Len(), err))
	}
	return &RegressionResult{Frame: frame, Fit: fit}, nil
}
