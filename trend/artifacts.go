package trend

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

// Artifact file names written into the processed directory.
const (
	DecompositionPlotFile = "temp_decomposition.png"
	DecompositionCSVFile  = "temperature_decomposition.csv"
	DecadalFile           = "decadal_temperature.csv"
	AnnualCO2File         = "annual_co2.csv"
	CorrelationFile       = "correlation_matrix.csv"
	RegressionFile        = "co2_temp_regression.csv"
)

func writeRows(w io.Writer, header []string, n int, row func(i int) []string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDecompositionCSV writes Date,Observed,Trend,Seasonal,Residual.
// Undefined trend and residual values are empty cells.
func WriteDecompositionCSV(w io.Writer, d *stats.DecompositionResult) error {
	header := []string{"Date", "Observed", "Trend", "Seasonal", "Residual"}
	return writeRows(w, header, d.Original.Len(), func(i int) []string {
		return []string{
			d.Original.Timestamps[i].Format(timeseries.DateLayout),
			timeseries.FormatValue(d.Original.Values[i]),
			timeseries.FormatValue(d.Trend.Values[i]),
			timeseries.FormatValue(d.Seasonal.Values[i]),
			timeseries.FormatValue(d.Residual.Values[i]),
		}
	})
}

// WriteDecadalCSV writes Decade,Temperature.
func WriteDecadalCSV(w io.Writer, decades []timeseries.PeriodAggregate) error {
	return writeRows(w, []string{"Decade", timeseries.Temperature.Column()}, len(decades), func(i int) []string {
		return []string{strconv.Itoa(decades[i].Key), timeseries.FormatValue(decades[i].Mean)}
	})
}

// WriteAnnualCO2CSV writes Date,CO2,Year.
func WriteAnnualCO2CSV(w io.Writer, r *CO2TrendResult) error {
	a := r.Annual
	return writeRows(w, []string{"Date", timeseries.CO2.Column(), "Year"}, a.Len(), func(i int) []string {
		return []string{
			a.Timestamps[i].Format(timeseries.DateLayout),
			timeseries.FormatValue(a.Values[i]),
			strconv.Itoa(a.Timestamps[i].Year()),
		}
	})
}

// WriteRegressionCSV writes Date,CO2,Temperature,Predicted.
func WriteRegressionCSV(w io.Writer, r *RegressionResult) error {
	co2 := r.Frame.Column(timeseries.CO2.Column())
	temp := r.Frame.Column(timeseries.Temperature.Column())
	predicted := r.Predicted()
	header := []string{"Date", timeseries.CO2.Column(), timeseries.Temperature.Column(), "Predicted"}
	return writeRows(w, header, r.Frame.Len(), func(i int) []string {
		return []string{
			r.Frame.Timestamps[i].Format(timeseries.DateLayout),
			timeseries.FormatValue(co2[i]),
			timeseries.FormatValue(temp[i]),
			timeseries.FormatValue(predicted[i]),
		}
	})
}
