package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/timeseries"
)

func TestIQRRule(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100}

	keep := IQRRule{Factor: 1.5}.Keep(values)
	for i, ok := range keep[:10] {
		assert.True(t, ok, "value %v should be kept", values[i])
	}
	assert.False(t, keep[10])
}

func TestRollingZScoreRuleKeepsShortWindows(t *testing.T) {
	keep := RollingZScoreRule{Window: 30, Sigma: 3}.Keep([]float64{5, 500})
	assert.Equal(t, []bool{true, true}, keep)
}

func TestCleanRegions(t *testing.T) {
	records := []timeseries.RegionRecord{
		{Year: 2001, Region: "BRA", Area: 10},
		{Year: 2001, Region: "IDN", Area: 12},
		{Year: 2002, Region: "BRA", Area: 11},
		{Year: 2002, Region: "IDN", Area: 13},
		{Year: 2003, Region: "BRA", Area: 9},
		{Year: 2003, Region: "IDN", Area: 500},
		{Year: 2003, Region: "PER", Area: -4},
		{Year: 2003, Region: "XXX", Area: 10},
	}

	cleaned, report, err := CleanRegions(records, policy(t, timeseries.Deforestation), nil)
	require.NoError(t, err)

	assert.Len(t, cleaned, 5)
	assert.Equal(t, 1, report.UnknownRegion)
	assert.Equal(t, 1, report.Removed["range"])
	assert.Equal(t, 1, report.Removed["iqr"])
	for _, rec := range cleaned {
		assert.NotEqual(t, 500.0, rec.Area)
		assert.GreaterOrEqual(t, rec.Area, 0.0)
	}
}

func TestCleanRegionsCustomWhitelist(t *testing.T) {
	records := []timeseries.RegionRecord{
		{Year: 2001, Region: "BRA", Area: 10},
		{Year: 2001, Region: "IDN", Area: 12},
	}

	cleaned, _, err := CleanRegions(records, policy(t, timeseries.Deforestation), []string{"idn"})
	require.NoError(t, err)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "IDN", cleaned[0].Region)

	_, _, err = CleanRegions(records, policy(t, timeseries.Deforestation), []string{"USA"})
	assert.ErrorIs(t, err, apperr.ErrEmptyResult)
}

func TestAnnualDeforestation(t *testing.T) {
	records := []timeseries.RegionRecord{
		{Year: 2002, Region: "BRA", Area: 11},
		{Year: 2001, Region: "BRA", Area: 10},
		{Year: 2001, Region: "IDN", Area: 12},
	}

	sum := AnnualDeforestation(records, Aggregation{})
	assert.Equal(t, []float64{22, 11}, sum.Values)
	assert.Equal(t, timeseries.YearEnd(2001), sum.Timestamps[0])
	assert.Equal(t, timeseries.Deforestation, sum.Domain)

	idn := AnnualDeforestation(records, Aggregation{Region: "IDN"})
	assert.Equal(t, []float64{12}, idn.Values)
}

func TestParseAggregation(t *testing.T) {
	tests := []struct {
		in      string
		want    Aggregation
		wantErr bool
	}{
		{"sum", Aggregation{}, false},
		{"SUM", Aggregation{}, false},
		{"region:bra", Aggregation{Region: "BRA"}, false},
		{"region:BRAZIL", Aggregation{}, true},
		{"mean", Aggregation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAggregation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}
