package cleaner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/timeseries"
)

// ValidRegions is the default whitelist of ISO 3166-1 alpha-3 codes accepted
// in deforestation records.
var ValidRegions = []string{
	"AGO", "ARG", "AUS", "BDI", "BES", "BGD", "BHS", "BLZ", "BOL", "BRA", "BRN",
	"BTN", "CAF", "CHN", "CIV", "CMR", "COD", "COG", "COL", "CRI", "CUB", "CYM",
	"DMA", "DOM", "ECU", "ETH", "FJI", "GAB", "GHA", "GIN", "GLP", "GNB", "GNQ", "GTM",
	"GUF", "GUY", "HND", "HTI", "IDN", "IND", "JAM", "KEN", "KHM", "KNA", "LAO", "LBR",
	"LCA", "LKA", "MAF", "MDG", "MDV", "MEX", "MMR", "MOZ", "MSR", "MTQ", "MWI", "MYS",
	"NGA", "NIC", "NPL", "PAN", "PER", "PHL", "PLW", "PNG", "PRI", "PRY", "RWA", "SLB",
	"SLE", "SLV", "SSD", "SUR", "SXM", "TCA", "TGO", "THA", "TTO", "TWN", "TZA", "UGA",
	"USA", "VCT", "VEN", "VGB", "VIR", "VNM", "VUT", "ZAF", "ZMB", "ZWE", "BEN", "SEN",
	"SGP", "UMI", "ABW", "ATG", "GMB",
}

// RegionReport counts what CleanRegions removed.
type RegionReport struct {
	Input         int
	UnknownRegion int
	Removed       map[string]int // per rule name
	Output        int
}

// CleanRegions keeps records whose region is in regions (ValidRegions when
// empty), then applies the policy rules in order. Unlike Clean, each rule
// sees only the records that survived the previous ones, so quartiles are
// computed over non-negative, whitelisted areas.
func CleanRegions(records []timeseries.RegionRecord, policy Policy, regions []string) ([]timeseries.RegionRecord, *RegionReport, error) {
	unit := policy.Domain.String()
	if len(regions) == 0 {
		regions = ValidRegions
	}
	allowed := make(map[string]bool, len(regions))
	for _, r := range regions {
		allowed[strings.ToUpper(strings.TrimSpace(r))] = true
	}

	report := &RegionReport{Input: len(records), Removed: make(map[string]int)}
	kept := make([]timeseries.RegionRecord, 0, len(records))
	for _, rec := range records {
		if !allowed[strings.ToUpper(rec.Region)] {
			report.UnknownRegion++
			continue
		}
		kept = append(kept, rec)
	}

	for _, rule := range policy.Rules {
		areas := make([]float64, len(kept))
		for i, rec := range kept {
			areas[i] = rec.Area
		}
		mask := rule.Keep(areas)
		next := kept[:0]
		for i, rec := range kept {
			if mask[i] {
				next = append(next, rec)
			} else {
				report.Removed[rule.Name()]++
			}
		}
		kept = next
	}

	report.Output = len(kept)
	if len(kept) == 0 {
		return nil, report, apperr.Validation(unit, stage, apperr.ErrEmptyResult)
	}
	return kept, report, nil
}

// Aggregation selects how region records collapse into one annual value.
type Aggregation struct {
	Region string // empty: sum across all regions
}

// ParseAggregation accepts "sum" or "region:XXX" with a three-letter code.
func ParseAggregation(s string) (Aggregation, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "sum") {
		return Aggregation{}, nil
	}
	if code, ok := strings.CutPrefix(strings.ToLower(s), "region:"); ok && len(code) == 3 {
		return Aggregation{Region: strings.ToUpper(code)}, nil
	}
	return Aggregation{}, fmt.Errorf("invalid deforestation aggregation %q", s)
}

// String returns the aggregation in the form ParseAggregation accepts.
func (a Aggregation) String() string {
	if a.Region == "" {
		return "sum"
	}
	return "region:" + a.Region
}

// AnnualDeforestation collapses region records into one value per year,
// stamped at December 31. Years with no matching record are absent.
func AnnualDeforestation(records []timeseries.RegionRecord, agg Aggregation) *timeseries.Series {
	totals := make(map[int]float64)
	for _, rec := range records {
		if agg.Region != "" && !strings.EqualFold(rec.Region, agg.Region) {
			continue
		}
		totals[rec.Year] += rec.Area
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	points := make([]timeseries.TimePoint, len(years))
	for i, y := range years {
		points[i] = timeseries.TimePoint{Time: timeseries.YearEnd(y), Value: totals[y]}
	}
	return timeseries.FromPoints(timeseries.Deforestation, points)
}
