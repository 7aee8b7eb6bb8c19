package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing required column")

// DateLayout is the date format of every CSV artifact.
const DateLayout = "2006-01-02"

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (default: "Date")
	ValueColumn string // Column name for values (default: the domain column)
	DateFormat  string // Preferred date format (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns the options matching a domain's input schema.
func DefaultCSVOptions(domain Domain) *CSVOptions {
	return &CSVOptions{
		DateColumn:  "Date",
		ValueColumn: domain.Column(),
		DateFormat:  DateLayout,
		Delimiter:   ',',
	}
}

// LoadStats counts what the loader saw.
type LoadStats struct {
	Rows      int // data rows read
	Malformed int // rows dropped: bad timestamp, bad value, wrong shape
	Missing   int // rows kept with a missing value
}

// LoadCSV loads a domain series from a CSV file.
func LoadCSV(filename string, domain Domain, opts *CSVOptions) (*Series, *LoadStats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, domain, opts)
}

// LoadCSVFromReader loads a domain series from an io.Reader. Empty, NA, NaN
// and null values are kept as missing (NaN). Rows whose date or non-empty
// value cannot be parsed are dropped and counted as malformed.
func LoadCSVFromReader(r io.Reader, domain Domain, opts *CSVOptions) (*Series, *LoadStats, error) {
	if opts == nil {
		opts = DefaultCSVOptions(domain)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file, want %q and %q", ErrMissingColumn, opts.DateColumn, opts.ValueColumn)
	}
	if err != nil {
		return nil, nil, err
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch h {
		case opts.DateColumn:
			dateIdx = i
		case opts.ValueColumn:
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.DateColumn)
	}
	if valueIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.ValueColumn)
	}

	stats := &LoadStats{}
	series := &Series{
		Name:   domain.Column(),
		Domain: domain,
		Bounds: domain.DefaultBounds(),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Rows++
				stats.Malformed++
				continue
			}
			return nil, nil, err
		}
		stats.Rows++

		if dateIdx >= len(record) || valueIdx >= len(record) {
			stats.Malformed++
			continue
		}

		ts, err := parseDate(strings.TrimSpace(record[dateIdx]), opts.DateFormat)
		if err != nil {
			stats.Malformed++
			continue
		}

		valStr := strings.TrimSpace(record[valueIdx])
		var val float64
		if isMissing(valStr) {
			val = math.NaN()
			stats.Missing++
		} else {
			val, err = strconv.ParseFloat(valStr, 64)
			if err != nil || math.IsInf(val, 0) {
				stats.Malformed++
				continue
			}
		}

		series.Timestamps = append(series.Timestamps, ts)
		series.Values = append(series.Values, val)
	}

	if series.Timestamps == nil {
		series.Timestamps = []time.Time{}
		series.Values = []float64{}
	}
	return series, stats, nil
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}

func parseDate(s, preferred string) (time.Time, error) {
	formats := []string{
		preferred,
		DateLayout,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006/01/02",
		"2006-01",
	}
	var lastErr error
	for _, layout := range formats {
		if layout == "" {
			continue
		}
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// WriteCSV writes the series as a Date column followed by its value column.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, s *Series) error {
	column := s.Name
	if column == "" {
		column = s.Domain.Column()
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Date", column}); err != nil {
		return err
	}
	for i, v := range s.Values {
		if err := writer.Write([]string{s.Timestamps[i].Format(DateLayout), FormatValue(v)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatValue renders a float for CSV output; NaN becomes an empty cell.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
