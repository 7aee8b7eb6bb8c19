package timeseries

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// RegionRecord is one region-year deforestation observation.
type RegionRecord struct {
	Year   int
	Region string
	Area   float64
}

// YearEnd returns December 31 of the record's year, the timestamp annual
// values are stamped with.
func (r RegionRecord) YearEnd() time.Time {
	return YearEnd(r.Year)
}

type regionJSON struct {
	Year   *json.Number `json:"Year"`
	Region *string      `json:"Region"`
	Area   *json.Number `json:"Area_Deforested"`
}

// LoadRegionsJSON loads deforestation records from a JSON file.
func LoadRegionsJSON(filename string) ([]RegionRecord, *LoadStats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return LoadRegionsJSONFromReader(file)
}

// LoadRegionsJSONFromReader decodes a JSON array of
// {"Year", "Region", "Area_Deforested"} objects. Elements with a missing or
// non-numeric field are counted as malformed and skipped; a null area counts
// as missing.
func LoadRegionsJSONFromReader(r io.Reader) ([]RegionRecord, *LoadStats, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode deforestation records: %w", err)
	}

	stats := &LoadStats{Rows: len(raw)}
	records := make([]RegionRecord, 0, len(raw))
	for _, msg := range raw {
		var rec regionJSON
		d := json.NewDecoder(strings.NewReader(string(msg)))
		d.UseNumber()
		if err := d.Decode(&rec); err != nil || rec.Year == nil || rec.Region == nil {
			stats.Malformed++
			continue
		}
		year, err := rec.Year.Int64()
		if err != nil {
			stats.Malformed++
			continue
		}
		if rec.Area == nil {
			stats.Missing++
			continue
		}
		area, err := rec.Area.Float64()
		if err != nil {
			stats.Malformed++
			continue
		}
		records = append(records, RegionRecord{
			Year:   int(year),
			Region: strings.TrimSpace(*rec.Region),
			Area:   area,
		})
	}
	return records, stats, nil
}

var regionHeader = []string{"Year", "Region", "Area_Deforested"}

// WriteRegionsCSV writes records as Year,Region,Area_Deforested rows.
func WriteRegionsCSV(w io.Writer, records []RegionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(regionHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{strconv.Itoa(rec.Year), rec.Region, FormatValue(rec.Area)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadRegionsCSV reads records written by WriteRegionsCSV.
func LoadRegionsCSV(r io.Reader) ([]RegionRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(regionHeader) {
		return nil, fmt.Errorf("%w: want %v, got %v", ErrMissingColumn, regionHeader, header)
	}
	for i, name := range regionHeader {
		if strings.TrimPrefix(header[i], "\ufeff") != name {
			return nil, fmt.Errorf("%w: want %v, got %v", ErrMissingColumn, regionHeader, header)
		}
	}

	var records []RegionRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		year, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: year: %w", line, err)
		}
		area, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: area: %w", line, err)
		}
		records = append(records, RegionRecord{Year: year, Region: row[1], Area: area})
	}
	return records, nil
}
