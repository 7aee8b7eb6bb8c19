package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sartorproj/climatrend/internal/artifact"
	"github.com/sartorproj/climatrend/timeseries"
)

// CSVStore keeps one CSV file per domain in Dir.
type CSVStore struct {
	Dir string
}

// NewCSVStore returns a store writing into dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

// Path returns the file a domain is stored in.
func (s *CSVStore) Path(domain timeseries.Domain) string {
	return filepath.Join(s.Dir, FileName(domain))
}

// SaveSeries writes the series to its domain file atomically.
func (s *CSVStore) SaveSeries(series *timeseries.Series) error {
	if series == nil {
		return errors.New("nil series")
	}
	return artifact.Write(s.Path(series.Domain), func(w io.Writer) error {
		return timeseries.WriteCSV(w, series)
	})
}

// LoadSeries reads a domain file. Malformed rows are an error here, since
// the file was written by SaveSeries.
func (s *CSVStore) LoadSeries(domain timeseries.Domain) (*timeseries.Series, error) {
	path := s.Path(domain)
	series, stats, err := timeseries.LoadCSV(path, domain, timeseries.DefaultCSVOptions(domain))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if stats.Malformed > 0 {
		return nil, fmt.Errorf("load %s: %d malformed rows in cleaned data", path, stats.Malformed)
	}
	return series, nil
}

// SaveRegions writes cleaned_deforestation.csv atomically.
func (s *CSVStore) SaveRegions(records []timeseries.RegionRecord) error {
	return artifact.Write(s.Path(timeseries.Deforestation), func(w io.Writer) error {
		return timeseries.WriteRegionsCSV(w, records)
	})
}

// LoadRegions reads cleaned_deforestation.csv.
func (s *CSVStore) LoadRegions() ([]timeseries.RegionRecord, error) {
	path := s.Path(timeseries.Deforestation)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := timeseries.LoadRegionsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return records, nil
}

// Close is a no-op.
func (s *CSVStore) Close() error { return nil }
