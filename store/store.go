package store

import (
	"errors"
	"fmt"

	"github.com/sartorproj/climatrend/timeseries"
)

// ErrNotFound is returned when a domain has never been saved.
var ErrNotFound = errors.New("no cleaned data stored")

// Store persists cleaned series and region records. Saving a domain replaces
// whatever was stored for it before.
type Store interface {
	SaveSeries(s *timeseries.Series) error
	LoadSeries(domain timeseries.Domain) (*timeseries.Series, error)
	SaveRegions(records []timeseries.RegionRecord) error
	LoadRegions() ([]timeseries.RegionRecord, error)
	Close() error
}

// Store drivers accepted by Open.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver. dir is used by the CSV driver, path by
// the SQLite one.
func Open(driver, dir, path string) (Store, error) {
	switch driver {
	case DriverCSV:
		return NewCSVStore(dir), nil
	case DriverSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// FileName returns the cleaned file name of a domain.
func FileName(domain timeseries.Domain) string {
	return "cleaned_" + string(domain) + ".csv"
}
