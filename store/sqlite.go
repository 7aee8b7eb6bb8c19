package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sartorproj/climatrend/timeseries"
)

const schema = `
CREATE TABLE IF NOT EXISTS series (
	domain TEXT NOT NULL,
	ts INTEGER NOT NULL,
	value REAL,
	PRIMARY KEY (domain, ts)
);
CREATE TABLE IF NOT EXISTS region_records (
	year INTEGER NOT NULL,
	region TEXT NOT NULL,
	area REAL NOT NULL
);
`

// SQLiteStore keeps every domain in one database file. Timestamps are stored
// as Unix seconds; missing values as NULL.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Cleaning saves domains concurrently; one connection serialises them.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveSeries replaces the rows of the series domain in one transaction.
func (s *SQLiteStore) SaveSeries(series *timeseries.Series) error {
	if series == nil {
		return errors.New("nil series")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM series WHERE domain = ?`, string(series.Domain)); err != nil {
		return fmt.Errorf("clear %s: %w", series.Domain, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO series (domain, ts, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range series.Values {
		value := sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
		if _, err := stmt.Exec(string(series.Domain), series.Timestamps[i].Unix(), value); err != nil {
			return fmt.Errorf("insert %s row %d: %w", series.Domain, i, err)
		}
	}

	return tx.Commit()
}

// LoadSeries returns the stored series ordered by time.
func (s *SQLiteStore) LoadSeries(domain timeseries.Domain) (*timeseries.Series, error) {
	rows, err := s.db.Query(`SELECT ts, value FROM series WHERE domain = ? ORDER BY ts`, string(domain))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []timeseries.TimePoint
	for rows.Next() {
		var ts int64
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}
		points = append(points, timeseries.TimePoint{Time: time.Unix(ts, 0).UTC(), Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, domain)
	}
	return timeseries.FromPoints(domain, points), nil
}

// SaveRegions replaces every stored region record.
func (s *SQLiteStore) SaveRegions(records []timeseries.RegionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM region_records`); err != nil {
		return fmt.Errorf("clear region records: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO region_records (year, region, area) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Year, r.Region, r.Area); err != nil {
			return fmt.Errorf("insert region record %d/%s: %w", r.Year, r.Region, err)
		}
	}

	return tx.Commit()
}

// LoadRegions returns the region records in insertion order.
func (s *SQLiteStore) LoadRegions() ([]timeseries.RegionRecord, error) {
	rows, err := s.db.Query(`SELECT year, region, area FROM region_records ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []timeseries.RegionRecord
	for rows.Next() {
		var r timeseries.RegionRecord
		if err := rows.Scan(&r.Year, &r.Region, &r.Area); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, timeseries.Deforestation)
	}
	return records, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
