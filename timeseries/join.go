package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// JoinKind selects how rows are matched across series.
type JoinKind int

const (
	// Inner keeps timestamps present in every series.
	Inner JoinKind = iota
	// Left keeps every timestamp of the first series and fills the others.
	Left
)

// String returns "inner" or "left".
func (k JoinKind) String() string {
	if k == Left {
		return "left"
	}
	return "inner"
}

// Frame is a set of aligned columns sharing one timestamp index.
// Values[c][r] is column c at row r.
type Frame struct {
	Timestamps []time.Time
	Columns    []string
	Values     [][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// Column returns the named column, or nil when absent.
func (f *Frame) Column(name string) []float64 {
	for i, c := range f.Columns {
		if c == name {
			return f.Values[i]
		}
	}
	return nil
}

// Row returns the values at row r in column order.
func (f *Frame) Row(r int) []float64 {
	row := make([]float64, len(f.Columns))
	for c := range f.Columns {
		row[c] = f.Values[c][r]
	}
	return row
}

// DropMissing returns a frame without the rows holding a NaN in any column.
func (f *Frame) DropMissing() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Values:  make([][]float64, len(f.Columns)),
	}
	for r := range f.Timestamps {
		missing := false
		for c := range f.Columns {
			if math.IsNaN(f.Values[c][r]) {
				missing = true
				break
			}
		}
		if missing {
			continue
		}
		out.Timestamps = append(out.Timestamps, f.Timestamps[r])
		for c := range f.Columns {
			out.Values[c] = append(out.Values[c], f.Values[c][r])
		}
	}
	return out
}

// Join aligns series on exact timestamps. Row order follows the first
// series. For a Left join, timestamps absent from a later series take fill;
// fill is ignored for Inner joins. Columns are named after each series'
// Name, falling back to its domain column.
func Join(kind JoinKind, fill float64, series ...*Series) (*Frame, error) {
	if len(series) == 0 {
		return nil, errors.New("join needs at least one series")
	}

	frame := &Frame{
		Columns: make([]string, len(series)),
		Values:  make([][]float64, len(series)),
	}
	seen := make(map[string]bool, len(series))
	lookups := make([]map[int64]float64, len(series))
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("join: series %d is nil", i)
		}
		name := s.Name
		if name == "" {
			name = s.Domain.Column()
		}
		if seen[name] {
			return nil, fmt.Errorf("join: duplicate column %q", name)
		}
		seen[name] = true
		frame.Columns[i] = name

		if i == 0 {
			continue
		}
		lookup := make(map[int64]float64, len(s.Values))
		for j, t := range s.Timestamps {
			lookup[t.Unix()] = s.Values[j]
		}
		lookups[i] = lookup
	}

	base := series[0]
	for r, t := range base.Timestamps {
		key := t.Unix()
		row := make([]float64, len(series))
		row[0] = base.Values[r]
		keep := true
		for i := 1; i < len(series); i++ {
			v, ok := lookups[i][key]
			if !ok {
				if kind == Inner {
					keep = false
					break
				}
				v = fill
			}
			row[i] = v
		}
		if !keep {
			continue
		}
		frame.Timestamps = append(frame.Timestamps, t)
		for i, v := range row {
			frame.Values[i] = append(frame.Values[i], v)
		}
	}
	return frame, nil
}

// ResampleJoin resamples every series to period and joins the results.
func ResampleJoin(period Period, kind JoinKind, fill float64, series ...*Series) (*Frame, error) {
	resampled := make([]*Series, len(series))
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("join: series %d is nil", i)
		}
		resampled[i] = Resample(s, period)
	}
	return Join(kind, fill, resampled...)
}
