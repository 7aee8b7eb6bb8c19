package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/climatrend/timeseries"
)

// CorrelationMatrix holds pairwise Pearson coefficients. Coeffs is symmetric
// with exactly 1 on the diagonal.
type CorrelationMatrix struct {
	Names  []string
	Coeffs [][]float64
}

// Correlate computes the Pearson matrix of the frame's columns over the rows
// with no missing value. It needs two complete rows and non-constant columns.
func Correlate(frame *timeseries.Frame) (*CorrelationMatrix, error) {
	complete := frame.DropMissing()
	if complete.Len() < 2 {
		return nil, fmt.Errorf("%w: correlation needs 2 overlapping rows, got %d",
			ErrInsufficientData, complete.Len())
	}

	k := len(complete.Columns)
	for c, name := range complete.Columns {
		if stat.Variance(complete.Values[c], nil) == 0 {
			return nil, fmt.Errorf("%w: column %q is constant", ErrDegenerate, name)
		}
	}

	m := &CorrelationMatrix{
		Names:  append([]string(nil), complete.Columns...),
		Coeffs: make([][]float64, k),
	}
	for i := range m.Coeffs {
		m.Coeffs[i] = make([]float64, k)
		m.Coeffs[i][i] = 1
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			r := stat.Correlation(complete.Values[i], complete.Values[j], nil)
			r = clampUnit(r)
			m.Coeffs[i][j] = r
			m.Coeffs[j][i] = r
		}
	}
	return m, nil
}

func clampUnit(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// Get returns the coefficient for a pair of series names.
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Coeffs[i][j], true
}

func (m *CorrelationMatrix) index(name string) int {
	for i, n := range m.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// WriteCSV writes the matrix with the series names as both header row and
// first column. Coefficients use the shortest exact representation.
func (m *CorrelationMatrix) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{""}, m.Names...)); err != nil {
		return err
	}
	for i, name := range m.Names {
		row := make([]string, 0, len(m.Names)+1)
		row = append(row, name)
		for _, v := range m.Coeffs[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCorrelationCSV parses a matrix written by WriteCSV.
func ReadCorrelationCSV(r io.Reader) (*CorrelationMatrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("correlation csv is empty")
	}

	names := records[0][1:]
	if len(records)-1 != len(names) {
		return nil, fmt.Errorf("correlation csv is not square: %d labels, %d rows", len(names), len(records)-1)
	}

	m := &CorrelationMatrix{
		Names:  append([]string(nil), names...),
		Coeffs: make([][]float64, len(names)),
	}
	for i, rec := range records[1:] {
		if len(rec) != len(names)+1 {
			return nil, fmt.Errorf("correlation csv row %d has %d fields, want %d", i+1, len(rec), len(names)+1)
		}
		if strings.TrimSpace(rec[0]) != names[i] {
			return nil, fmt.Errorf("correlation csv row %d is labelled %q, want %q", i+1, rec[0], names[i])
		}
		m.Coeffs[i] = make([]float64, len(names))
		for j, field := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("correlation csv row %d column %d: %w", i+1, j+1, err)
			}
			m.Coeffs[i][j] = v
		}
	}
	return m, nil
}
