package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RegressionResult is an ordinary least squares fit of y = Slope·x + Intercept.
type RegressionResult struct {
	Slope     float64
	Intercept float64
	RSquared  float64 // in [0, 1]
	PValue    float64 // two-sided test of Slope = 0, Student t with N-2 d.o.f.
	StdErr    float64 // standard error of Slope
	N         int
}

// Predict evaluates the fitted line at x.
func (r *RegressionResult) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// LinRegress fits y on x. It needs at least three pairs and a non-constant x.
func LinRegress(x, y []float64) (*RegressionResult, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("regression inputs differ in length: %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return nil, fmt.Errorf("%w: regression needs at least 3 points, got %d", ErrInsufficientData, n)
	}

	xVar := stat.Variance(x, nil)
	if xVar == 0 || math.IsNaN(xVar) {
		return nil, fmt.Errorf("%w: regressor has zero variance", ErrDegenerate)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	result := &RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		N:         n,
	}

	yVar := stat.Variance(y, nil)
	if yVar == 0 {
		// A flat response is fitted exactly by a flat line.
		result.PValue = 1
		return result, nil
	}

	r2 := stat.RSquared(x, y, nil, intercept, slope)
	r2 = math.Max(0, math.Min(1, r2))
	result.RSquared = r2

	df := float64(n - 2)
	ssxx := xVar * float64(n-1)
	ssyy := yVar * float64(n-1)
	result.StdErr = math.Sqrt((1 - r2) * ssyy / ssxx / df)

	if r2 == 1 {
		result.PValue = 0
		return result, nil
	}
	tStat := slope / result.StdErr
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(tStat))
	result.PValue = math.Max(0, math.Min(1, p))
	return result, nil
}
