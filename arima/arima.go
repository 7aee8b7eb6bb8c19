// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("model must be fitted before prediction")
	// ErrDiverged is returned when the fit produces non-finite parameters.
	ErrDiverged = errors.New("css optimisation diverged")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// String formats the order as ARIMA(p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64
	Variance   float64 // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	fitted     bool
	nObs       int
	lastLevels []float64 // last value of each differencing level 0..d-1
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// Fit fits the ARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 {
		return fmt.Errorf("invalid order %s", m.Order)
	}
	if series.Len() < m.Order.P+m.Order.Q+m.Order.D+10 {
		return fmt.Errorf("%w: %s needs %d points, got %d", stats.ErrInsufficientData,
			m.Order, m.Order.P+m.Order.Q+m.Order.D+10, series.Len())
	}
	for i, v := range series.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value at index %d", i)
		}
	}

	m.nObs = series.Len()

	// Apply differencing, remembering where each level ends.
	m.lastLevels = make([]float64, m.Order.D)
	diffSeries := series
	for i := 0; i < m.Order.D; i++ {
		m.lastLevels[i] = diffSeries.Values[diffSeries.Len()-1]
		diffSeries = diffSeries.Diff()
		if diffSeries.Len() == 0 {
			return errors.New("differencing resulted in empty series")
		}
	}
	m.diffData = diffSeries

	// Fit using Conditional Sum of Squares (CSS) method
	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()

	m.fitted = true
	return nil
}

// fitCSS fits the model using Conditional Sum of Squares estimation.
func (m *Model) fitCSS() error {
	y := m.diffData.Values
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	// Differenced models carry no constant.
	m.Intercept = 0
	if m.Order.D == 0 {
		mean := 0.0
		for _, v := range y {
			mean += v
		}
		m.Intercept = mean / float64(n)
	}

	if p == 0 && q == 0 {
		// Just a white noise model
		m.residuals = make([]float64, n)
		m.fittedVals = make([]float64, n)
		sse := 0.0
		for i, v := range y {
			m.residuals[i] = v - m.Intercept
			m.fittedVals[i] = m.Intercept
			sse += m.residuals[i] * m.residuals[i]
		}
		m.Variance = sse / float64(n-1)
		return nil
	}

	if p > 0 {
		// Use Yule-Walker for initial AR estimates
		acf := stats.ACF(m.diffData, p)
		if acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				m.ARCoeffs = phi
			}
		}
		for i := range m.ARCoeffs {
			m.ARCoeffs[i] = clampCoeff(m.ARCoeffs[i])
		}
	}

	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	shrinkRoots(m.ARCoeffs, 1)
	shrinkRoots(m.MACoeffs, -1)

	m.optimizeCSS(y)

	for _, c := range append(append([]float64{}, m.ARCoeffs...), m.MACoeffs...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrDiverged
		}
	}
	if math.IsNaN(m.Variance) || math.IsInf(m.Variance, 0) {
		return ErrDiverged
	}
	return nil
}

// residualsCSS runs the ARMA recursion over y with the current parameters,
// writing one-step predictions and residuals. Residuals before the first
// fully conditioned index are measured against the intercept. It returns
// the sum of squared residuals from that index on.
func (m *Model) residualsCSS(y, fitted, residuals []float64) float64 {
	p := m.Order.P
	q := m.Order.Q
	startIdx := max(p, q)

	sse := 0.0
	for t := range y {
		if t < startIdx {
			fitted[t] = m.Intercept
			residuals[t] = y[t] - m.Intercept
			continue
		}

		pred := m.Intercept
		for i := 0; i < p; i++ {
			pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
		}
		for i := 0; i < q; i++ {
			pred += m.MACoeffs[i] * residuals[t-i-1]
		}

		fitted[t] = pred
		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return sse
}

// optimizeCSS refines the parameters by gradient descent on the conditional
// sum of squares.
func (m *Model) optimizeCSS(y []float64) {
	n := len(y)
	p := m.Order.P
	q := m.Order.Q
	startIdx := max(p, q)

	maxIter := 100
	tolerance := 1e-6
	learningRate := 0.01

	fitted := make([]float64, n)
	residuals := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		prevSSE := m.residualsCSS(y, fitted, residuals)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := startIdx; t < n; t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.ARCoeffs[i] = clampCoeff(m.ARCoeffs[i] - learningRate*arGrad[i]/float64(n))
		}
		for i := 0; i < q; i++ {
			m.MACoeffs[i] = clampCoeff(m.MACoeffs[i] - learningRate*maGrad[i]/float64(n))
		}
		// Keep the AR part stationary and the MA part invertible.
		shrinkRoots(m.ARCoeffs, 1)
		shrinkRoots(m.MACoeffs, -1)

		newSSE := m.residualsCSS(y, fitted, residuals)
		if math.Abs(prevSSE-newSSE) < tolerance {
			break
		}
	}

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	sse := m.residualsCSS(y, m.fittedVals, m.residuals)

	count := n - startIdx
	switch {
	case count > p+q+1:
		m.Variance = sse / float64(count-p-q-1)
	case count > 0:
		m.Variance = sse / float64(count)
	default:
		m.Variance = 0
	}
}

func clampCoeff(c float64) float64 {
	return math.Max(-0.99, math.Min(0.99, c))
}

// maxRootModulus is the largest modulus allowed for a root of the AR or MA
// polynomial (as an eigenvalue of its companion matrix).
const maxRootModulus = 0.98

// shrinkRoots rescales coeffs in place so every eigenvalue of the companion
// matrix of λ^k - sign·(c1·λ^(k-1) + ... + ck) lies inside maxRootModulus.
// Scaling c_i by s^i scales every eigenvalue by s. Use sign 1 for AR
// coefficients and -1 for MA coefficients.
func shrinkRoots(coeffs []float64, sign float64) {
	k := len(coeffs)
	if k == 0 {
		return
	}

	companion := mat.NewDense(k, k, nil)
	for j, c := range coeffs {
		companion.Set(0, j, sign*c)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return
	}
	largest := 0.0
	for _, v := range eig.Values(nil) {
		largest = math.Max(largest, cmplx.Abs(v))
	}
	if largest <= maxRootModulus {
		return
	}

	s := maxRootModulus / largest
	scale := 1.0
	for i := range coeffs {
		scale *= s
		coeffs[i] *= scale
	}
}

// calculateIC calculates AIC, AICc, and BIC.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	k := m.Order.P + m.Order.Q
	if m.Order.D == 0 {
		k++ // intercept
	}

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*float64(k)

	kf := float64(k)
	nf := float64(n)
	if nf-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}

	m.BIC = -2*m.LogLik + float64(k)*math.Log(float64(n))
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	p := m.Order.P
	q := m.Order.Q

	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept

		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}

		// Future shocks have expectation zero.
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extResiduals[t-i-1]
		}

		extY[t] = pred
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])

	if m.Order.D > 0 {
		forecasts = m.integrate(forecasts)
	}

	return forecasts, nil
}

// integrate undoes differencing level by level, anchoring each cumulative
// sum on the last observed value of the level above.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := forecasts
	for level := m.Order.D - 1; level >= 0; level-- {
		acc := m.lastLevels[level]
		for j := range result {
			acc += result[j]
			result[j] = acc
		}
	}
	return result
}

// Residuals returns the model residuals.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the one-step fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64 // Corrected AIC
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	residSeries := timeseries.New(m.residuals)
	lb := stats.LjungBox(residSeries, 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nObs,
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients from autocorrelations with the
// Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= 1 - lambda*lambda
	}

	return phi
}
