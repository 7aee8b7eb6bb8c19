package arima

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 2)

	if model.Order.P != 2 || model.Order.D != 1 || model.Order.Q != 2 {
		t.Errorf("Unexpected order %+v", model.Order)
	}
	if model.Order.String() != "ARIMA(2,1,2)" {
		t.Errorf("Unexpected order string %q", model.Order.String())
	}
}

func TestARIMAFitAR1(t *testing.T) {
	n := 200
	phi := 0.7
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-100) + 100 + innovation
	}

	model := New(1, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	if len(model.ARCoeffs) != 1 {
		t.Fatalf("Expected 1 AR coefficient, got %d", len(model.ARCoeffs))
	}
	if model.ARCoeffs[0] < -0.99 || model.ARCoeffs[0] > 0.99 {
		t.Errorf("AR coefficient outside stationary bounds: %f", model.ARCoeffs[0])
	}
	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])

	if len(model.Residuals()) != n {
		t.Errorf("Expected %d residuals, got %d", n, len(model.Residuals()))
	}
}

func TestARIMAIntegratesRandomWalk(t *testing.T) {
	n := 50
	values := make([]float64, n)
	for i := range values {
		values[i] = 3 + 0.5*float64(i)
	}

	model := New(0, 1, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if model.Intercept != 0 {
		t.Errorf("Differenced model should have no intercept, got %f", model.Intercept)
	}

	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	// Without drift every step repeats the last level.
	want := values[n-1]
	for h, f := range forecasts {
		if math.Abs(f-want) > 1e-9 {
			t.Errorf("Step %d: expected %f, got %f", h+1, want, f)
		}
	}
}

func TestARIMAIntegratesSecondOrder(t *testing.T) {
	n := 30
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i * i)
	}

	model := New(0, 2, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	forecasts, err := model.Predict(3)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	// The last slope (841 - 784) is carried forward.
	expected := []float64{898, 955, 1012}
	for i, want := range expected {
		if math.Abs(forecasts[i]-want) > 1e-9 {
			t.Errorf("Step %d: expected %f, got %f", i+1, want, forecasts[i])
		}
	}
}

func TestARIMAForecastDoesNotDrift(t *testing.T) {
	// A noisy upward drift: a constant would carry the mean step forward.
	n := 2000
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 1 + float64(i)/2000 + 0.05*math.Sin(2*math.Pi*float64(i)/7)
	}

	model := New(2, 1, 2)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}
	forecasts, err := model.Predict(3650)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	tail := forecasts[len(forecasts)-365:]
	lo, hi := tail[0], tail[0]
	for _, f := range tail {
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	if hi-lo > 1e-3 {
		t.Errorf("Expected the long-range forecast to settle, last year spans %f", hi-lo)
	}
}

func TestARIMAPredictDaily212(t *testing.T) {
	// Two years of a daily anomaly with a slow drift and a weekly wobble.
	n := 730
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 0.2 + float64(i)/3650 + 0.05*math.Sin(2*math.Pi*float64(i)/7)
	}

	model := New(2, 1, 2)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	forecasts, err := model.Predict(365)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if len(forecasts) != 365 {
		t.Fatalf("Expected 365 forecasts, got %d", len(forecasts))
	}
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("Forecast %d is NaN or Inf", i)
		}
	}
	if math.Abs(forecasts[0]-values[n-1]) > 0.5 {
		t.Errorf("First forecast %f far from last value %f", forecasts[0], values[n-1])
	}
}

func TestARIMASummary(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = 100 + float64(i%7-3)/2
	}

	model := New(1, 0, 1)
	if model.Summary() != nil {
		t.Error("Summary should be nil before fitting")
	}
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != n {
		t.Errorf("Expected NObs=%d, got %d", n, summary.NObs)
	}
	if summary.LjungBox == nil {
		t.Error("Expected Ljung-Box diagnostics")
	}
	t.Logf("Summary - AIC: %f, BIC: %f, LogLik: %f", summary.AIC, summary.BIC, summary.LogLik)
}

func TestARIMAErrors(t *testing.T) {
	model := New(5, 2, 5)
	err := model.Fit(timeseries.New([]float64{1, 2, 3}))
	if !errors.Is(err, stats.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	if _, err := New(1, 1, 1).Predict(3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}

	values := make([]float64, 40)
	values[10] = math.NaN()
	if err := New(1, 0, 0).Fit(timeseries.New(values)); err == nil {
		t.Error("Expected error for missing values")
	}
}

func TestARIMAFittedValues(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = float64(i) + float64(i%5-2)/2
	}

	model := New(1, 0, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	fitted := model.FittedValues()
	residuals := model.Residuals()
	if len(fitted) != n {
		t.Fatalf("Expected %d fitted values, got %d", n, len(fitted))
	}
	for i := range fitted {
		if math.Abs(fitted[i]+residuals[i]-values[i]) > 1e-9 {
			t.Errorf("Fitted plus residual should equal the observation at %d", i)
		}
	}
}

func TestYuleWalker(t *testing.T) {
	// Autocorrelations of an AR(1) with phi 0.6: the second coefficient vanishes.
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	if len(coeffs) != 2 {
		t.Fatalf("Expected 2 coefficients, got %d", len(coeffs))
	}
	if math.Abs(coeffs[0]-0.6) > 1e-9 || math.Abs(coeffs[1]) > 1e-9 {
		t.Errorf("Expected [0.6 0], got %v", coeffs)
	}
}

func TestARIMAWhiteNoise(t *testing.T) {
	n := 200
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = float64(i%7-3) / 3
	}

	series := timeseries.New(values)
	model := New(0, 0, 0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit white noise: %v", err)
	}

	if math.Abs(model.Intercept-series.Mean()) > 1e-12 {
		t.Errorf("Intercept should equal the mean: got %f, expected %f", model.Intercept, series.Mean())
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR2", 2, 0, 0},
		{"MA2", 0, 0, 2},
		{"ARMA11", 1, 0, 1},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA212", 2, 1, 2},
	}

	n := 150
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = 0.6*(values[i-1]-100) + 100 + float64(i%7-3)/3
	}
	series := timeseries.New(values)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				t.Fatalf("Model %s failed to fit: %v", tt.name, err)
			}

			forecasts, err := model.Predict(3)
			if err != nil {
				t.Fatalf("Prediction failed: %v", err)
			}
			if len(forecasts) != 3 {
				t.Errorf("Expected 3 forecasts, got %d", len(forecasts))
			}
			for _, f := range forecasts {
				if math.IsNaN(f) || math.Abs(f-100) > 20 {
					t.Errorf("Implausible forecast %f", f)
				}
			}
		})
	}
}

func rootModulus(coeffs []float64, sign float64) float64 {
	// For order 2 the companion eigenvalues solve λ² - a·λ - b = 0.
	a, b := sign*coeffs[0], sign*coeffs[1]
	disc := a*a + 4*b
	if disc >= 0 {
		return math.Max(math.Abs((a+math.Sqrt(disc))/2), math.Abs((a-math.Sqrt(disc))/2))
	}
	return math.Sqrt(-b)
}

func TestShrinkRoots(t *testing.T) {
	explosive := []float64{0.99, 0.5}
	shrinkRoots(explosive, 1)
	if got := rootModulus(explosive, 1); got > maxRootModulus+1e-9 {
		t.Errorf("Expected roots inside %f, got %f", maxRootModulus, got)
	}

	stable := []float64{0.5, 0.2}
	shrinkRoots(stable, 1)
	if stable[0] != 0.5 || stable[1] != 0.2 {
		t.Errorf("Stable coefficients should be untouched, got %v", stable)
	}

	ma := []float64{-0.99, -0.99}
	shrinkRoots(ma, -1)
	if got := rootModulus(ma, -1); got > maxRootModulus+1e-9 {
		t.Errorf("Expected invertible MA roots, got modulus %f", got)
	}
}
