package forecast

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/internal/artifact"
	"github.com/sartorproj/climatrend/internal/logging"
	"github.com/sartorproj/climatrend/timeseries"
)

// Forecaster extrapolates a single series.
type Forecaster interface {
	Name() string
	Forecast(series *timeseries.Series, horizonYears int) (*Result, error)
}

// Regressor predicts temperature from the other series.
type Regressor interface {
	Name() string
	Regress(temperature, co2, deforestation *timeseries.Series) (*Result, error)
}

// Task pairs a forecaster with the series it runs on. Target defaults to
// the series domain; set it when Series may be nil.
type Task struct {
	Model  Forecaster
	Target timeseries.Domain
	Series *timeseries.Series
}

// RegressionInput holds the series a Regressor needs.
type RegressionInput struct {
	Model         Regressor
	Temperature   *timeseries.Series
	CO2           *timeseries.Series
	Deforestation *timeseries.Series
}

// Outcome records how one model run ended. Err is set when the model
// produced nothing; ArtifactErr when the result exists but its file could
// not be written.
type Outcome struct {
	Model       string
	Target      timeseries.Domain
	Result      *Result
	Err         error
	ArtifactErr error
	Artifact    string
	Duration    time.Duration
}

// Unit names the outcome for reports, e.g. "arima/temperature".
func (o Outcome) Unit() string {
	if o.Target == "" {
		return o.Model
	}
	return o.Model + "/" + string(o.Target)
}

// Ensemble runs independent models side by side and writes each result to
// OutputDir. Results are never combined.
type Ensemble struct {
	Forecasters []Forecaster
	OutputDir   string
	Log         logrus.FieldLogger
}

// NewEnsemble returns an ensemble of the given forecasters.
func NewEnsemble(outputDir string, log logrus.FieldLogger, forecasters ...Forecaster) *Ensemble {
	if log == nil {
		log = logging.Discard()
	}
	return &Ensemble{Forecasters: forecasters, OutputDir: outputDir, Log: log}
}

// Forecast runs every forecaster of the ensemble on series concurrently.
func (e *Ensemble) Forecast(series *timeseries.Series, horizonYears int) []Outcome {
	tasks := make([]Task, len(e.Forecasters))
	for i, f := range e.Forecasters {
		tasks[i] = Task{Model: f, Series: series}
	}
	return e.Run(horizonYears, tasks, nil)
}

// Regress runs the regressor on its own.
func (e *Ensemble) Regress(model Regressor, temperature, co2, deforestation *timeseries.Series) Outcome {
	return e.Run(0, nil, &RegressionInput{
		Model:         model,
		Temperature:   temperature,
		CO2:           co2,
		Deforestation: deforestation,
	})[0]
}

// Run executes the tasks and the optional regression concurrently and
// returns their outcomes in order, the regression last. A failing model
// never affects the others.
func (e *Ensemble) Run(horizonYears int, tasks []Task, regression *RegressionInput) []Outcome {
	n := len(tasks)
	if regression != nil {
		n++
	}
	outcomes := make([]Outcome, n)

	var g errgroup.Group
	for i, task := range tasks {
		target := task.Target
		if target == "" && task.Series != nil {
			target = task.Series.Domain
		}
		g.Go(func() error {
			outcomes[i] = e.run(task.Model.Name(), target, func() (*Result, error) {
				return task.Model.Forecast(task.Series, horizonYears)
			})
			return nil
		})
	}
	if regression != nil {
		g.Go(func() error {
			outcomes[n-1] = e.run(regression.Model.Name(), timeseries.Temperature, func() (*Result, error) {
				return regression.Model.Regress(regression.Temperature, regression.CO2, regression.Deforestation)
			})
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (e *Ensemble) run(model string, target timeseries.Domain, fit func() (*Result, error)) (out Outcome) {
	out.Model, out.Target = model, target
	log := e.Log.WithFields(logrus.Fields{"model": model, "target": target})
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Err = apperr.Recovered(out.Unit(), "fit", r)
		}
		out.Duration = time.Since(start)
		switch {
		case out.Err != nil:
			log.WithFields(logrus.Fields{"kind": apperr.KindOf(out.Err), "error": out.Err}).Error("Model failed")
		case out.ArtifactErr != nil:
			log.WithError(out.ArtifactErr).Warn("Model result not persisted")
		default:
			fields := logrus.Fields{"duration": out.Duration, "points": len(out.Result.Points)}
			if m := out.Result.Metrics; m != nil {
				fields["mse"], fields["r2"], fields["mae"] = m.MSE, m.RSquared, m.MAE
			}
			log.WithFields(fields).Info("Model finished")
		}
	}()

	result, err := fit()
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = result

	path := filepath.Join(e.OutputDir, result.FileName())
	if err := artifact.Write(path, result.WriteCSV); err != nil {
		out.ArtifactErr = apperr.Computation(out.Unit(), "persist", err)
		return out
	}
	out.Artifact = path
	return out
}
