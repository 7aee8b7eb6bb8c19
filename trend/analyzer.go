package trend

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/internal/artifact"
	"github.com/sartorproj/climatrend/internal/logging"
	"github.com/sartorproj/climatrend/stats"
	"github.com/sartorproj/climatrend/timeseries"
)

// SeriesSet holds the cleaned inputs. Any field may be nil when its domain
// failed to clean; analyses needing it fail on their own.
type SeriesSet struct {
	Temperature *timeseries.Series
	CO2         *timeseries.Series
	SeaLevel    *timeseries.Series
}

// Outcome records how one analysis ended. Err is set when nothing was
// computed; ArtifactErr when the result exists but an output file failed.
type Outcome struct {
	Analysis    string
	Err         error
	ArtifactErr error
	Artifacts   []string
	Duration    time.Duration
}

// Report gathers the results of every analysis. A nil field means that
// analysis failed; its Outcome says why.
type Report struct {
	Decomposition *stats.DecompositionResult
	Decadal       []timeseries.PeriodAggregate
	CO2Trend      *CO2TrendResult
	Correlation   *stats.CorrelationMatrix
	Regression    *RegressionResult
	Outcomes      []Outcome // in Analyses order
}

// Outcome returns the outcome of the named analysis.
func (r *Report) Outcome(analysis string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Analysis == analysis {
			return o, true
		}
	}
	return Outcome{}, false
}

// Analyzer runs the trend analyses and writes their artifacts into OutputDir.
type Analyzer struct {
	OutputDir string
	Period    int // decomposition period in years
	Log       logrus.FieldLogger
}

// NewAnalyzer returns an analyzer writing into outputDir.
func NewAnalyzer(outputDir string, period int, log logrus.FieldLogger) *Analyzer {
	if log == nil {
		log = logging.Discard()
	}
	return &Analyzer{OutputDir: outputDir, Period: period, Log: log}
}

type artifactWriter struct {
	name  string
	write func(io.Writer) error
}

// Analyze runs the five analyses concurrently. One failing analysis never
// stops the others.
func (a *Analyzer) Analyze(set SeriesSet) *Report {
	report := &Report{Outcomes: make([]Outcome, len(Analyses))}
	var mu sync.Mutex

	jobs := map[string]func() ([]artifactWriter, error){
		Decomposition: func() ([]artifactWriter, error) {
			d, err := DecomposeTemperature(set.Temperature, a.Period)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			report.Decomposition = d
			mu.Unlock()
			return []artifactWriter{
				{DecompositionPlotFile, func(w io.Writer) error { return WriteDecompositionPNG(w, d) }},
				{DecompositionCSVFile, func(w io.Writer) error { return WriteDecompositionCSV(w, d) }},
			}, nil
		},
		Decadal: func() ([]artifactWriter, error) {
			d, err := DecadalTemperature(set.Temperature)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			report.Decadal = d
			mu.Unlock()
			return []artifactWriter{
				{DecadalFile, func(w io.Writer) error { return WriteDecadalCSV(w, d) }},
			}, nil
		},
		CO2Trend: func() ([]artifactWriter, error) {
			r, err := FitCO2Trend(set.CO2)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			report.CO2Trend = r
			mu.Unlock()
			return []artifactWriter{
				{AnnualCO2File, func(w io.Writer) error { return WriteAnnualCO2CSV(w, r) }},
			}, nil
		},
		Correlation: func() ([]artifactWriter, error) {
			m, err := Correlate(set.Temperature, set.CO2, set.SeaLevel)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			report.Correlation = m
			mu.Unlock()
			return []artifactWriter{
				{CorrelationFile, m.WriteCSV},
			}, nil
		},
		Regression: func() ([]artifactWriter, error) {
			r, err := RegressTemperatureOnCO2(set.Temperature, set.CO2)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			report.Regression = r
			mu.Unlock()
			return []artifactWriter{
				{RegressionFile, func(w io.Writer) error { return WriteRegressionCSV(w, r) }},
			}, nil
		},
	}

	var g errgroup.Group
	for i, name := range Analyses {
		job := jobs[name]
		g.Go(func() error {
			report.Outcomes[i] = a.run(name, job)
			return nil
		})
	}
	_ = g.Wait()

	a.logSummary(report)
	return report
}

func (a *Analyzer) run(name string, job func() ([]artifactWriter, error)) (out Outcome) {
	out.Analysis = name
	start := time.Now()
	log := a.Log.WithField("analysis", name)
	defer func() {
		if r := recover(); r != nil {
			out.Err = apperr.Recovered(name, "compute", r)
		}
		out.Duration = time.Since(start)
		switch {
		case out.Err != nil:
			log.WithFields(logrus.Fields{"kind": apperr.KindOf(out.Err), "error": out.Err}).Error("Analysis failed")
		case out.ArtifactErr != nil:
			log.WithError(out.ArtifactErr).Warn("Analysis computed but artifacts incomplete")
		default:
			log.WithField("duration", out.Duration).Debug("Analysis finished")
		}
	}()

	writers, err := job()
	if err != nil {
		out.Err = err
		return out
	}

	var errs []error
	for _, aw := range writers {
		path := filepath.Join(a.OutputDir, aw.name)
		if err := artifact.Write(path, aw.write); err != nil {
			errs = append(errs, err)
			continue
		}
		out.Artifacts = append(out.Artifacts, path)
	}
	if len(errs) > 0 {
		out.ArtifactErr = apperr.Computation(name, "persist", errors.Join(errs...))
	}
	return out
}

func (a *Analyzer) logSummary(r *Report) {
	fields := logrus.Fields{}
	if r.CO2Trend != nil {
		fields["co2_ppm_per_year"] = r.CO2Trend.SlopePerYear()
	}
	if r.Regression != nil {
		fields["co2_temp_r2"] = r.Regression.Fit.RSquared
		fields["co2_temp_p"] = r.Regression.Fit.PValue
	}
	if r.Decomposition != nil {
		fields["trend_span_years"] = r.Decomposition.TrendSpan()
	}
	a.Log.WithFields(fields).Info("Trend analysis complete")
}
