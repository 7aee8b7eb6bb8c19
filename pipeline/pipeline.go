package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/climatrend/cleaner"
	"github.com/sartorproj/climatrend/forecast"
	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/internal/config"
	"github.com/sartorproj/climatrend/internal/logging"
	"github.com/sartorproj/climatrend/store"
	"github.com/sartorproj/climatrend/timeseries"
	"github.com/sartorproj/climatrend/trend"
)

// Stage is a step of a run.
type Stage string

// Stages of a run.
const (
	StageClean    Stage = "clean"
	StageAnalyze  Stage = "analyze"
	StageForecast Stage = "forecast"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{StageClean, StageAnalyze, StageForecast}
}

// Pipeline runs stages against a store. The clean stage is the only writer
// to Store.
type Pipeline struct {
	Config *config.Config
	Store  store.Store
	RunID  string
	Log    *logrus.Entry
}

// New returns a pipeline with a fresh run ID.
func New(cfg *config.Config, st store.Store, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	id := uuid.NewString()
	return &Pipeline{
		Config: cfg,
		Store:  st,
		RunID:  id,
		Log:    log.WithField("run_id", id),
	}
}

// Run executes the requested stages and writes the run summary. Cleaning
// runs first; analysis and forecasting then run side by side.
func (p *Pipeline) Run(command string, stages ...Stage) *Summary {
	summary := &Summary{RunID: p.RunID, Command: command, StartedAt: time.Now().UTC()}
	p.Log.WithField("command", command).Info("Run started")

	var rest []Stage
	for _, s := range stages {
		if s == StageClean {
			summary.add(p.Clean()...)
			continue
		}
		rest = append(rest, s)
	}

	results := make([][]Unit, len(rest))
	var g errgroup.Group
	for i, s := range rest {
		g.Go(func() error {
			switch s {
			case StageAnalyze:
				results[i] = p.Analyze()
			case StageForecast:
				results[i] = p.Forecast()
			default:
				results[i] = []Unit{newUnit(s, string(s), apperr.Validation(string(s), "run", fmt.Errorf("unknown stage %q", s)), nil, nil, 0)}
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, units := range results {
		summary.add(units...)
	}

	summary.FinishedAt = time.Now().UTC()
	p.writeSummary(summary)
	return summary
}

// SummaryPath returns where the run summary is written; a relative
// configured name is placed in the processed directory.
func (p *Pipeline) SummaryPath() string {
	name := p.Config.Output.SummaryFile
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.Config.Output.ProcessedDir, name)
}

func (p *Pipeline) writeSummary(s *Summary) {
	counts := s.Counts()
	log := p.Log.WithFields(logrus.Fields{
		"succeeded": counts[StatusSucceeded],
		"partial":   counts[StatusPartial],
		"failed":    counts[StatusFailed],
		"duration":  s.FinishedAt.Sub(s.StartedAt),
	})

	path := p.SummaryPath()
	if path == "" {
		log.Info("Run finished")
		return
	}
	if err := s.WriteYAML(path); err != nil {
		log.WithError(err).Error("Run summary not written")
		return
	}
	log.WithField("summary", path).Info("Run finished")
}

// unitRun collects what a unit body produced besides its error.
type unitRun struct {
	log         *logrus.Entry
	artifacts   []string
	artifactErr error
	details     map[string]any
}

func (r *unitRun) detail(key string, value any) {
	if r.details == nil {
		r.details = make(map[string]any)
	}
	r.details[key] = value
}

// unit runs fn as one isolated unit of work. A panic fails only this unit.
func (p *Pipeline) unit(stage Stage, name string, fields logrus.Fields, fn func(r *unitRun) error) (u Unit) {
	r := &unitRun{log: p.Log.WithField("stage", stage).WithFields(fields)}
	start := time.Now()
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = apperr.Recovered(name, string(stage), rec)
		}
		u = newUnit(stage, name, err, r.artifactErr, r.artifacts, time.Since(start))
		u.Details = r.details
		switch u.Status {
		case StatusFailed:
			r.log.WithFields(logrus.Fields{"kind": u.Kind, "error": err}).Error("Unit failed")
		case StatusPartial:
			r.log.WithError(r.artifactErr).Warn("Unit result not persisted")
		}
	}()
	err = fn(r)
	return u
}

// load reads a cleaned series, logging why it is unavailable. Consumers
// report a nil series as missing input.
func (p *Pipeline) load(stage Stage, d timeseries.Domain) *timeseries.Series {
	s, err := p.Store.LoadSeries(d)
	if err != nil {
		p.Log.WithFields(logrus.Fields{"stage": stage, "domain": d, "error": err}).Warn("Cleaned series unavailable")
		return nil
	}
	return s
}

// location names where a domain's cleaned data ends up.
func (p *Pipeline) location(d timeseries.Domain) string {
	if cs, ok := p.Store.(*store.CSVStore); ok {
		return cs.Path(d)
	}
	return p.Config.Store.Path
}

func (p *Pipeline) cleaningOptions() cleaner.Options {
	c := p.Config.Cleaning
	return cleaner.Options{
		IQRFactor:           c.IQRFactor,
		SeaLevelWindow:      c.SeaLevelWindow,
		SeaLevelSigma:       c.SeaLevelSigma,
		TemperatureInterval: cleaner.Interval{Days: c.TemperatureIntervalDays},
	}
}

// Clean cleans every domain concurrently and saves the survivors.
func (p *Pipeline) Clean() []Unit {
	opts := p.cleaningOptions()
	domains := append(timeseries.SeriesDomains(), timeseries.Deforestation)
	units := make([]Unit, len(domains))

	var g errgroup.Group
	for i, d := range domains {
		g.Go(func() error {
			units[i] = p.unit(StageClean, string(d), logrus.Fields{"domain": d}, func(r *unitRun) error {
				if d == timeseries.Deforestation {
					return p.cleanRegions(r, opts)
				}
				return p.cleanSeries(r, d, opts)
			})
			return nil
		})
	}
	_ = g.Wait()
	return units
}

func (p *Pipeline) cleanSeries(r *unitRun, d timeseries.Domain, opts cleaner.Options) error {
	unit := string(d)
	path := p.Config.InputPath(d)
	raw, stats, err := timeseries.LoadCSV(path, d, timeseries.DefaultCSVOptions(d))
	if err != nil {
		return apperr.Input(unit, "load", err)
	}
	logMalformed(r, path, stats)

	policy, err := cleaner.PolicyFor(d, opts)
	if err != nil {
		return apperr.Validation(unit, "policy", err)
	}
	cleaned, report, err := cleaner.Clean(raw, policy)
	if report != nil {
		r.detail("input", report.Input)
		r.detail("malformed", stats.Malformed)
		r.detail("duplicates", report.Duplicates)
		r.detail("interpolated", report.Interpolated)
		r.detail("removed", report.RemovedTotal())
		r.detail("output", report.Output)
	}
	if err != nil {
		return err
	}
	r.log.WithFields(report.Fields()).Info("Series cleaned")

	if err := p.Store.SaveSeries(cleaned); err != nil {
		r.artifactErr = apperr.Computation(unit, "persist", err)
		return nil
	}
	r.artifacts = []string{p.location(d)}
	return nil
}

func (p *Pipeline) cleanRegions(r *unitRun, opts cleaner.Options) error {
	d := timeseries.Deforestation
	unit := string(d)
	path := p.Config.InputPath(d)
	records, stats, err := timeseries.LoadRegionsJSON(path)
	if err != nil {
		return apperr.Input(unit, "load", err)
	}
	logMalformed(r, path, stats)

	policy, err := cleaner.PolicyFor(d, opts)
	if err != nil {
		return apperr.Validation(unit, "policy", err)
	}
	cleaned, report, err := cleaner.CleanRegions(records, policy, p.Config.Cleaning.Regions)
	if report != nil {
		r.detail("input", report.Input)
		r.detail("malformed", stats.Malformed)
		r.detail("unknown_region", report.UnknownRegion)
		for rule, n := range report.Removed {
			r.detail("removed_"+rule, n)
		}
		r.detail("output", report.Output)
	}
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"input":          report.Input,
		"unknown_region": report.UnknownRegion,
		"output":         report.Output,
	}).Info("Region records cleaned")

	if err := p.Store.SaveRegions(cleaned); err != nil {
		r.artifactErr = apperr.Computation(unit, "persist", err)
		return nil
	}
	r.artifacts = []string{p.location(d)}
	return nil
}

func logMalformed(r *unitRun, path string, stats *timeseries.LoadStats) {
	if stats == nil || stats.Malformed == 0 {
		return
	}
	r.log.WithFields(logrus.Fields{
		"file":      path,
		"rows":      stats.Rows,
		"malformed": stats.Malformed,
	}).Warn("Dropped malformed rows")
}

// Analyze runs the trend analyses on the stored series.
func (p *Pipeline) Analyze() []Unit {
	set := trend.SeriesSet{
		Temperature: p.load(StageAnalyze, timeseries.Temperature),
		CO2:         p.load(StageAnalyze, timeseries.CO2),
		SeaLevel:    p.load(StageAnalyze, timeseries.SeaLevel),
	}
	analyzer := trend.NewAnalyzer(p.Config.Output.ProcessedDir, p.Config.Analysis.DecompositionPeriod,
		p.Log.WithField("stage", StageAnalyze))
	report := analyzer.Analyze(set)

	units := make([]Unit, len(report.Outcomes))
	for i, o := range report.Outcomes {
		units[i] = newUnit(StageAnalyze, o.Analysis, o.Err, o.ArtifactErr, o.Artifacts, o.Duration)
	}
	for i := range units {
		switch units[i].Name {
		case trend.CO2Trend:
			if r := report.CO2Trend; r != nil {
				units[i].Details = map[string]any{
					"slope_per_year": r.SlopePerYear(),
					"r_squared":      r.Fit.RSquared,
				}
			}
		case trend.Regression:
			if r := report.Regression; r != nil {
				units[i].Details = map[string]any{
					"slope":     r.Fit.Slope,
					"intercept": r.Fit.Intercept,
					"r_squared": r.Fit.RSquared,
					"p_value":   r.Fit.PValue,
					"n":         r.Fit.N,
				}
			}
		}
	}
	return units
}

// Forecast runs the configured univariate models and the temperature
// regressor side by side.
func (p *Pipeline) Forecast() []Unit {
	f := p.Config.Forecast
	log := p.Log.WithField("stage", StageForecast)

	series := make(map[timeseries.Domain]*timeseries.Series)
	get := func(d timeseries.Domain) *timeseries.Series {
		if s, ok := series[d]; ok {
			return s
		}
		series[d] = p.load(StageForecast, d)
		return series[d]
	}

	var units []Unit
	var tasks []forecast.Task
	addTasks := func(model forecast.Forecaster, targets []string) {
		for _, name := range targets {
			d, err := timeseries.ParseDomain(name)
			if err != nil {
				unit := model.Name() + "/" + name
				units = append(units, newUnit(StageForecast, unit, apperr.Validation(unit, "configure", err), nil, nil, 0))
				continue
			}
			tasks = append(tasks, forecast.Task{Model: model, Target: d, Series: get(d)})
		}
	}
	if len(f.ARIMAOrder) == 3 {
		addTasks(forecast.NewARIMAForecaster(f.ARIMAOrder[0], f.ARIMAOrder[1], f.ARIMAOrder[2]), f.ARIMATargets)
	}
	addTasks(forecast.NewTrendSeasonalForecaster(f.Changepoints, f.FourierOrder), f.TrendTargets)

	regression, err := p.regression(get)
	if err != nil {
		name := forecast.ModelRandomForest
		units = append(units, newUnit(StageForecast, name, apperr.Validation(name, "configure", err), nil, nil, 0))
	}

	ensemble := forecast.NewEnsemble(p.Config.Output.PredictionsDir, log)
	for _, o := range ensemble.Run(f.HorizonYears, tasks, regression) {
		u := newUnit(StageForecast, o.Unit(), o.Err, o.ArtifactErr, nil, o.Duration)
		if o.Artifact != "" {
			u.Artifacts = []string{o.Artifact}
		}
		if o.Result != nil {
			u.Details = resultDetails(o.Result)
		}
		units = append(units, u)
	}
	return units
}

// regression assembles the random forest input. Missing deforestation data
// is not fatal: the missing policy decides what absent years mean.
func (p *Pipeline) regression(get func(timeseries.Domain) *timeseries.Series) (*forecast.RegressionInput, error) {
	f := p.Config.Forecast
	missing, err := forecast.ParseMissingPolicy(f.DeforestationMissing)
	if err != nil {
		return nil, err
	}
	agg, err := cleaner.ParseAggregation(f.DeforestationAggregation)
	if err != nil {
		return nil, err
	}

	model := forecast.NewForestRegressor(f.SplitYear, f.Trees, f.Seed)
	model.Missing = missing

	var deforestation *timeseries.Series
	records, err := p.Store.LoadRegions()
	switch {
	case err == nil:
		deforestation = cleaner.AnnualDeforestation(records, agg)
	case errors.Is(err, store.ErrNotFound):
		p.Log.WithFields(logrus.Fields{"stage": StageForecast, "missing": missing}).Warn("No cleaned deforestation records")
	default:
		p.Log.WithFields(logrus.Fields{"stage": StageForecast, "error": err}).Warn("Deforestation records unavailable")
	}

	return &forecast.RegressionInput{
		Model:         model,
		Temperature:   get(timeseries.Temperature),
		CO2:           get(timeseries.CO2),
		Deforestation: deforestation,
	}, nil
}

func resultDetails(r *forecast.Result) map[string]any {
	details := map[string]any{"points": len(r.Points)}
	if m := r.Metrics; m != nil {
		details["mse"] = m.MSE
		details["r_squared"] = m.RSquared
		details["mae"] = m.MAE
	}
	for k, v := range r.Diagnostics {
		details[k] = v
	}
	return details
}
