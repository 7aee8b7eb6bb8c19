// Package config loads pipeline settings from a YAML file, CLIMATREND_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sartorproj/climatrend/cleaner"
	"github.com/sartorproj/climatrend/timeseries"
)

// EnvPrefix is prepended to every environment override, e.g.
// CLIMATREND_OUTPUT_PROCESSED_DIR.
const EnvPrefix = "CLIMATREND"

// Config holds every pipeline setting.
type Config struct {
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"`
	Input     InputConfig    `mapstructure:"input"`
	Output    OutputConfig   `mapstructure:"output"`
	Store     StoreConfig    `mapstructure:"store"`
	Cleaning  CleaningConfig `mapstructure:"cleaning"`
	Analysis  AnalysisConfig `mapstructure:"analysis"`
	Forecast  ForecastConfig `mapstructure:"forecast"`
}

// InputConfig names the formatted input file of each domain, relative to Dir.
type InputConfig struct {
	Dir           string `mapstructure:"dir"`
	Temperature   string `mapstructure:"temperature"`
	CO2           string `mapstructure:"co2"`
	SeaLevel      string `mapstructure:"sea_level"`
	Deforestation string `mapstructure:"deforestation"`
}

// OutputConfig names the artifact directories and the run summary file.
type OutputConfig struct {
	CleanedDir     string `mapstructure:"cleaned_dir"`
	ProcessedDir   string `mapstructure:"processed_dir"`
	PredictionsDir string `mapstructure:"predictions_dir"`
	SummaryFile    string `mapstructure:"summary_file"`
}

// StoreConfig selects where cleaned series are kept. Driver "csv" uses
// Output.CleanedDir; "sqlite" uses Path.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// CleaningConfig tunes the outlier rules and the temperature gap interval.
type CleaningConfig struct {
	Regions                 []string `mapstructure:"regions"`
	IQRFactor               float64  `mapstructure:"iqr_factor"`
	SeaLevelWindow          int      `mapstructure:"sea_level_window"`
	SeaLevelSigma           float64  `mapstructure:"sea_level_sigma"`
	TemperatureIntervalDays int      `mapstructure:"temperature_interval_days"`
}

// AnalysisConfig tunes the trend analyses.
type AnalysisConfig struct {
	DecompositionPeriod int `mapstructure:"decomposition_period"`
}

// ForecastConfig selects the forecast targets and model parameters.
type ForecastConfig struct {
	HorizonYears int      `mapstructure:"horizon_years"`
	ARIMAOrder   []int    `mapstructure:"arima_order"`
	ARIMATargets []string `mapstructure:"arima_targets"`
	TrendTargets []string `mapstructure:"trend_targets"`
	Changepoints int      `mapstructure:"changepoints"`
	FourierOrder int      `mapstructure:"fourier_order"`
	SplitYear    int      `mapstructure:"split_year"`
	Trees        int      `mapstructure:"trees"`
	Seed         uint64   `mapstructure:"seed"`
	// DeforestationAggregation is "sum" or "region:<ISO3>".
	DeforestationAggregation string `mapstructure:"deforestation_aggregation"`
	// DeforestationMissing is "zero" or "drop".
	DeforestationMissing string `mapstructure:"deforestation_missing"`
}

// InputPath returns the configured input file for a domain.
func (c *Config) InputPath(d timeseries.Domain) string {
	var name string
	switch d {
	case timeseries.Temperature:
		name = c.Input.Temperature
	case timeseries.CO2:
		name = c.Input.CO2
	case timeseries.SeaLevel:
		name = c.Input.SeaLevel
	case timeseries.Deforestation:
		name = c.Input.Deforestation
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Input.Dir, name)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"log-format":      "log_format",
	"input-dir":       "input.dir",
	"cleaned-dir":     "output.cleaned_dir",
	"processed-dir":   "output.processed_dir",
	"predictions-dir": "output.predictions_dir",
	"store":           "store.driver",
	"store-path":      "store.path",
	"horizon":         "forecast.horizon_years",
	"split-year":      "forecast.split_year",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (text, json)")
	fs.String("input-dir", "", "directory holding the formatted input files")
	fs.String("cleaned-dir", "", "directory for cleaned series")
	fs.String("processed-dir", "", "directory for trend artifacts")
	fs.String("predictions-dir", "", "directory for forecast artifacts")
	fs.String("store", "", "cleaned series store driver (csv, sqlite)")
	fs.String("store-path", "", "sqlite database path")
	fs.Int("horizon", 0, "forecast horizon in years")
	fs.Int("split-year", 0, "first year of the held-out test partition")
}

// Load reads configuration. configFile may be empty, in which case
// climatrend.yaml is looked up in ./configs and the working directory and
// its absence is not an error. Only flags explicitly set on fs override.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	} else {
		v.SetConfigName("climatrend")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return errors.New("input directory cannot be empty")
	}
	if c.Output.CleanedDir == "" || c.Output.ProcessedDir == "" || c.Output.PredictionsDir == "" {
		return errors.New("output directories cannot be empty")
	}

	switch c.Store.Driver {
	case "csv":
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store path cannot be empty for sqlite")
		}
	default:
		return fmt.Errorf("unknown store driver %q (want csv or sqlite)", c.Store.Driver)
	}

	if c.Cleaning.IQRFactor <= 0 {
		return fmt.Errorf("iqr factor must be positive, got %g", c.Cleaning.IQRFactor)
	}
	if c.Cleaning.SeaLevelWindow < 2 {
		return fmt.Errorf("sea level window must be at least 2, got %d", c.Cleaning.SeaLevelWindow)
	}
	if c.Cleaning.SeaLevelSigma <= 0 {
		return fmt.Errorf("sea level sigma must be positive, got %g", c.Cleaning.SeaLevelSigma)
	}
	if c.Cleaning.TemperatureIntervalDays < 0 {
		return fmt.Errorf("temperature interval cannot be negative, got %d", c.Cleaning.TemperatureIntervalDays)
	}

	if c.Analysis.DecompositionPeriod < 2 {
		return fmt.Errorf("decomposition period must be at least 2, got %d", c.Analysis.DecompositionPeriod)
	}

	f := c.Forecast
	if f.HorizonYears <= 0 {
		return fmt.Errorf("forecast horizon must be positive, got %d", f.HorizonYears)
	}
	if len(f.ARIMAOrder) != 3 {
		return fmt.Errorf("arima order needs exactly 3 values (p, d, q), got %v", f.ARIMAOrder)
	}
	for _, o := range f.ARIMAOrder {
		if o < 0 {
			return fmt.Errorf("arima order values cannot be negative: %v", f.ARIMAOrder)
		}
	}
	for _, target := range append(append([]string{}, f.ARIMATargets...), f.TrendTargets...) {
		d, err := timeseries.ParseDomain(target)
		if err != nil {
			return err
		}
		if d == timeseries.Deforestation {
			return errors.New("deforestation cannot be a univariate forecast target")
		}
	}
	if f.Changepoints < 0 || f.FourierOrder < 0 {
		return errors.New("changepoints and fourier order cannot be negative")
	}
	if f.SplitYear < 1000 || f.SplitYear > 3000 {
		return fmt.Errorf("split year %d is outside any plausible record", f.SplitYear)
	}
	if f.Trees <= 0 {
		return fmt.Errorf("tree count must be positive, got %d", f.Trees)
	}
	if _, err := cleaner.ParseAggregation(f.DeforestationAggregation); err != nil {
		return fmt.Errorf("deforestation aggregation must be \"sum\" or \"region:<ISO3>\": %w", err)
	}
	if f.DeforestationMissing != "zero" && f.DeforestationMissing != "drop" {
		return fmt.Errorf("deforestation missing policy must be \"zero\" or \"drop\", got %q", f.DeforestationMissing)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("input.dir", "data/formatted")
	v.SetDefault("input.temperature", "temperature_formatted.csv")
	v.SetDefault("input.co2", "co2_reformatted.csv")
	v.SetDefault("input.sea_level", "sea_level_data_formatted.csv")
	v.SetDefault("input.deforestation", "deforestation.json")

	v.SetDefault("output.cleaned_dir", "data/cleaned")
	v.SetDefault("output.processed_dir", "data/processed")
	v.SetDefault("output.predictions_dir", "data/predictions")
	v.SetDefault("output.summary_file", "run_summary.yaml")

	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.path", "data/cleaned/climate.db")

	v.SetDefault("cleaning.regions", []string{})
	v.SetDefault("cleaning.iqr_factor", 1.5)
	v.SetDefault("cleaning.sea_level_window", 30)
	v.SetDefault("cleaning.sea_level_sigma", 3.0)
	v.SetDefault("cleaning.temperature_interval_days", 1)

	v.SetDefault("analysis.decomposition_period", 10)

	v.SetDefault("forecast.horizon_years", 30)
	v.SetDefault("forecast.arima_order", []int{2, 1, 2})
	v.SetDefault("forecast.arima_targets", []string{"temperature"})
	v.SetDefault("forecast.trend_targets", []string{"co2"})
	v.SetDefault("forecast.changepoints", 25)
	v.SetDefault("forecast.fourier_order", 10)
	v.SetDefault("forecast.split_year", 2000)
	v.SetDefault("forecast.trees", 100)
	v.SetDefault("forecast.seed", 42)
	v.SetDefault("forecast.deforestation_aggregation", "sum")
	v.SetDefault("forecast.deforestation_missing", "zero")
}
