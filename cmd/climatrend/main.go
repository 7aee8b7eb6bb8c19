// Command climatrend cleans climate observation series, analyses their
// trends and forecasts them.
//
// Usage:
//
//	climatrend <clean|analyze|forecast|run> [flags]
//
// Exit status is 0 when every unit succeeded, 2 when some failed or could
// not persist their artifacts, and 1 when all failed or the configuration
// is invalid.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/sartorproj/climatrend/internal/config"
	"github.com/sartorproj/climatrend/internal/logging"
	"github.com/sartorproj/climatrend/pipeline"
	"github.com/sartorproj/climatrend/store"
)

var commands = map[string][]pipeline.Stage{
	"clean":    {pipeline.StageClean},
	"analyze":  {pipeline.StageAnalyze},
	"forecast": {pipeline.StageForecast},
	"run":      pipeline.Stages(),
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return pipeline.ExitFailure
	}
	command := args[0]
	stages, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		usage(stderr)
		return pipeline.ExitFailure
	}

	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return pipeline.ExitOK
		}
		return pipeline.ExitFailure
	}

	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(configFile, fs)
	if err != nil {
		fmt.Fprintf(stderr, "climatrend: %v\n", err)
		return pipeline.ExitFailure
	}

	log := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	st, err := store.Open(cfg.Store.Driver, cfg.Output.CleanedDir, cfg.Store.Path)
	if err != nil {
		log.WithError(err).Error("Failed to open store")
		return pipeline.ExitFailure
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	summary := pipeline.New(cfg, st, log).Run(command, stages...)
	return summary.ExitCode()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: climatrend <clean|analyze|forecast|run> [flags]")
	fmt.Fprintln(w, "run 'climatrend <command> --help' for flags")
}
