// Command co2etl reconciles sectoral CO2 emissions with population and GDP
// tables and exports per-capita and per-GDP intensities.
//
//	co2etl run      --config pipeline.yaml [-v]
//	co2etl validate --config pipeline.yaml
//	co2etl inspect  --config pipeline.yaml --source gdp
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"co2etl/internal/config"
	"co2etl/internal/logging"

	// every database sink is available; the config picks one.
	_ "co2etl/internal/storage/all"
)

// newLogger is swapped by tests to capture log output.
var newLogger = func(_ io.Writer, verbose bool) (*zap.Logger, error) {
	return logging.New(verbose)
}

type rootOptions struct {
	configPath string
	verbose    bool
	getenv     func(string) string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr, os.Getenv)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "co2etl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	opts := &rootOptions{getenv: getenv}

	root := &cobra.Command{
		Use:           "co2etl",
		Short:         "Merge CO2 emissions with population and GDP and derive intensities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/pipeline.yaml", "pipeline config (JSON or YAML)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newInspectCmd(opts))
	return root
}

// loadConfig reads the pipeline, applies environment overrides and prints
// every validation issue to w. It fails when any issue is an error.
func loadConfig(opts *rootOptions, w io.Writer) (config.Pipeline, error) {
	p, err := config.Load(opts.configPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	p.ApplyEnv(opts.getenv)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return p, fmt.Errorf("configuration is invalid: %s", opts.configPath)
	}
	return p, nil
}
