package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"co2etl/internal/export"
	"co2etl/internal/pipeline"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline and write the output table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), opts.verbose)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			flush, err := setupMetrics(p.Metrics, p.Job, log)
			if err != nil {
				return err
			}
			defer flush()

			log.Info("pipeline starting",
				zap.String("emissions", p.Sources.Emissions.Location()),
				zap.String("population", p.Sources.Population.Location()),
				zap.String("gdp", p.Sources.GDP.Location()),
				zap.String("output", p.Output.Kind),
			)
			sum, err := pipeline.Run(cmd.Context(), p, pipeline.WithLogger(log))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "output:       %s\n", sum.Output)
			fmt.Fprintf(out, "rows written: %d\n", sum.Written)
			fmt.Fprintf(out, "population:   %d matched, %d unmatched\n", sum.Population.Matched, sum.Population.Unmatched)
			fmt.Fprintf(out, "gdp:          %d matched, %d unmatched\n", sum.GDP.Matched, sum.GDP.Unmatched)
			fmt.Fprintf(out, "undefined:    %d per capita, %d per gdp\n", sum.Derive.PerCapita.Undefined, sum.Derive.PerGDP.Undefined)
			fmt.Fprintf(out, "fingerprint:  %s\n", export.FingerprintHex(sum.Fingerprint))
			return nil
		},
	}
}
