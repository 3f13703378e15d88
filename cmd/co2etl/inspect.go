package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"co2etl/internal/config"
	"co2etl/internal/datasource"
	csvparser "co2etl/internal/parser/csv"
	"co2etl/internal/reshape"
	"co2etl/internal/schema"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the header of one source and the columns the pipeline will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			src, sel, err := pickSource(p, role)
			if err != nil {
				return err
			}
			ds, err := datasource.New(cmd.Context(), src)
			if err != nil {
				return err
			}
			rc, err := ds.Open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Location(), err)
			}
			defer rc.Close()

			headers, err := csvparser.NewParser(csvparser.OptionsFrom(src.Parser)).ReadHeader(role, rc)
			if err != nil {
				return err
			}
			if sel == nil {
				return printEmissionsHeader(cmd.OutOrStdout(), headers)
			}
			return printYearColumns(cmd.OutOrStdout(), headers, src.EntityColumn, sel)
		},
	}
	cmd.Flags().StringVar(&role, "source", "population", "source to inspect: emissions, population or gdp")
	return cmd
}

// pickSource returns the configured source for role and its year selector;
// the selector is nil for emissions.
func pickSource(p config.Pipeline, role string) (config.Source, schema.YearSelector, error) {
	switch role {
	case "emissions":
		return p.Sources.Emissions, nil, nil
	case "population":
		return p.Sources.Population, schema.PopulationYearColumn, nil
	case "gdp":
		return p.Sources.GDP, schema.GDPYearColumn, nil
	default:
		return config.Source{}, nil, fmt.Errorf("unknown source %q; expected emissions, population or gdp", role)
	}
}

func printEmissionsHeader(w io.Writer, headers []string) error {
	norm := schema.NormalizeHeaders(headers)
	seen := make(map[string]bool, len(norm))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RAW\tNORMALIZED")
	for i, h := range headers {
		fmt.Fprintf(tw, "%s\t%s\n", h, norm[i])
		seen[norm[i]] = true
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	required := append([]string{schema.Entity, schema.Year}, schema.SectorColumns[:]...)
	for _, c := range required {
		if !seen[c] {
			fmt.Fprintf(w, "missing: %s\n", c)
		}
	}
	return nil
}

func printYearColumns(w io.Writer, headers []string, entityCol string, sel schema.YearSelector) error {
	names, years := reshape.YearColumns(headers, sel)

	hasEntity := false
	for _, h := range headers {
		if h == entityCol {
			hasEntity = true
			break
		}
	}
	if hasEntity {
		fmt.Fprintf(w, "entity column: %s\n", entityCol)
	} else {
		fmt.Fprintf(w, "entity column: %s (missing)\n", entityCol)
	}
	fmt.Fprintf(w, "year columns:  %d\n", len(names))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEADER\tYEAR")
	for i := range names {
		fmt.Fprintf(tw, "%s\t%d\n", names[i], years[i])
	}
	return tw.Flush()
}
