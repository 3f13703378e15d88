// Package pipeline runs one reconciliation: load the three sources, build
// emissions records, reshape population and GDP to long form, left-join both
// onto emissions, derive the intensity metrics and export the table.
//
// Transform stages are pure functions; the only concurrency is loading the
// sources. Nothing is written until every stage has succeeded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"co2etl/internal/config"
	"co2etl/internal/datasource"
	"co2etl/internal/derive"
	"co2etl/internal/emissions"
	"co2etl/internal/export"
	"co2etl/internal/merge"
	"co2etl/internal/metrics"
	csvparser "co2etl/internal/parser/csv"
	"co2etl/internal/record"
	"co2etl/internal/reshape"
	"co2etl/internal/schema"
	"co2etl/internal/storage"
	"co2etl/internal/table"
)

// Source roles, used as table names in errors and as metric kinds.
const (
	RoleEmissions  = "emissions"
	RolePopulation = "population"
	RoleGDP        = "gdp"
)

// Summary reports what one run did.
type Summary struct {
	Job string

	EmissionsRows  int
	PopulationRows int // long rows after reshaping
	GDPRows        int

	Population merge.Stats
	GDP        merge.Stats
	Derive     derive.Stats

	Output      string // file path or table name
	Written     int64
	Fingerprint uint64
	Elapsed     time.Duration
}

// OpenFunc resolves a configured source to a byte stream.
type OpenFunc func(ctx context.Context, src config.Source) (datasource.Source, error)

type runner struct {
	log  *zap.Logger
	open OpenFunc
	now  func() time.Time
}

// Option customizes Run.
type Option func(*runner)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOpener replaces datasource.New, e.g. to serve sources from memory.
func WithOpener(fn OpenFunc) Option {
	return func(r *runner) {
		if fn != nil {
			r.open = fn
		}
	}
}

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg config.Pipeline, opts ...Option) (Summary, error) {
	r := &runner{log: zap.NewNop(), open: datasource.New, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	if issues := config.ValidatePipeline(cfg); config.HasErrors(issues) {
		errs := make([]error, 0, len(issues))
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				errs = append(errs, iss)
			}
		}
		return Summary{}, fmt.Errorf("invalid pipeline: %w", errors.Join(errs...))
	}
	return r.run(ctx, cfg)
}

func (r *runner) run(ctx context.Context, cfg config.Pipeline) (Summary, error) {
	start := r.now()
	sum := Summary{Job: cfg.Job}
	log := r.log.With(zap.String("job", cfg.Job))

	var emis, pop, gdp *table.Table
	err := r.step(cfg.Job, "load", func() error {
		var err error
		emis, pop, gdp, err = r.loadAll(ctx, cfg.Sources)
		return err
	})
	if err != nil {
		return sum, err
	}
	log.Info("sources loaded",
		zap.Int("emissions_rows", emis.Len()),
		zap.Int("population_rows", pop.Len()),
		zap.Int("gdp_rows", gdp.Len()),
	)

	var base []record.Record
	if err := r.step(cfg.Job, "emissions", func() error {
		var err error
		base, err = emissions.FromTable(emis)
		return err
	}); err != nil {
		return sum, err
	}
	sum.EmissionsRows = len(base)
	metrics.RecordRow(cfg.Job, RoleEmissions, int64(len(base)))

	var popC, gdpC *merge.Candidate
	if err := r.step(cfg.Job, "reshape", func() error {
		var err error
		if popC, sum.PopulationRows, err = candidate(pop, cfg.Sources.Population.EntityColumn, schema.PopulationYearColumn); err != nil {
			return err
		}
		gdpC, sum.GDPRows, err = candidate(gdp, cfg.Sources.GDP.EntityColumn, schema.GDPYearColumn)
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(cfg.Job, RolePopulation, int64(sum.PopulationRows))
	metrics.RecordRow(cfg.Job, RoleGDP, int64(sum.GDPRows))

	var merged []record.Record
	if err := r.step(cfg.Job, "merge", func() error {
		merged, sum.Population = merge.Join(base, popC, merge.Left, merge.SetPopulation)
		merged, sum.GDP = merge.Join(merged, gdpC, merge.Left, merge.SetGDP)
		return nil
	}); err != nil {
		return sum, err
	}
	log.Info("sources merged",
		zap.Stringer("how", merge.Left),
		zap.Int("population_matched", sum.Population.Matched),
		zap.Int("population_unmatched", sum.Population.Unmatched),
		zap.Int("population_unused", sum.Population.Unused),
		zap.Int("gdp_matched", sum.GDP.Matched),
		zap.Int("gdp_unmatched", sum.GDP.Unmatched),
		zap.Int("gdp_unused", sum.GDP.Unused),
	)
	metrics.RecordRow(cfg.Job, "unmatched_population", int64(sum.Population.Unmatched))
	metrics.RecordRow(cfg.Job, "unmatched_gdp", int64(sum.GDP.Unmatched))

	var final []record.Record
	if err := r.step(cfg.Job, "derive", func() error {
		final, sum.Derive = derive.Apply(merged)
		return nil
	}); err != nil {
		return sum, err
	}
	if sum.Derive.PerCapita.Undefined > 0 || sum.Derive.PerGDP.Undefined > 0 {
		log.Warn("zero denominators",
			zap.Int("per_capita_undefined", sum.Derive.PerCapita.Undefined),
			zap.Int("per_gdp_undefined", sum.Derive.PerGDP.Undefined),
		)
	}
	metrics.RecordRow(cfg.Job, "undefined_per_capita", int64(sum.Derive.PerCapita.Undefined))
	metrics.RecordRow(cfg.Job, "undefined_per_gdp", int64(sum.Derive.PerGDP.Undefined))

	if err := r.step(cfg.Job, "export", func() error {
		return r.export(ctx, log, cfg, final, &sum)
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(cfg.Job, "written", sum.Written)

	sum.Elapsed = r.now().Sub(start)
	log.Info("run complete",
		zap.String("output", sum.Output),
		zap.Int64("written", sum.Written),
		zap.String("fingerprint", export.FingerprintHex(sum.Fingerprint)),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}

// step times fn and reports it to the metrics backend.
func (r *runner) step(job, name string, fn func() error) error {
	t0 := r.now()
	err := fn()
	metrics.RecordStep(job, name, err, r.now().Sub(t0))
	if err != nil {
		r.log.Error("step failed", zap.String("step", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debug("step done", zap.String("step", name), zap.Duration("took", r.now().Sub(t0)))
	return nil
}

// loadAll reads the three sources concurrently. The first failure cancels
// the others.
func (r *runner) loadAll(ctx context.Context, s config.Sources) (emis, pop, gdp *table.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		emis, err = r.load(gctx, RoleEmissions, s.Emissions)
		return err
	})
	g.Go(func() error {
		var err error
		pop, err = r.load(gctx, RolePopulation, s.Population)
		return err
	})
	g.Go(func() error {
		var err error
		gdp, err = r.load(gctx, RoleGDP, s.GDP)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return emis, pop, gdp, nil
}

func (r *runner) load(ctx context.Context, role string, src config.Source) (*table.Table, error) {
	ds, err := r.open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", role, err)
	}
	rc, err := ds.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s (%s): %w", role, src.Location(), err)
	}
	defer func(c io.Closer) { _ = c.Close() }(rc)

	t, err := csvparser.NewParser(csvparser.OptionsFrom(src.Parser)).Read(ctx, role, rc)
	if err != nil {
		return nil, fmt.Errorf("read %s (%s): %w", role, src.Location(), err)
	}
	r.log.Debug("source read",
		zap.String("source", role),
		zap.String("location", src.Location()),
		zap.Int("columns", len(t.Headers)),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// candidate renames entityCol to the canonical entity header, reshapes t and
// indexes the result for joining.
func candidate(t *table.Table, entityCol string, sel schema.YearSelector) (*merge.Candidate, int, error) {
	if !t.Rename(entityCol, schema.Entity) {
		if _, ok := t.Index(schema.Entity); !ok {
			return nil, 0, &table.SchemaError{Table: t.Name, Missing: []string{entityCol}}
		}
	}
	rows, err := reshape.WideToLong(t, schema.Entity, sel)
	if err != nil {
		return nil, 0, err
	}
	c, err := merge.NewCandidate(t.Name, rows)
	if err != nil {
		return nil, 0, err
	}
	return c, len(rows), nil
}

func (r *runner) export(ctx context.Context, log *zap.Logger, cfg config.Pipeline, recs []record.Record, sum *Summary) error {
	out := cfg.Output
	if out.Kind == config.KindCSV {
		res, err := export.WriteFile(out.Path, recs)
		if err != nil {
			return err
		}
		sum.Output, sum.Written, sum.Fingerprint = res.Path, int64(res.Rows), res.Fingerprint
		return nil
	}

	fp, err := export.Fingerprint(recs)
	if err != nil {
		return err
	}
	n, err := storage.Export(ctx, log, out, recs)
	if err != nil {
		return err
	}
	if out.DB.BatchSize > 0 {
		metrics.RecordBatches(cfg.Job, (n+int64(out.DB.BatchSize)-1)/int64(out.DB.BatchSize))
	}
	sum.Output, sum.Written, sum.Fingerprint = out.Kind+":"+out.DB.Table, n, fp
	return nil
}
