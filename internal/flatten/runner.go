// Package flatten drives a run: it classifies and extracts a batch of party
// documents, then plans, renders and writes every non-empty dataset.
package flatten

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/partyload/internal/layout"
	"github.com/sells-group/partyload/internal/party"
	"github.com/sells-group/partyload/internal/tabular"
)

// SinkFactory opens the sinks for a run. Sinks are closed when the run ends.
type SinkFactory func(ctx context.Context, rc party.RunContext) ([]tabular.Sink, error)

// Options configures a Runner.
type Options struct {
	// Strict matches the detail keys by exact case.
	Strict bool
	// Planners picks the column planner per dataset; the zero value plans
	// from observed rows.
	Planners layout.Selector
	// Workers > 1 extracts documents concurrently; output order is unchanged.
	Workers int
	// Sinks opens the run's sinks. Nil plans and renders without writing.
	Sinks   SinkFactory
	Metrics *Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// DatasetResult summarises one dataset of a run.
type DatasetResult struct {
	Dataset   party.Dataset
	Rows      int
	Columns   layout.Layout
	Artifacts []string
}

// Result summarises a run.
type Result struct {
	Run                party.RunContext
	Documents          int
	Parties            int
	MissingIdentifiers int
	Skipped            int
	Datasets           []DatasetResult
	Errors             []*DatasetError
}

// Runner executes flatten runs.
type Runner struct {
	opts Options
	x    party.Extractor
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		opts: opts,
		x:    party.Extractor{Classifier: party.Classifier{Strict: opts.Strict}},
	}
}

// Run processes docs as one batch under a fresh run context. Dataset failures
// are collected in the Result and joined into the returned error; the run
// still attempts every other dataset.
func (r *Runner) Run(ctx context.Context, docs []party.Document) (*Result, error) {
	start := time.Now()
	rc := party.NewRunContext(r.opts.Now())
	log := zap.L().With(zap.String("component", "flatten"), zap.String("run_id", rc.ID))
	log.Info("run started",
		zap.String("run_date_local", rc.Local),
		zap.String("run_date_utc", rc.UTC),
		zap.Int("documents", len(docs)),
	)

	b, err := r.Extract(ctx, rc, docs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Run:                rc,
		Documents:          b.Documents,
		Parties:            b.Parties,
		MissingIdentifiers: b.MissingIdentifiers,
		Skipped:            b.Skipped,
	}
	r.opts.Metrics.addDocuments(b.Documents)
	r.opts.Metrics.addMissingIdentifiers(b.MissingIdentifiers)
	if b.MissingIdentifiers > 0 {
		log.Warn("entities without party identifier", zap.Int("count", b.MissingIdentifiers))
	}
	if b.Skipped > 0 {
		log.Warn("detail values that are not objects were skipped", zap.Int("count", b.Skipped))
	}
	log.Info("parties processed", zap.Int("parties", b.Parties), zap.Int("rows", b.Total()))

	var sinks []tabular.Sink
	if r.opts.Sinks != nil {
		sinks, err = r.opts.Sinks(ctx, rc)
		if err != nil {
			return nil, eris.Wrap(err, "flatten: open sinks")
		}
	}

	for _, ds := range b.NonEmpty() {
		dr, errs := r.writeDataset(ctx, log, ds, b.Rows(ds), sinks)
		res.Datasets = append(res.Datasets, dr)
		res.Errors = append(res.Errors, errs...)
	}

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			res.Errors = append(res.Errors, &DatasetError{Sink: s.Name(), Err: eris.Wrap(err, "flatten: close sink")})
		}
	}

	elapsed := time.Since(start)
	r.opts.Metrics.observeRun(elapsed)
	log.Info("run complete",
		zap.Int("datasets", len(res.Datasets)),
		zap.Int("failed", len(res.Errors)),
		zap.Duration("elapsed", elapsed),
	)

	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return res, eris.Wrapf(errors.Join(errs...), "flatten: run %s: %d failure(s)", rc.ID, len(errs))
	}
	return res, nil
}

// Extract classifies and extracts docs into a new batch. Context cancellation
// is honoured between documents only.
func (r *Runner) Extract(ctx context.Context, rc party.RunContext, docs []party.Document) (*party.Batch, error) {
	if r.opts.Workers <= 1 {
		b := party.NewBatch()
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrapf(err, "flatten: cancelled at document %d", i)
			}
			r.x.Process(rc, doc, b)
		}
		return b, nil
	}

	parts := make([]*party.Batch, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrapf(err, "flatten: cancelled at document %d", i)
			}
			part := party.NewBatch()
			r.x.Process(rc, doc, part)
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := party.NewBatch()
	for _, part := range parts {
		b.Merge(part)
	}
	return b, nil
}

func (r *Runner) writeDataset(ctx context.Context, log *zap.Logger, ds party.Dataset, rows []party.Row, sinks []tabular.Sink) (DatasetResult, []*DatasetError) {
	dr := DatasetResult{Dataset: ds, Rows: len(rows)}
	dsLog := log.With(zap.String("dataset", string(ds)))
	r.opts.Metrics.addRows(string(ds), len(rows))

	fail := func(sink string, err error) *DatasetError {
		dsLog.Error("dataset failed", zap.String("sink", sink), zap.Error(err))
		r.opts.Metrics.incFailure(string(ds), sink)
		return &DatasetError{Dataset: ds, Sink: sink, Err: err}
	}

	l, err := r.opts.Planners.For(ds).Plan(ds, rows)
	if err != nil {
		return dr, []*DatasetError{fail("", err)}
	}
	dr.Columns = l

	tbl, err := tabular.Render(ds, l, rows)
	if err != nil {
		return dr, []*DatasetError{fail("", err)}
	}

	// Each sink sees datasets one at a time; sinks run side by side.
	locs := make([]string, len(sinks))
	errs := make([]error, len(sinks))
	var g errgroup.Group
	for i, s := range sinks {
		g.Go(func() error {
			t0 := time.Now()
			locs[i], errs[i] = s.Write(ctx, tbl)
			r.opts.Metrics.observeWrite(s.Name(), time.Since(t0))
			return nil
		})
	}
	_ = g.Wait()

	var out []*DatasetError
	for i, s := range sinks {
		if errs[i] != nil {
			out = append(out, fail(s.Name(), errs[i]))
			continue
		}
		if locs[i] != "" {
			dr.Artifacts = append(dr.Artifacts, locs[i])
			dsLog.Info("dataset written", zap.String("sink", s.Name()), zap.String("artifact", locs[i]), zap.Int("rows", tbl.Len()))
		}
	}
	return dr, out
}
