package load

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/partyload/internal/db"
	"github.com/sells-group/partyload/internal/party"
	"github.com/sells-group/partyload/internal/tabular"
)

// DefaultBatchSize is the number of rows sent per COPY.
const DefaultBatchSize = 5000

// PostgresOptions configures a Postgres sink.
type PostgresOptions struct {
	// Schema holds the dataset tables; empty uses the search path.
	Schema string
	// BatchSize caps rows per COPY; <= 0 uses DefaultBatchSize.
	BatchSize int
	// BatchesPerSec throttles COPY batches; <= 0 disables throttling.
	BatchesPerSec float64
	// Log records each dataset load when set.
	Log *Log
	// Retry governs reloading a table after a transient failure; the zero
	// value uses DefaultRetryConfig.
	Retry RetryConfig
}

// Postgres replaces one table per dataset and bulk-loads it with COPY.
// Every column is TEXT; the table is dropped and recreated on each load, all
// in one transaction, so a transient failure reloads the table from scratch.
type Postgres struct {
	pool    db.Pool
	run     party.RunContext
	opts    PostgresOptions
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewPostgres creates a Postgres sink for run. The pool stays owned by the caller.
func NewPostgres(pool db.Pool, run party.RunContext, opts PostgresOptions) *Postgres {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if opts.BatchesPerSec > 0 {
		limit = rate.Limit(opts.BatchesPerSec)
	}
	return &Postgres{
		pool:    pool,
		run:     run,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     zap.L().With(zap.String("component", "load.postgres")),
	}
}

// Name implements tabular.Sink.
func (p *Postgres) Name() string { return "postgres" }

// Target returns the qualified table name a dataset loads into.
func (p *Postgres) Target(ds party.Dataset) string {
	if p.opts.Schema == "" {
		return ds.Table()
	}
	return p.opts.Schema + "." + ds.Table()
}

// Write implements tabular.Sink.
func (p *Postgres) Write(ctx context.Context, t *tabular.Table) (string, error) {
	if t.Len() == 0 {
		return "", nil
	}
	target := p.Target(t.Dataset)

	var logID int64
	if p.opts.Log != nil {
		id, err := p.opts.Log.Start(ctx, p.run.ID, string(t.Dataset), target)
		if err != nil {
			return "", err
		}
		logID = id
	}

	start := time.Now()
	n, err := retryVal(ctx, p.opts.Retry, target, func(ctx context.Context) (int64, error) {
		return p.replace(ctx, t)
	})
	if err != nil {
		if p.opts.Log != nil {
			if ferr := p.opts.Log.Fail(ctx, logID, err.Error()); ferr != nil {
				p.log.Warn("load: record failure", zap.String("target", target), zap.Error(ferr))
			}
		}
		return "", err
	}

	if p.opts.Log != nil {
		if err := p.opts.Log.Complete(ctx, logID, n); err != nil {
			return "", err
		}
	}

	p.log.Info("dataset loaded",
		zap.String("dataset", string(t.Dataset)),
		zap.String("target", target),
		zap.Int64("rows", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return target, nil
}

func (p *Postgres) replace(ctx context.Context, t *tabular.Table) (int64, error) {
	table := t.Dataset.Table()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "load: begin tx for %s", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := db.EnsureSchema(ctx, tx, p.opts.Schema); err != nil {
		return 0, err
	}
	if err := db.ReplaceTable(ctx, tx, p.opts.Schema, table, t.Header); err != nil {
		return 0, err
	}

	var total int64
	for lo := 0; lo < len(t.Values); lo += p.opts.BatchSize {
		hi := min(lo+p.opts.BatchSize, len(t.Values))
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, eris.Wrapf(err, "load: throttle %s", table)
		}
		n, err := db.CopyFromSchema(ctx, tx, p.opts.Schema, table, t.Header, t.Values[lo:hi])
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "load: commit %s", table)
	}
	return total, nil
}

// Close implements tabular.Sink.
func (p *Postgres) Close() error { return nil }
