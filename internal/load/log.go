package load

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/partyload/internal/db"
)

// Load statuses recorded in party_data.load_log.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry is a row in party_data.load_log.
type Entry struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Dataset     string     `json:"dataset"`
	Target      string     `json:"target"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RowsLoaded  int64      `json:"rows_loaded"`
	Error       string     `json:"error,omitempty"`
}

// Log provides read/write access to the party_data.load_log table.
type Log struct {
	pool db.Pool
}

// NewLog creates a Log backed by the given connection pool.
func NewLog(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Start records the beginning of a dataset load and returns its ID.
func (l *Log) Start(ctx context.Context, runID, dataset, target string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO party_data.load_log (run_id, dataset, target, status, started_at)
		 VALUES ($1, $2, $3, 'running', now()) RETURNING id`,
		runID, dataset, target,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "loadlog: start %s for run %s", dataset, runID)
	}
	return id, nil
}

// Complete marks a load as successfully completed.
func (l *Log) Complete(ctx context.Context, id, rows int64) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE party_data.load_log
		 SET status = 'complete', completed_at = now(), rows_loaded = $1
		 WHERE id = $2`,
		rows, id,
	)
	if err != nil {
		return eris.Wrapf(err, "loadlog: complete load %d", id)
	}
	return nil
}

// Fail marks a load as failed with an error message.
func (l *Log) Fail(ctx context.Context, id int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE party_data.load_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "loadlog: fail load %d", id)
	}
	return nil
}

// List returns load entries, most recent first. A non-empty runID restricts
// the list to one run; limit <= 0 returns everything.
func (l *Log) List(ctx context.Context, runID string, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, dataset, target, status, started_at, completed_at, rows_loaded, error
		 FROM party_data.load_log
		 WHERE ($1::text = '' OR run_id = $1)
		 ORDER BY started_at DESC, id DESC`
	args := []any{runID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "loadlog: list")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errStr *string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Dataset, &e.Target, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RowsLoaded, &errStr); err != nil {
			return nil, eris.Wrap(err, "loadlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
