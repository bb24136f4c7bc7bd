package load

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/partyload/internal/db"
	"github.com/sells-group/partyload/internal/tabular"
)

// SQLite replaces one table per dataset in a SQLite database, with the same
// drop/recreate TEXT-column semantics as the Postgres sink.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens a SQLite database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection: SQLite has a single writer and :memory: is per connection.
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: conn, log: zap.L().With(zap.String("component", "load.sqlite"))}, nil
}

// Name implements tabular.Sink.
func (s *SQLite) Name() string { return "sqlite" }

// Write implements tabular.Sink.
func (s *SQLite) Write(ctx context.Context, t *tabular.Table) (string, error) {
	if t.Len() == 0 {
		return "", nil
	}
	table := t.Dataset.Table()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: begin tx for %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()); err != nil {
		return "", eris.Wrapf(err, "sqlite: drop %s", table)
	}
	if _, err := tx.ExecContext(ctx, db.CreateTableSQL("", table, t.Header)); err != nil {
		return "", eris.Wrapf(err, "sqlite: create %s", table)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, t.Header))
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i, vals := range t.Values {
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return "", eris.Wrapf(err, "sqlite: insert %s row %d", table, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrapf(err, "sqlite: commit %s", table)
	}
	s.log.Info("dataset loaded", zap.String("dataset", string(t.Dataset)), zap.String("table", table), zap.Int("rows", t.Len()))
	return table, nil
}

// Close implements tabular.Sink.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func insertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
		marks[i] = "?"
	}
	return "INSERT INTO " + pgx.Identifier{table}.Sanitize() +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}
