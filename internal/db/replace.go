package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Ident returns the identifier for table, qualified by schema when set.
func Ident(schema, table string) pgx.Identifier {
	if schema == "" {
		return pgx.Identifier{table}
	}
	return pgx.Identifier{schema, table}
}

// CreateTableSQL builds a CREATE TABLE statement with every column typed TEXT.
func CreateTableSQL(schema, table string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return "CREATE TABLE " + Ident(schema, table).Sanitize() + " (" + strings.Join(cols, ", ") + ")"
}

// EnsureSchema creates schema if it does not exist. An empty schema is a no-op.
func EnsureSchema(ctx context.Context, ex Execer, schema string) error {
	if schema == "" {
		return nil
	}
	if _, err := ex.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return eris.Wrapf(err, "db: create schema %s", schema)
	}
	return nil
}

// ReplaceTable drops table and recreates it with the given TEXT columns.
// Run it inside a transaction to keep readers off a half-built table.
func ReplaceTable(ctx context.Context, ex Execer, schema, table string, columns []string) error {
	if len(columns) == 0 {
		return eris.Errorf("db: replace %s: no columns", table)
	}

	id := Ident(schema, table).Sanitize()
	if _, err := ex.Exec(ctx, "DROP TABLE IF EXISTS "+id); err != nil {
		return eris.Wrapf(err, "db: drop %s", id)
	}
	if _, err := ex.Exec(ctx, CreateTableSQL(schema, table, columns)); err != nil {
		return eris.Wrapf(err, "db: create %s", id)
	}
	return nil
}
