package tabular

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/partyload/internal/party"
)

// Sink receives rendered tables. Write is never called with an empty table.
type Sink interface {
	// Name identifies the sink in logs and errors (e.g., "csv", "postgres").
	Name() string

	// Write stores t and returns where it went (a file path, a table name).
	Write(ctx context.Context, t *Table) (string, error)

	// Close flushes anything buffered across tables.
	Close() error
}

// CSVSink writes one CSV file per dataset, named after the run.
type CSVSink struct {
	dir string
	run party.RunContext
}

// NewCSVSink writes files for run into dir.
func NewCSVSink(dir string, run party.RunContext) *CSVSink {
	return &CSVSink{dir: dir, run: run}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv" }

// Write implements Sink.
func (s *CSVSink) Write(ctx context.Context, t *Table) (string, error) {
	if t.Len() == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "csv sink: context cancelled")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "csv sink: create dir %s", s.dir)
	}

	path := filepath.Join(s.dir, FileName(string(t.Dataset), s.run.ID, s.run.StartedAt, "csv"))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "csv sink: create file")
	}
	defer f.Close() //nolint:errcheck

	if err := WriteCSV(f, t); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", eris.Wrapf(err, "csv sink: sync %s", path)
	}
	return path, nil
}

// Close implements Sink.
func (s *CSVSink) Close() error { return nil }

// WriteCSV writes the header and records of t.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "csv sink: write header")
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return eris.Wrapf(err, "csv sink: write %s rows", t.Dataset)
	}
	return nil
}
