package tabular

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/partyload/internal/party"
)

// XLSXSink collects every dataset of a run into one workbook, one sheet per
// dataset. The workbook is saved on Close.
type XLSXSink struct {
	dir    string
	run    party.RunContext
	file   *xlsx.File
	sheets int
}

// NewXLSXSink writes a workbook for run into dir.
func NewXLSXSink(dir string, run party.RunContext) *XLSXSink {
	return &XLSXSink{dir: dir, run: run, file: xlsx.NewFile()}
}

// Name implements Sink.
func (s *XLSXSink) Name() string { return "xlsx" }

// Path returns where the workbook is saved.
func (s *XLSXSink) Path() string {
	return filepath.Join(s.dir, FileName("parties", s.run.ID, s.run.StartedAt, "xlsx"))
}

// Write implements Sink. It adds a sheet; nothing touches disk until Close.
func (s *XLSXSink) Write(ctx context.Context, t *Table) (string, error) {
	if t.Len() == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "xlsx sink: context cancelled")
	}

	sheet, err := s.file.AddSheet(string(t.Dataset))
	if err != nil {
		return "", eris.Wrapf(err, "xlsx sink: add sheet %s", t.Dataset)
	}
	addRow(sheet, t.Header)
	for _, rec := range t.Records {
		addRow(sheet, rec)
	}
	s.sheets++
	return s.Path() + "#" + string(t.Dataset), nil
}

// Close implements Sink. A run that wrote no sheets leaves no workbook behind.
func (s *XLSXSink) Close() error {
	if s.sheets == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "xlsx sink: create dir %s", s.dir)
	}
	if err := s.file.Save(s.Path()); err != nil {
		return eris.Wrap(err, "xlsx sink: save workbook")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
