// Package tabular renders planned datasets into header-led tables and writes
// them to file sinks.
package tabular

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/partyload/internal/layout"
	"github.com/sells-group/partyload/internal/party"
)

// ErrUnplannedColumn reports a row carrying a column the layout does not include.
var ErrUnplannedColumn = eris.New("tabular: row column not in layout")

// Table is one dataset rendered at a fixed column layout.
type Table struct {
	Dataset party.Dataset
	Header  []string
	// Records holds every row as strings in header order; absent fields are "".
	Records [][]string
	// Values holds the same rows for database loads; absent fields are nil.
	Values [][]any
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Render lays rows out at l. It returns nil for an empty row set: no header-only
// table is ever produced. A row key outside l fails with ErrUnplannedColumn
// unless its value is nil, since an empty field carries no data to lose.
func Render(ds party.Dataset, l layout.Layout, rows []party.Row) (*Table, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	idx := l.Index()
	t := &Table{
		Dataset: ds,
		Header:  append([]string(nil), l...),
		Records: make([][]string, 0, len(rows)),
		Values:  make([][]any, 0, len(rows)),
	}

	for i, r := range rows {
		rec := make([]string, len(l))
		vals := make([]any, len(l))
		// Sorted keys keep the reported column stable when several are unplanned.
		for _, k := range r.Keys() {
			v := r[k]
			pos, ok := idx[party.NormalizeKey(k)]
			if !ok {
				if v == nil {
					continue
				}
				return nil, eris.Wrapf(ErrUnplannedColumn, "tabular: %s row %d column %q", ds, i, k)
			}
			if v == nil {
				continue
			}
			rec[pos] = FormatValue(v)
			vals[pos] = rec[pos]
		}
		t.Records = append(t.Records, rec)
		t.Values = append(t.Values, vals)
	}
	return t, nil
}

// FormatValue renders a scalar cell. Nil renders empty; numbers use their
// shortest exact form.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
