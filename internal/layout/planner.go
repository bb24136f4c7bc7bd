// Package layout plans the ordered column list of each output dataset.
package layout

import (
	"sort"

	"github.com/sells-group/partyload/internal/party"
)

// Layout is the ordered, deduplicated list of columns for one dataset.
type Layout []string

// Index maps each column to its position.
func (l Layout) Index() map[string]int {
	idx := make(map[string]int, len(l))
	for i, c := range l {
		idx[c] = i
	}
	return idx
}

// Planner determines the column layout of a dataset.
type Planner interface {
	Plan(ds party.Dataset, rows []party.Row) (Layout, error)
}

// Observed plans columns from the keys actually present in rows: the party
// identifier first, every other key sorted, the provenance columns last. It must
// see the fully accumulated row set.
type Observed struct{}

// Plan implements Planner.
func (Observed) Plan(_ party.Dataset, rows []party.Row) (Layout, error) {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[party.NormalizeKey(k)] = true
		}
	}

	var middle []string
	for k := range seen {
		if k == party.ColPartyID || party.IsProvenance(k) {
			continue
		}
		middle = append(middle, k)
	}
	sort.Strings(middle)

	out := make(Layout, 0, len(seen))
	if seen[party.ColPartyID] {
		out = append(out, party.ColPartyID)
	}
	out = append(out, middle...)
	for _, k := range party.ProvenanceColumns {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// SchemaPlanner plans columns from the properties a schema declares for each
// dataset, behind a fixed provenance and ownership prefix. It never scans rows.
type SchemaPlanner struct {
	schema *Schema
}

// NewSchemaPlanner returns a planner reading property lists from s.
func NewSchemaPlanner(s *Schema) *SchemaPlanner {
	return &SchemaPlanner{schema: s}
}

// Prefix returns the fixed leading columns for ds.
func Prefix(ds party.Dataset) Layout {
	l := Layout{party.ColRunID, party.ColRunDateUTC, party.ColRunDateLocal, party.ColPartyID, party.ColOwnerType}
	if ds.HasAddressType() {
		l = append(l, party.ColAddressType)
	}
	return l
}

// Plan implements Planner.
func (p *SchemaPlanner) Plan(ds party.Dataset, _ []party.Row) (Layout, error) {
	props, err := p.schema.DatasetProperties(ds)
	if err != nil {
		return nil, err
	}

	out := Prefix(ds)
	seen := make(map[string]bool, len(out)+len(props))
	for _, c := range out {
		seen[c] = true
	}
	for _, prop := range props {
		k := party.NormalizeKey(prop)
		if seen[k] || skipProperty(ds, k) {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// skipProperty drops entity properties describing nested collections; those
// land in their own datasets.
func skipProperty(ds party.Dataset, key string) bool {
	if ds != party.Individuals && ds != party.Organisations {
		return false
	}
	for _, n := range party.NestedKeys {
		if n == key {
			return true
		}
	}
	return false
}

// Selector picks a planner per dataset. Datasets without an override use Default.
type Selector struct {
	Default   Planner
	Overrides map[party.Dataset]Planner
}

// For returns the planner for ds.
func (s Selector) For(ds party.Dataset) Planner {
	if p, ok := s.Overrides[ds]; ok && p != nil {
		return p
	}
	if s.Default == nil {
		return Observed{}
	}
	return s.Default
}
