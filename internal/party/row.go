package party

import (
	"sort"
	"strings"
)

// Provenance and ownership columns shared by every dataset.
const (
	ColRunID        = "run_guid"
	ColRunDateLocal = "run_date_local"
	ColRunDateUTC   = "run_date_utc"
	ColPartyID      = "partyidentifier"
	ColOwnerType    = "ownertype"
	ColAddressType  = "addresstype"
	ColAddressLines = "addresslines"
)

// ProvenanceColumns lists the run provenance columns in their fixed order.
var ProvenanceColumns = []string{ColRunID, ColRunDateLocal, ColRunDateUTC}

// IsProvenance reports whether col is one of the run provenance columns.
func IsProvenance(col string) bool {
	switch col {
	case ColRunID, ColRunDateLocal, ColRunDateUTC:
		return true
	}
	return false
}

// owned reports whether col is stamped on every row as provenance or ownership.
// Source fields never overwrite these.
func owned(col string) bool {
	return IsProvenance(col) || col == ColPartyID || col == ColOwnerType
}

// addressOwned is owned plus the address type stamped on address rows.
func addressOwned(col string) bool {
	return owned(col) || col == ColAddressType
}

// Row is one extracted output record: column name to scalar value.
type Row map[string]any

// Keys returns the row's column names in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dataset names one output row stream. The value doubles as the artifact name.
type Dataset string

const (
	Individuals        Dataset = "individual"
	Organisations      Dataset = "organisation"
	Emails             Dataset = "emails"
	Phones             Dataset = "phones"
	AddressLines       Dataset = "addresses"
	FormattedAddresses Dataset = "formattedAddresses"
)

// Datasets lists every dataset in output order.
var Datasets = []Dataset{Individuals, Organisations, Emails, Phones, AddressLines, FormattedAddresses}

// String returns the dataset name.
func (d Dataset) String() string { return string(d) }

// HasAddressType reports whether rows of d carry the address-type discriminator.
func (d Dataset) HasAddressType() bool {
	return d == AddressLines || d == FormattedAddresses
}

// Table returns the relational table name for d, e.g. "party_formatted_addresses".
func (d Dataset) Table() string {
	var b strings.Builder
	b.WriteString("party_")
	for i, r := range string(d) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	switch d {
	case Individuals, Organisations:
		b.WriteByte('s')
	}
	return b.String()
}

// ParseDataset resolves a dataset by name, ignoring case.
func ParseDataset(name string) (Dataset, bool) {
	want := NormalizeKey(name)
	for _, d := range Datasets {
		if NormalizeKey(string(d)) == want {
			return d, true
		}
	}
	return "", false
}
