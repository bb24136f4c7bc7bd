// Package party classifies raw party documents and flattens them into row streams.
package party

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Document is one raw party document as materialized by a decoder.
type Document = map[string]any

// Record is a nested object whose keys have been normalized.
type Record map[string]any

// NormalizeKey canonicalizes a field name: surrounding space trimmed, case folded.
// "IndividualDetails", " individualdetails" and "INDIVIDUALDETAILS" all map to
// "individualdetails".
func NormalizeKey(key string) string {
	// Casers keep internal state and must not be shared across goroutines.
	return cases.Fold().String(strings.TrimSpace(key))
}

// Normalize returns a copy of m keyed by normalized names. When two source keys
// collide, the one already in canonical form wins; otherwise the first in sorted
// order wins, so the result does not depend on map iteration order.
func Normalize(m map[string]any) Record {
	out := make(Record, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		nk := NormalizeKey(k)
		if _, taken := out[nk]; taken && k != nk {
			continue
		}
		out[nk] = m[k]
	}
	return out
}

// Lookup finds key in m, preferring an exact match and falling back to a
// normalized comparison.
func Lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	want := NormalizeKey(key)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if NormalizeKey(k) == want {
			return m[k], true
		}
	}
	return nil, false
}

// Get returns the value stored under the normalized form of key.
func (r Record) Get(key string) any {
	return r[NormalizeKey(key)]
}

// asObject returns v as a key/value map when it is one.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asList returns v as a list, treating anything else as empty.
func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// truthy reports whether v counts as present: nil, empty containers, empty
// strings, false and zero are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
