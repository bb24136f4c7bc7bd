package party

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the entity shape a detail object represents.
type Kind int

const (
	Individual Kind = iota + 1
	Organisation
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Individual:
		return "individual"
	case Organisation:
		return "organisation"
	default:
		return "unknown"
	}
}

// OwnerType returns the single-letter owner discriminator, "I" or "O".
func (k Kind) OwnerType() string {
	switch k {
	case Individual:
		return "I"
	case Organisation:
		return "O"
	default:
		return ""
	}
}

// DetailKey returns the canonical document key holding this kind's details.
func (k Kind) DetailKey() string {
	switch k {
	case Individual:
		return "IndividualDetails"
	case Organisation:
		return "OrganisationDetails"
	default:
		return ""
	}
}

// Dataset returns the dataset receiving one row per entity of this kind.
func (k Kind) Dataset() Dataset {
	if k == Organisation {
		return Organisations
	}
	return Individuals
}

// AddressSlots returns the address types read for this kind, in extraction order.
// Only individuals carry a previous physical address.
func (k Kind) AddressSlots() []AddressType {
	if k == Individual {
		return []AddressType{Physical, Postal, PreviousPhysical}
	}
	return []AddressType{Physical, Postal}
}

// kinds in classification order.
var kinds = []Kind{Individual, Organisation}

// Entity is one logical party lifted out of a document.
type Entity struct {
	Kind    Kind
	PartyID string
	// HasPartyID is false when the detail carried no usable identifier.
	HasPartyID bool
	Detail     Record
}

// partyIDValue returns the identifier as stored on rows: nil when missing.
func (e Entity) partyIDValue() any {
	if !e.HasPartyID {
		return nil
	}
	return e.PartyID
}

// Classification is the outcome of inspecting one document.
type Classification struct {
	Entities []Entity
	// Skipped names detail keys that were present but not objects.
	Skipped []string
}

// Classifier decides which entity shapes a document holds.
type Classifier struct {
	// Strict matches the canonical detail keys literally instead of through
	// the key normalizer.
	Strict bool
}

// Classify returns the individual and organisation entities present in doc,
// in that order. A document with neither yields an empty classification.
func (c Classifier) Classify(doc Document) Classification {
	var out Classification
	for _, k := range kinds {
		v, ok := c.lookup(doc, k.DetailKey())
		if !ok || !truthy(v) {
			continue
		}
		obj, isObj := asObject(v)
		if !isObj {
			out.Skipped = append(out.Skipped, k.DetailKey())
			continue
		}
		detail := Normalize(obj)
		id, hasID := scalarString(detail[ColPartyID])
		out.Entities = append(out.Entities, Entity{
			Kind:       k,
			PartyID:    id,
			HasPartyID: hasID && strings.TrimSpace(id) != "",
			Detail:     detail,
		})
	}
	return out
}

func (c Classifier) lookup(doc Document, key string) (any, bool) {
	if c.Strict {
		v, ok := doc[key]
		return v, ok
	}
	return Lookup(doc, key)
}

// scalarString renders a scalar identifier. Objects and lists are not identifiers.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool, int, int64, fmt.Stringer:
		return fmt.Sprint(t), true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}
