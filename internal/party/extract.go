package party

import (
	"encoding/json"
	"fmt"
)

// Normalized detail keys holding nested collections.
const (
	keyEmails = "emails"
	keyPhones = "phones"
)

// entityFields are the declared per-kind columns, always present on entity rows.
var entityFields = map[Kind][]string{
	Individual:   {"firstname", "lastname", "middlename"},
	Organisation: {"name"},
}

// NestedKeys lists the normalized detail keys that feed their own datasets
// rather than the entity row.
var NestedKeys = []string{
	keyEmails,
	keyPhones,
	Physical.sourceKey(),
	Postal.sourceKey(),
	PreviousPhysical.sourceKey(),
}

func isNested(key string) bool {
	for _, k := range NestedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Extractor turns documents into rows appended to a caller-owned Batch.
type Extractor struct {
	Classifier Classifier
}

// Process classifies doc and extracts every row it contributes into b.
func (x Extractor) Process(rc RunContext, doc Document, b *Batch) Classification {
	cls := x.Classifier.Classify(doc)
	b.Documents++
	b.Skipped += len(cls.Skipped)
	for _, e := range cls.Entities {
		ExtractEntity(rc, e, b)
	}
	return cls
}

// ExtractEntity appends the entity row, its sub-records and its addresses to b.
func ExtractEntity(rc RunContext, e Entity, b *Batch) {
	b.Parties++
	if !e.HasPartyID {
		b.MissingIdentifiers++
	}

	b.Append(e.Kind.Dataset(), entityRow(rc, e))

	for _, el := range asList(e.Detail[keyEmails]) {
		b.Append(Emails, subRecordRow(rc, e, el))
	}
	for _, el := range asList(e.Detail[keyPhones]) {
		b.Append(Phones, subRecordRow(rc, e, el))
	}

	for _, slot := range e.Kind.AddressSlots() {
		flattenAddress(rc, e, slot, e.Detail[slot.sourceKey()], b)
	}
}

// ownedRow starts a row with provenance, party identifier and owner type.
func ownedRow(rc RunContext, e Entity) Row {
	r := Row{
		ColPartyID:   e.partyIDValue(),
		ColOwnerType: e.Kind.OwnerType(),
	}
	rc.stamp(r)
	return r
}

// entityRow carries the declared name fields plus every other scalar detail field.
func entityRow(rc RunContext, e Entity) Row {
	r := ownedRow(rc, e)
	for _, f := range entityFields[e.Kind] {
		r[f] = nil
	}
	for k, v := range e.Detail {
		if owned(k) || isNested(k) {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		r[k] = v
	}
	return r
}

// subRecordRow merges one collection element into an owned row. Element fields
// never overwrite provenance or ownership columns.
func subRecordRow(rc RunContext, e Entity, el any) Row {
	r := ownedRow(rc, e)
	obj, ok := asObject(el)
	if !ok {
		r["value"] = flatValue(el)
		return r
	}
	for k, v := range Normalize(obj) {
		if owned(k) {
			continue
		}
		r[k] = flatValue(v)
	}
	return r
}

// flatValue keeps scalars as they are and encodes nested values as JSON text.
func flatValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return v
	}
}
