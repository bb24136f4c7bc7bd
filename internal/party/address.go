package party

import "strings"

// AddressType discriminates the address slots of a party.
type AddressType string

const (
	Physical         AddressType = "Physical"
	Postal           AddressType = "Postal"
	PreviousPhysical AddressType = "PreviousPhysical"
)

// sourceKey is the normalized detail key holding this slot, e.g. "postaladdress".
func (t AddressType) sourceKey() string {
	return NormalizeKey(string(t) + "Address")
}

// LineSeparator joins free-text address lines into one column.
const LineSeparator = "|"

const keyFormattedAddress = "formattedaddress"

// FormattedAddressFields are the structured address columns, always present on
// formatted-address rows.
var FormattedAddressFields = []string{
	"buildingname",
	"city",
	"countrycode",
	"postcode",
	"streetname",
	"streetnumber",
	"suburb",
	"townname",
}

// flattenAddress emits up to two rows for one address slot: the joined
// address lines and the structured form. The two are never merged.
func flattenAddress(rc RunContext, e Entity, t AddressType, raw any, b *Batch) {
	obj, ok := asObject(raw)
	if !ok || len(obj) == 0 {
		return
	}
	addr := Normalize(obj)

	if lines := addressLines(addr[ColAddressLines]); len(lines) > 0 {
		r := ownedRow(rc, e)
		r[ColAddressType] = string(t)
		r[ColAddressLines] = joinLines(lines)
		b.Append(AddressLines, r)
	}

	if fa, ok := asObject(addr[keyFormattedAddress]); ok {
		r := ownedRow(rc, e)
		r[ColAddressType] = string(t)
		for _, f := range FormattedAddressFields {
			r[f] = nil
		}
		for k, v := range Normalize(fa) {
			if addressOwned(k) {
				continue
			}
			r[k] = flatValue(v)
		}
		b.Append(FormattedAddresses, r)
	}
}

// addressLines returns the address lines held by v. A lone non-empty string is
// a single line.
func addressLines(v any) []any {
	if s, ok := v.(string); ok && s != "" {
		return []any{s}
	}
	return asList(v)
}

// joinLines joins lines in their original order. Nested line values are kept
// as JSON text.
func joinLines(lines []any) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		if s, ok := scalarString(l); ok {
			parts[i] = s
			continue
		}
		parts[i], _ = flatValue(l).(string)
	}
	return strings.Join(parts, LineSeparator)
}
