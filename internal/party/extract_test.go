package party

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRun returns a run context with fixed timestamps.
func testRun() RunContext {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return RunContext{ID: "run-1", StartedAt: at, Local: at.Format(TimestampLayout), UTC: at.Format(TimestampLayout)}
}

func sampleIndividual() Document {
	return Document{
		"IndividualDetails": map[string]any{
			"PartyIdentifier": "I-100",
			"FirstName":       "Ada",
			"LastName":        "Lovelace",
			"DateOfBirth":     "1815-12-10",
			"Emails": []any{
				map[string]any{"EmailAddress": "ada@example.com", "IsPrimary": true},
				map[string]any{"EmailAddress": "ada@work.example", "IsPrimary": false},
			},
			"Phones": []any{
				map[string]any{"PhoneNumber": "+44 20 0000", "Type": "Mobile", "IsPrimary": true},
			},
			"PhysicalAddress": map[string]any{
				"AddressLines":     []any{"1 Main St", "Unit 4"},
				"FormattedAddress": map[string]any{"City": "Springfield"},
			},
			"PostalAddress": map[string]any{
				"AddressLines": []any{"PO Box 7"},
			},
		},
	}
}

func process(t *testing.T, docs ...Document) *Batch {
	t.Helper()
	b := NewBatch()
	x := Extractor{}
	for _, d := range docs {
		x.Process(testRun(), d, b)
	}
	return b
}

func TestExtract_IndividualDatasets(t *testing.T) {
	b := process(t, sampleIndividual())

	assert.Equal(t, 1, b.Len(Individuals))
	assert.Equal(t, 0, b.Len(Organisations))
	assert.Equal(t, 2, b.Len(Emails))
	assert.Equal(t, 1, b.Len(Phones))
	assert.Equal(t, 2, b.Len(AddressLines))
	assert.Equal(t, 1, b.Len(FormattedAddresses))
	assert.Equal(t, 1, b.Documents)
	assert.Equal(t, 1, b.Parties)
	assert.Equal(t, 0, b.MissingIdentifiers)
}

func TestExtract_EntityRow(t *testing.T) {
	b := process(t, sampleIndividual())
	row := b.Rows(Individuals)[0]

	assert.Equal(t, "I-100", row[ColPartyID])
	assert.Equal(t, "I", row[ColOwnerType])
	assert.Equal(t, "Ada", row["firstname"])
	assert.Equal(t, "Lovelace", row["lastname"])
	assert.Contains(t, row, "middlename")
	assert.Nil(t, row["middlename"])
	assert.Equal(t, "1815-12-10", row["dateofbirth"])
	assert.NotContains(t, row, "emails")
	assert.NotContains(t, row, "physicaladdress")
}

func TestExtract_OrganisationRow(t *testing.T) {
	b := process(t, Document{"OrganisationDetails": map[string]any{"PartyIdentifier": "O-1"}})
	require.Equal(t, 1, b.Len(Organisations))
	row := b.Rows(Organisations)[0]
	assert.Equal(t, "O", row[ColOwnerType])
	assert.Contains(t, row, "name")
	assert.Nil(t, row["name"])
}

func TestExtract_SubRecordOrderAndOwnership(t *testing.T) {
	org := Document{"OrganisationDetails": map[string]any{
		"PartyIdentifier": "O-7",
		"Emails":          []any{map[string]any{"EmailAddress": "info@acme.example"}},
	}}
	b := process(t, sampleIndividual(), org)

	emails := b.Rows(Emails)
	require.Len(t, emails, 3)
	assert.Equal(t, "ada@example.com", emails[0]["emailaddress"])
	assert.Equal(t, "ada@work.example", emails[1]["emailaddress"])
	assert.Equal(t, "info@acme.example", emails[2]["emailaddress"])
	assert.Equal(t, "I", emails[0][ColOwnerType])
	assert.Equal(t, "O", emails[2][ColOwnerType])
	assert.Equal(t, "O-7", emails[2][ColPartyID])
	assert.Equal(t, true, emails[0]["isprimary"])
}

func TestExtract_ProvenanceNeverOverwritten(t *testing.T) {
	doc := Document{"IndividualDetails": map[string]any{
		"PartyIdentifier": "I-1",
		"Phones": []any{map[string]any{
			"PhoneNumber":     "123",
			"run_guid":        "forged",
			"PartyIdentifier": "other",
			"OwnerType":       "X",
		}},
	}}
	b := process(t, doc)
	row := b.Rows(Phones)[0]
	assert.Equal(t, "run-1", row[ColRunID])
	assert.Equal(t, "I-1", row[ColPartyID])
	assert.Equal(t, "I", row[ColOwnerType])
	assert.Equal(t, "123", row["phonenumber"])
}

func TestExtract_ProvenanceIdenticalAcrossRows(t *testing.T) {
	b := process(t, sampleIndividual(), Document{"OrganisationDetails": map[string]any{"PartyIdentifier": "O-1"}})
	rc := testRun()
	for _, d := range Datasets {
		for _, row := range b.Rows(d) {
			assert.Equal(t, rc.ID, row[ColRunID], "dataset %s", d)
			assert.Equal(t, rc.Local, row[ColRunDateLocal], "dataset %s", d)
			assert.Equal(t, rc.UTC, row[ColRunDateUTC], "dataset %s", d)
		}
	}
}

func TestExtract_MissingCollectionsAreEmpty(t *testing.T) {
	b := process(t, Document{"IndividualDetails": map[string]any{"PartyIdentifier": "I-1"}})
	assert.Equal(t, 1, b.Len(Individuals))
	assert.Equal(t, 0, b.Len(Emails))
	assert.Equal(t, 0, b.Len(Phones))
	assert.Equal(t, 0, b.Len(AddressLines))
	assert.Equal(t, 0, b.Len(FormattedAddresses))
	assert.Equal(t, []Dataset{Individuals}, b.NonEmpty())
}

func TestExtract_MissingIdentifierStillProducesRows(t *testing.T) {
	b := process(t, Document{"IndividualDetails": map[string]any{
		"FirstName": "Anon",
		"Emails":    []any{map[string]any{"EmailAddress": "x@y.z"}},
	}})
	assert.Equal(t, 1, b.MissingIdentifiers)
	require.Equal(t, 1, b.Len(Emails))
	row := b.Rows(Emails)[0]
	assert.Contains(t, row, ColPartyID)
	assert.Nil(t, row[ColPartyID])
}

func TestExtract_NonObjectElementWrapped(t *testing.T) {
	b := process(t, Document{"IndividualDetails": map[string]any{
		"PartyIdentifier": "I-1",
		"Emails":          []any{"plain@example.com"},
	}})
	require.Equal(t, 1, b.Len(Emails))
	assert.Equal(t, "plain@example.com", b.Rows(Emails)[0]["value"])
}

func TestExtract_NestedElementValueEncoded(t *testing.T) {
	b := process(t, Document{"IndividualDetails": map[string]any{
		"PartyIdentifier": "I-1",
		"Phones":          []any{map[string]any{"PhoneNumber": "1", "Tags": []any{"a", "b"}}},
	}})
	assert.Equal(t, `["a","b"]`, b.Rows(Phones)[0]["tags"])
}

func TestExtract_NoEntitiesNoRows(t *testing.T) {
	b := process(t, Document{"Unrelated": true})
	assert.Equal(t, 1, b.Documents)
	assert.Equal(t, 0, b.Total())
	assert.Empty(t, b.NonEmpty())
}

func TestExtract_SkippedDetailCounted(t *testing.T) {
	b := process(t, Document{"OrganisationDetails": []any{"wrong"}})
	assert.Equal(t, 1, b.Skipped)
	assert.Equal(t, 0, b.Total())
}

func TestExtract_SubRecordKeepsAddressType(t *testing.T) {
	b := process(t, Document{"OrganisationDetails": map[string]any{
		"PartyIdentifier": "O-1",
		"Emails": []any{map[string]any{
			"EmailAddress": "ops@example.com",
			"AddressType":  "Work",
			"OwnerType":    "X",
		}},
	}})
	row := b.Rows(Emails)[0]
	assert.Equal(t, "Work", row[ColAddressType])
	assert.Equal(t, "O", row[ColOwnerType])
}
