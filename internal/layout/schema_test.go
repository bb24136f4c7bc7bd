package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/partyload/internal/party"
)

// testSchemaJSON mirrors the shape of the party reference schema, tab-indented
// like the files it is usually exported as.
const testSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"definitions": {
		"email": {
			"type": "object",
			"properties": {
				"EmailAddress": {"type": "string"},
				"IsPrimary": {"type": "boolean"}
			}
		},
		"phone": {
			"type": "object",
			"properties": {
				"PhoneNumber": {"type": "string"},
				"IsPrimary": {"type": "boolean"},
				"Type": {"type": "string"}
			}
		},
		"address": {
			"type": "object",
			"properties": {
				"AddressLines": {"type": "array", "items": {"type": "string"}},
				"FormattedAddress": {
					"type": "object",
					"properties": {
						"BuildingName": {"type": "string"},
						"City": {"type": "string"},
						"CountryCode": {"type": "string"},
						"PostCode": {"type": "string"},
						"StreetName": {"type": "string"},
						"StreetNumber": {"type": "string"},
						"Suburb": {"type": "string"},
						"TownName": {"type": "string"}
					}
				}
			}
		},
		"organisation": {
			"type": "object",
			"properties": {
				"PartyIdentifier": {"type": "string"},
				"Name": {"type": "string"},
				"Emails": {"type": "array", "items": {"$ref": "#/definitions/email"}},
				"PhysicalAddress": {"$ref": "#/definitions/address"}
			}
		}
	},
	"properties": {
		"IndividualDetails": {
			"type": "object",
			"properties": {
				"PartyIdentifier": {"type": "string"},
				"FirstName": {"type": "string"},
				"LastName": {"type": "string"},
				"MiddleName": {"type": "string"},
				"Emails": {"type": "array", "items": {"$ref": "#/definitions/email"}},
				"Phones": {"type": "array", "items": {"$ref": "#/definitions/phone"}},
				"PhysicalAddress": {"$ref": "#/definitions/address"},
				"PostalAddress": {"$ref": "#/definitions/address"},
				"PreviousPhysicalAddress": {"$ref": "#/definitions/address"}
			}
		},
		"OrganisationDetails": {"$ref": "#/definitions/organisation"}
	}
}`

func TestParseSchema_PreservesDeclaredOrder(t *testing.T) {
	s, err := ParseSchema([]byte(testSchemaJSON))
	require.NoError(t, err)

	props, err := s.Properties("definitions", "phone")
	require.NoError(t, err)
	assert.Equal(t, []string{"PhoneNumber", "IsPrimary", "Type"}, props)
}

func TestSchema_FollowsRef(t *testing.T) {
	s, err := ParseSchema([]byte(testSchemaJSON))
	require.NoError(t, err)

	props, err := s.DatasetProperties(party.Organisations)
	require.NoError(t, err)
	assert.Equal(t, []string{"PartyIdentifier", "Name", "Emails", "PhysicalAddress"}, props)
}

func TestSchema_FollowsArrayItems(t *testing.T) {
	s, err := ParseSchema([]byte(testSchemaJSON))
	require.NoError(t, err)

	props, err := s.Properties("properties", "IndividualDetails", "properties", "Emails")
	require.NoError(t, err)
	assert.Equal(t, []string{"EmailAddress", "IsPrimary"}, props)
}

func TestSchema_AddressLinesFixed(t *testing.T) {
	s, err := ParseSchema([]byte(`{}`))
	require.NoError(t, err)
	props, err := s.DatasetProperties(party.AddressLines)
	require.NoError(t, err)
	assert.Equal(t, []string{"AddressLines"}, props)
}

func TestSchema_YAML(t *testing.T) {
	src := `
definitions:
  email:
    properties:
      Zeta: {type: string}
      EmailAddress: {type: string}
`
	s, err := ParseSchema([]byte(src))
	require.NoError(t, err)
	props, err := s.DatasetProperties(party.Emails)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "EmailAddress"}, props)
}

func TestSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no properties", `{"definitions": {"email": {"type": "object"}}}`},
		{"unresolved ref", `{"definitions": {"email": {"$ref": "#/definitions/missing"}}}`},
		{"external ref", `{"definitions": {"email": {"$ref": "other.json#/x"}}}`},
		{"cyclic ref", `{"definitions": {"email": {"$ref": "#/definitions/email"}}}`},
		{"missing definitions", `{"properties": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchema([]byte(tt.src))
			require.NoError(t, err)
			_, err = s.DatasetProperties(party.Emails)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaDefinition), "got %v", err)
		})
	}
}

func TestParseSchema_Invalid(t *testing.T) {
	_, err := ParseSchema([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParseSchema([]byte(`{"unterminated": `))
	assert.Error(t, err)
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "party_schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchemaJSON), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	props, err := s.DatasetProperties(party.Emails)
	require.NoError(t, err)
	assert.Equal(t, []string{"EmailAddress", "IsPrimary"}, props)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
