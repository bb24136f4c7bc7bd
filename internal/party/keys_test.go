package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IndividualDetails", "individualdetails"},
		{" individualdetails ", "individualdetails"},
		{"INDIVIDUALDETAILS", "individualdetails"},
		{"PartyIdentifier", "partyidentifier"},
		{"run_guid", "run_guid"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), "input %q", tt.in)
	}
}

func TestNormalize_CollisionPrefersCanonical(t *testing.T) {
	r := Normalize(map[string]any{
		"City": "Upper",
		"city": "canonical",
		"CITY": "shout",
	})
	assert.Len(t, r, 1)
	assert.Equal(t, "canonical", r["city"])
}

func TestNormalize_CollisionDeterministic(t *testing.T) {
	for range 20 {
		r := Normalize(map[string]any{"City": "a", "CITY": "b"})
		assert.Equal(t, "b", r["city"], "sorted order puts CITY first")
	}
}

func TestLookup(t *testing.T) {
	m := map[string]any{"individualDetails": 1, "OrganisationDetails": 2}

	v, ok := Lookup(m, "OrganisationDetails")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = Lookup(m, "IndividualDetails")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = Lookup(m, "Missing")
	assert.False(t, ok)
}

func TestRecordGet(t *testing.T) {
	r := Normalize(map[string]any{"FirstName": "Ada"})
	assert.Equal(t, "Ada", r.Get("FIRSTNAME"))
	assert.Nil(t, r.Get("lastname"))
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(map[string]any{}))
	assert.False(t, truthy([]any{}))
	assert.False(t, truthy(""))
	assert.False(t, truthy(false))
	assert.False(t, truthy(float64(0)))
	assert.True(t, truthy(map[string]any{"a": 1}))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(true))
}
