package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityID_JSONRoundTrip(t *testing.T) {
	id := NewEntityID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded EntityID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))
}

func TestEntityID_MarshalEscapesSpecialCharacters(t *testing.T) {
	// Loaded snapshots can carry arbitrary id strings, so encoding must
	// escape rather than assume a clean UUID.
	id, err := NewEntityIDFromString(`odd"id\with specials`)
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	var decoded EntityID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))
}

func TestEntityID_UnmarshalRejectsNonString(t *testing.T) {
	var id EntityID
	assert.Error(t, json.Unmarshal([]byte(`42`), &id))

	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
}
