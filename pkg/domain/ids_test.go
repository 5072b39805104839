package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVisitorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseVisitorID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, VisitorID(validUUID), id)
	})
}

// TestIDsEncodeAsStrings pins the wire format: IDs embedded in response
// structs must serialize to canonical UUID strings, not byte arrays.
func TestIDsEncodeAsStrings(t *testing.T) {
	eventID := NewAccessEventID()

	payload := struct {
		AccessEventID AccessEventID `json:"accessEventId"`
	}{AccessEventID: eventID}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accessEventId":"`+eventID.String()+`"}`, string(raw))

	var decoded struct {
		AccessEventID AccessEventID `json:"accessEventId"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, eventID, decoded.AccessEventID)
}

func TestIDUnmarshalRejectsGarbage(t *testing.T) {
	var id EmployeeID
	err := id.UnmarshalText([]byte("not-a-uuid"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
