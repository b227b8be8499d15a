package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	entryDate := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeCursor(Cursor{Date: entryDate, CreatedAt: createdAt, ID: "entry-1"})
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, entryDate.Equal(decoded.Date), "Entry date should match after decode")
	assert.True(t, createdAt.Equal(decoded.CreatedAt), "Created at time should match after decode")
	assert.Equal(t, "entry-1", decoded.ID)

	// Non-UTC input is normalised but denotes the same instant.
	karachi := time.FixedZone("PKT", 5*60*60)
	local := time.Date(2025, 1, 2, 3, 4, 5, 0, karachi)
	decoded, err = DecodeCursor(EncodeCursor(Cursor{Date: local, CreatedAt: local, ID: "x"}))
	require.NoError(t, err)
	assert.True(t, local.Equal(decoded.Date))
}

func TestDecodeCursorError(t *testing.T) {
	_, err := DecodeCursor("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	missingID := base64.URLEncoding.EncodeToString([]byte("2025-05-15T00:00:00Z|2025-05-15T00:00:00Z"))
	_, err = DecodeCursor(missingID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.URLEncoding.EncodeToString([]byte("notadate|2025-05-15T00:00:00Z|id"))
	_, err = DecodeCursor(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "date parse")

	badCreated := base64.URLEncoding.EncodeToString([]byte("2025-05-15T00:00:00Z|nope|id"))
	_, err = DecodeCursor(badCreated)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")
}
