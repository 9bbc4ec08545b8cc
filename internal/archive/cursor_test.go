package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/stash-bot/internal/models"
)

func TestCursorRoundTrip(t *testing.T) {
	key := models.PageKey{
		CreatedAt: time.Date(2024, 6, 1, 12, 30, 45, 123456000, time.UTC),
		ID:        42,
	}

	cursor := EncodeCursor(key)
	decoded, err := DecodeCursor(cursor)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.True(t, key.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, key.ID, decoded.ID)
}

func TestCursorFitsCallbackData(t *testing.T) {
	cursor := EncodeCursor(models.PageKey{CreatedAt: time.Now(), ID: 1<<62 - 1})
	assert.LessOrEqual(t, len(cursor), 64)
}

func TestDecodeCursorEmpty(t *testing.T) {
	key, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, key)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{
		"not base64 at all!",
		"AAAA",                     // valid base64, wrong length
		"AAAAAAAAAAAAAAAAAAAAAAAA", // 18 bytes, still wrong
	} {
		_, err := DecodeCursor(cursor)
		assert.True(t, errors.Is(err, models.ErrInvalidCursor), "cursor %q", cursor)
		assert.True(t, errors.Is(err, models.ErrInvalidInput), "cursor %q is a kind of invalid input", cursor)
	}
}
