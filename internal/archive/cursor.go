package archive

import (
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/xaenox/stash-bot/internal/models"
)

// Cursors encode the (created-at, id) pair of the last item on a page
// as 16 big-endian bytes in URL-safe base64. The fixed width keeps the
// token at 22 characters, small enough for Telegram callback data.

const cursorLen = 16

// EncodeCursor issues the pagination token for the given page key.
func EncodeCursor(key models.PageKey) string {
	var buf [cursorLen]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(key.CreatedAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(key.ID))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// DecodeCursor parses a previously issued token. Anything that does
// not round-trip is rejected as models.ErrInvalidCursor. An empty
// cursor means "start from the newest item" and decodes to nil.
func DecodeCursor(cursor string) (*models.PageKey, error) {
	if cursor == "" {
		return nil, nil
	}
	buf, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(buf) != cursorLen {
		return nil, models.ErrInvalidCursor
	}
	key := &models.PageKey{
		ID: int64(binary.BigEndian.Uint64(buf[8:16])),
	}
	nanos := int64(binary.BigEndian.Uint64(buf[0:8]))
	key.CreatedAt = time.Unix(0, nanos).UTC()
	return key, nil
}
