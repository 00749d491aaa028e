package store

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// cursor marks the last row of a feed page. Paging on the timestamp alone is
// ambiguous when two posts share a creation time, so the post id rides along
// as a tie-breaker. The encoded form is opaque to clients.
type cursor struct {
	CreatedAt time.Time
	ID        int
}

func encodeCursor(c cursor) string {
	raw := fmt.Sprintf("%d:%d", c.CreatedAt.UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, errors.Wrap(ErrInvalidCursor, "cursor is not base64")
	}

	var nsec int64
	var id int
	if _, err := fmt.Sscanf(string(raw), "%d:%d", &nsec, &id); err != nil || id <= 0 {
		return cursor{}, errors.Wrap(ErrInvalidCursor, "malformed cursor payload")
	}

	return cursor{CreatedAt: time.Unix(0, nsec).UTC(), ID: id}, nil
}
