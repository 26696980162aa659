// Package database holds the store-agnostic query types shared by all
// repository implementations.
package database

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidCursor marks a cursor that was not produced by EncodeCursor.
// Cursors come straight from clients, so callers treat it as invalid input.
var ErrInvalidCursor = errors.New("invalid cursor")

// ListOptions paginates a listing query. The zero value disables pagination
// (used by aggregate queries). Results are ordered by creation time with the
// document id as tie-break, so pages are stable absent concurrent writes.
type ListOptions struct {
	PageSize int
	Cursor   string
}

func (o ListOptions) Paginated() bool { return o.PageSize > 0 }

// Page is one page of a listing along with the cursor of the next one
// (empty when the listing is exhausted).
type Page struct {
	NextCursor string
}

// EncodeCursor packs the sort key of the last document of a page into an
// opaque cursor.
func EncodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unpacks a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	return createdAt, parts[1], nil
}
