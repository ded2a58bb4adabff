// Package pagination implements keyset cursors for list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Limits applied to the page size
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Cursor marks the last row of a page ordered by (created_at DESC, id DESC)
type Cursor struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"ts"`
}

// Encode encodes the cursor as an opaque string
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor string. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if cursor.ID == uuid.Nil {
		return nil, fmt.Errorf("invalid cursor: missing id")
	}

	return &cursor, nil
}

// ClampLimit returns limit bounded to [1, MaxLimit], DefaultLimit when unset
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Page is one page of a listing
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage builds a page from up to limit+1 rows; the extra row only signals
// that another page exists.
func NewPage[T any](rows []T, limit int, cursorOf func(T) Cursor) Page[T] {
	page := Page[T]{Items: rows}
	if page.Items == nil {
		page.Items = []T{}
	}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		page.NextCursor = cursorOf(page.Items[limit-1]).Encode()
	}
	return page
}
