package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// Cursor marks the last journal of a page. Journals are listed by journal
// date, then creation time, then id, all descending.
type Cursor struct {
	JournalDate time.Time
	CreatedAt   time.Time
	ID          string
}

// Encode creates an opaque URL-safe token from the cursor.
func (c Cursor) Encode() string {
	tokenStr := strings.Join([]string{c.JournalDate.Format(timeFormat), c.CreatedAt.Format(timeFormat), c.ID}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// Before reports whether a row with the given keys comes after the cursor in
// listing order, i.e. belongs to the next page.
func (c Cursor) Before(journalDate, createdAt time.Time, id string) bool {
	if !journalDate.Equal(c.JournalDate) {
		return journalDate.Before(c.JournalDate)
	}
	if !createdAt.Equal(c.CreatedAt) {
		return createdAt.Before(c.CreatedAt)
	}
	return id < c.ID
}

// DecodeCursor parses a token produced by Cursor.Encode.
func DecodeCursor(token string) (Cursor, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 || parts[2] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	journalDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (journal date parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	return Cursor{JournalDate: journalDate, CreatedAt: createdAt, ID: parts[2]}, nil
}
