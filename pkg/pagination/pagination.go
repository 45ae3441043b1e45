// Package pagination implements keyset paging over listings ordered newest
// billing period first.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when a caller asks for a page without a size.
	DefaultLimit = 50
	// MaxLimit caps a single page.
	MaxLimit = 200
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params is the paging input collected from a request. A zero Limit with an
// empty Cursor means no paging.
type Params struct {
	Limit  int
	Cursor string
}

// Enabled reports whether the caller asked for a page.
func (p Params) Enabled() bool {
	return p.Limit > 0 || strings.TrimSpace(p.Cursor) != ""
}

// PeriodCursor is the position after the last row of a page, in
// (year, month, created_at, id) descending order.
type PeriodCursor struct {
	Year      int
	Month     int
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit applies DefaultLimit and MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row so the caller can tell whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Encode renders the cursor as an opaque URL-safe token.
func (c PeriodCursor) Encode() string {
	raw := strings.Join([]string{
		strconv.Itoa(c.Year),
		strconv.Itoa(c.Month),
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.ID.String(),
	}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParsePeriodCursor decodes a token produced by Encode. Blank input yields nil.
func ParsePeriodCursor(value string) (*PeriodCursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 4 {
		return nil, ErrInvalidCursor
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: year", ErrInvalidCursor)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month", ErrInvalidCursor)
	}
	created, err := time.Parse(time.RFC3339Nano, parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: created_at", ErrInvalidCursor)
	}
	id, err := uuid.Parse(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: id", ErrInvalidCursor)
	}
	return &PeriodCursor{Year: year, Month: month, CreatedAt: created.UTC(), ID: id}, nil
}

// Trim cuts a buffered result down to limit rows and returns the cursor for
// the next page, or "" when rows held no extra row.
func Trim[T any](rows []T, limit int, cursorOf func(T) PeriodCursor) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, cursorOf(rows[len(rows)-1]).Encode()
}
