package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestParamsEnabled(t *testing.T) {
	assert.False(t, Params{}.Enabled())
	assert.True(t, Params{Limit: 5}.Enabled())
	assert.True(t, Params{Cursor: "abc"}.Enabled())
	assert.False(t, Params{Cursor: "  "}.Enabled())
}

func TestPeriodCursorRoundTrip(t *testing.T) {
	in := PeriodCursor{
		Year:      2024,
		Month:     3,
		CreatedAt: time.Date(2024, 3, 1, 8, 30, 0, 123456789, time.FixedZone("WIB", 7*3600)),
		ID:        uuid.New(),
	}
	out, err := ParsePeriodCursor(in.Encode())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Year, out.Year)
	assert.Equal(t, in.Month, out.Month)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, time.UTC, out.CreatedAt.Location())
	assert.Equal(t, in.ID, out.ID)
}

func TestParsePeriodCursorRejectsGarbage(t *testing.T) {
	blank, err := ParsePeriodCursor(" ")
	require.NoError(t, err)
	assert.Nil(t, blank)

	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	for _, raw := range []string{
		"***",
		enc("2024|3|nope"),
		enc("2024|13|2024-03-01T00:00:00Z|" + uuid.NewString()),
		enc("year|3|2024-03-01T00:00:00Z|" + uuid.NewString()),
		enc("2024|3|yesterday|" + uuid.NewString()),
		enc("2024|3|2024-03-01T00:00:00Z|not-a-uuid"),
	} {
		_, err := ParsePeriodCursor(raw)
		assert.ErrorIs(t, err, ErrInvalidCursor, raw)
	}
}

func TestTrim(t *testing.T) {
	rows := []int{5, 4, 3}
	cursorOf := func(v int) PeriodCursor { return PeriodCursor{Year: 2024, Month: v, ID: uuid.Nil} }

	page, next := Trim(rows, 2, cursorOf)
	assert.Equal(t, []int{5, 4}, page)
	decoded, err := ParsePeriodCursor(next)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Month)

	page, next = Trim(rows, 3, cursorOf)
	assert.Equal(t, rows, page)
	assert.Empty(t, next)
}
