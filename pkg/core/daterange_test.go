package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2025-03-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01..2025-03-01", r.String())

	_, err = ParseDateRange("2025-03-02", "2025-03-01")
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = ParseDateRange("03/01/2025", "2025-03-01")
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestDateRange_Days(t *testing.T) {
	r := DateRange{Start: "2025-02-27", End: "2025-03-02"}
	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, r.Days())

	assert.Nil(t, DateRange{Start: "bad", End: "2025-03-02"}.Days())
}

func TestDateRange_Intersects(t *testing.T) {
	r := DateRange{Start: "2025-03-01", End: "2025-03-10"}

	assert.True(t, r.Intersects(DateRange{Start: "2025-02-20", End: "2025-03-01"}))
	assert.True(t, r.Intersects(DateRange{Start: "2025-03-05", End: "2025-03-06"}))
	assert.True(t, r.Intersects(DateRange{Start: "2025-03-10", End: "2025-04-01"}))
	assert.False(t, r.Intersects(DateRange{Start: "2025-03-11", End: "2025-03-12"}))
	assert.False(t, r.Intersects(DateRange{Start: "2025-01-01", End: "2025-02-28"}))
}

func TestRangeFor(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	from := time.Date(2025, 2, 28, 20, 0, 0, 0, time.UTC) // already 1 March locally
	to := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	r := RangeFor(from, to, loc)
	assert.Equal(t, DateRange{Start: "2025-03-01", End: "2025-03-01"}, r)
}
