package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, asin string, votes int64, created time.Time) Entry {
	return Entry{BookID: id, ASIN: asin, Votes: votes, CreatedAt: created}
}

func TestRankOrdersByVotesDescending(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ranked := Rank([]Entry{
		entry("t", "B000000002", 3, base),
		entry("s", "B000000001", 5, base),
		entry("u", "B000000003", 0, base),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "s", ranked[0].BookID)
	assert.Equal(t, 1, ranked[0].Position)
	assert.Equal(t, "t", ranked[1].BookID)
	assert.Equal(t, 2, ranked[1].Position)
	assert.Equal(t, "u", ranked[2].BookID)
	assert.Equal(t, 3, ranked[2].Position)
}

func TestRankTieBreaksOnCreationTime(t *testing.T) {
	t.Parallel()

	older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	ranked := Rank([]Entry{
		entry("b", "B000000002", 4, newer),
		entry("a", "B000000001", 4, older),
	})

	assert.Equal(t, "a", ranked[0].BookID)
	assert.Equal(t, "b", ranked[1].BookID)
}

func TestRankTieBreaksOnASINLast(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ranked := Rank([]Entry{
		entry("b", "B000000002", 4, created),
		entry("a", "B000000001", 4, created),
	})

	assert.Equal(t, "B000000001", ranked[0].ASIN)
	assert.Equal(t, "B000000002", ranked[1].ASIN)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []Entry{
		entry("low", "B000000001", 1, base),
		entry("high", "B000000002", 9, base),
	}
	Rank(in)
	assert.Equal(t, "low", in[0].BookID)
}

func TestWeekBoundsMidweek(t *testing.T) {
	t.Parallel()

	// A Wednesday afternoon.
	now := time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(now)

	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 22, 23, 59, 59, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Sunday, end.Weekday())
}

func TestWeekBoundsOnMonday(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	start, end := WeekBounds(now)

	assert.Equal(t, now, start)
	assert.Equal(t, time.Date(2025, 6, 22, 23, 59, 59, 0, time.UTC), end)
}

func TestWeekBoundsOnSunday(t *testing.T) {
	t.Parallel()

	// A Sunday belongs to the week that started six days earlier.
	now := time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)
	start, _ := WeekBounds(now)

	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), start)
}
