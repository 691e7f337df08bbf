package ranking

import (
	"sort"
	"time"
)

// WinnerCount is how many top positions get a rank badge.
const WinnerCount = 3

// Entry is one book's live tally.
type Entry struct {
	BookID    string
	ASIN      string
	Votes     int64
	CreatedAt time.Time
}

// Ranked is an Entry with its 1-based position.
type Ranked struct {
	Entry
	Position int
}

// Rank orders entries by vote count descending. Ties go to the earlier
// submission; ASIN breaks exact creation-time ties so the order is total.
func Rank(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ASIN < b.ASIN
	})

	out := make([]Ranked, len(sorted))
	for i, e := range sorted {
		out[i] = Ranked{Entry: e, Position: i + 1}
	}
	return out
}

// WeekBounds returns the voting week containing now: the most recent Monday
// 00:00:00 through the following Sunday 23:59:59, in now's location.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	// Weekday is Sunday=0; shift so Monday=0.
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	y, m, d := now.AddDate(0, 0, -daysSinceMonday).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}
