package webserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/data"
	"github.com/glowleaf/booktokviral/src/api/ranking"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Reset struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewReset(db *gorm.DB, rdb *redis.Client) Reset {
	return Reset{db: db, rdb: rdb}
}

type ResetSummary struct {
	WinnersSaved int       `json:"winnersSaved"`
	WeekStart    time.Time `json:"weekStart"`
	WeekEnd      time.Time `json:"weekEnd"`
}

// Run archives the current week's standings and clears all votes. Manual
// administrative trigger; the Redis lock keeps two concurrent resets from
// archiving the same week twice.
func (h Reset) Run(c *gin.Context) {
	if h.rdb != nil {
		ok, err := data.AcquireResetLock(c, h.rdb)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"err": "reset already in progress"})
			return
		}
		defer data.ReleaseResetLock(c, h.rdb)
	}

	summary, err := runWeeklyReset(h.db, time.Now())
	if err != nil {
		log.Printf("weekly reset failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "reset failed, no votes were lost"})
		return
	}

	log.Printf("weekly reset: archived %d winners for week starting %s",
		summary.WinnersSaved, summary.WeekStart.Format("2006-01-02"))
	c.JSON(http.StatusOK, summary)
}

// runWeeklyReset performs the archive-then-delete transition in one
// transaction. If the archival insert fails the whole transaction rolls back
// and the vote table is untouched; a crash can never lose votes without a
// matching archive.
func runWeeklyReset(db *gorm.DB, now time.Time) (ResetSummary, error) {
	var summary ResetSummary
	err := db.Transaction(func(tx *gorm.DB) error {
		var tallies []struct {
			BookID    string
			ASIN      string `gorm:"column:asin"`
			Votes     int64
			CreatedAt time.Time
		}
		err := tx.Model(&types.Vote{}).
			Select("votes.book_id as book_id, books.asin as asin, count(votes.id) as votes, books.created_at as created_at").
			Joins("JOIN books ON books.id = votes.book_id").
			Group("votes.book_id, books.asin, books.created_at").
			Scan(&tallies).Error
		if err != nil {
			return err
		}

		weekStart, weekEnd := ranking.WeekBounds(now)

		entries := make([]ranking.Entry, 0, len(tallies))
		for _, t := range tallies {
			entries = append(entries, ranking.Entry{
				BookID:    t.BookID,
				ASIN:      t.ASIN,
				Votes:     t.Votes,
				CreatedAt: t.CreatedAt,
			})
		}

		// Only books with votes get archived; a week with no engagement
		// leaves no trace. Tallies come from the votes table, so every entry
		// here has at least one vote.
		winners := make([]types.WeeklyWinner, 0, len(entries))
		for _, r := range ranking.Rank(entries) {
			winners = append(winners, types.WeeklyWinner{
				ID:             uuid.NewString(),
				BookID:         r.BookID,
				WeekStart:      weekStart,
				WeekEnd:        weekEnd,
				FinalVoteCount: r.Votes,
				Position:       r.Position,
				CreatedAt:      now,
			})
		}

		// Archive before the destructive step.
		if len(winners) > 0 {
			if err := tx.Create(&winners).Error; err != nil {
				return err
			}
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&types.Vote{}).Error; err != nil {
			return err
		}

		summary = ResetSummary{
			WinnersSaved: len(winners),
			WeekStart:    weekStart,
			WeekEnd:      weekEnd,
		}
		return nil
	})
	return summary, err
}
