package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/amazon"
	"github.com/glowleaf/booktokviral/src/api/types"
	"gorm.io/gorm"
)

type Winners struct{ db *gorm.DB }

func NewWinners(db *gorm.DB) Winners { return Winners{db: db} }

type winnerView struct {
	BookID         string  `json:"bookId"`
	ASIN           string  `json:"asin"`
	Title          *string `json:"title"`
	Author         *string `json:"author"`
	CoverURL       *string `json:"coverUrl"`
	AmazonURL      string  `json:"amazonUrl"`
	FinalVoteCount int64   `json:"finalVoteCount"`
	Position       int     `json:"position"`
}

type weekView struct {
	WeekStart time.Time    `json:"weekStart"`
	WeekEnd   time.Time    `json:"weekEnd"`
	Winners   []winnerView `json:"winners"`
}

// List returns archived weekly winners grouped by week, newest week first.
func (w Winners) List(c *gin.Context) {
	var rows []types.WeeklyWinner
	err := w.db.Preload("Book").
		Order("week_start DESC, position ASC").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	weeks := []weekView{}
	for _, row := range rows {
		if len(weeks) == 0 || !weeks[len(weeks)-1].WeekStart.Equal(row.WeekStart) {
			weeks = append(weeks, weekView{WeekStart: row.WeekStart, WeekEnd: row.WeekEnd})
		}
		wk := &weeks[len(weeks)-1]
		wk.Winners = append(wk.Winners, winnerView{
			BookID:         row.BookID,
			ASIN:           row.Book.ASIN,
			Title:          row.Book.Title,
			Author:         row.Book.Author,
			CoverURL:       row.Book.CoverURL,
			AmazonURL:      amazon.AffiliateLink(row.Book.ASIN),
			FinalVoteCount: row.FinalVoteCount,
			Position:       row.Position,
		})
	}

	c.JSON(http.StatusOK, gin.H{"weeks": weeks})
}
