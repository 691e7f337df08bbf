package webserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/amazon"
	"github.com/glowleaf/booktokviral/src/api/ranking"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var sanitizer = bluemonday.StrictPolicy()

type Books struct {
	db      *gorm.DB
	catalog *amazon.Client
}

func NewBooks(db *gorm.DB, catalog *amazon.Client) Books {
	return Books{db: db, catalog: catalog}
}

func (b Books) Submit(c *gin.Context) {
	var req struct {
		ASIN      string `json:"asin" binding:"required"`
		Category  string `json:"category" binding:"required"`
		TikTokURL string `json:"tiktokUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	// Accept a bare ASIN or a full Amazon product URL.
	asin := strings.ToUpper(strings.TrimSpace(req.ASIN))
	if !amazon.ValidASIN(asin) {
		asin = amazon.ExtractASIN(strings.TrimSpace(req.ASIN))
	}
	if asin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid ASIN format"})
		return
	}

	userID := c.GetString("userID")

	// Enrichment is best effort: on timeout or lookup failure the book keeps
	// placeholder metadata and submission still succeeds.
	details := b.catalog.Enrich(c.Request.Context(), asin)

	book := types.Book{
		ID:        uuid.NewString(),
		ASIN:      asin,
		Title:     &details.Title,
		Author:    &details.Author,
		Category:  sanitizer.Sanitize(req.Category),
		CreatedBy: &userID,
		CreatedAt: time.Now(),
	}
	if details.CoverURL != "" {
		book.CoverURL = &details.CoverURL
	}
	if tiktok := sanitizer.Sanitize(strings.TrimSpace(req.TikTokURL)); tiktok != "" {
		book.TikTokURL = &tiktok
	}

	if err := b.db.Create(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"err": "this book has already been submitted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "bookId": book.ID})
}

type bookView struct {
	ID        string  `json:"id"`
	ASIN      string  `json:"asin"`
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	CoverURL  *string `json:"coverUrl"`
	Category  string  `json:"category"`
	TikTokURL *string `json:"tiktokUrl"`
	AmazonURL string  `json:"amazonUrl"`
	VoteCount int64   `json:"voteCount"`
	Position  int     `json:"position"`
	IsWinner  bool    `json:"isWinner"`
	Featured  bool    `json:"featured"`
}

// List is the live leaderboard: every book ranked by current votes. It is
// recomputed from scratch on each read; fine at hundreds of rows.
func (b Books) List(c *gin.Context) {
	var books []types.Book
	if err := b.db.Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	counts, err := b.voteCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	entries := make([]ranking.Entry, 0, len(books))
	byID := make(map[string]types.Book, len(books))
	for _, bk := range books {
		byID[bk.ID] = bk
		entries = append(entries, ranking.Entry{
			BookID:    bk.ID,
			ASIN:      bk.ASIN,
			Votes:     counts[bk.ID],
			CreatedAt: bk.CreatedAt,
		})
	}

	now := time.Now()
	out := make([]bookView, 0, len(entries))
	for _, r := range ranking.Rank(entries) {
		bk := byID[r.BookID]
		out = append(out, bookView{
			ID:        bk.ID,
			ASIN:      bk.ASIN,
			Title:     bk.Title,
			Author:    bk.Author,
			CoverURL:  bk.CoverURL,
			Category:  bk.Category,
			TikTokURL: bk.TikTokURL,
			AmazonURL: amazon.AffiliateLink(bk.ASIN),
			VoteCount: r.Votes,
			Position:  r.Position,
			IsWinner:  r.Position <= ranking.WinnerCount && r.Votes > 0,
			Featured:  bk.FeaturedUntil != nil && bk.FeaturedUntil.After(now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"books": out})
}

func (b Books) Get(c *gin.Context) {
	var book types.Book
	if err := b.db.First(&book, "asin = ?", strings.ToUpper(c.Param("asin"))).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "book not found"})
		return
	}

	var count int64
	b.db.Model(&types.Vote{}).Where("book_id = ?", book.ID).Count(&count)

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{"book": bookView{
		ID:        book.ID,
		ASIN:      book.ASIN,
		Title:     book.Title,
		Author:    book.Author,
		CoverURL:  book.CoverURL,
		Category:  book.Category,
		TikTokURL: book.TikTokURL,
		AmazonURL: amazon.AffiliateLink(book.ASIN),
		VoteCount: count,
		Featured:  book.FeaturedUntil != nil && book.FeaturedUntil.After(now),
	}})
}

// Refresh re-enriches books still carrying placeholder metadata. Admin only.
func (b Books) Refresh(c *gin.Context) {
	var books []types.Book
	if err := b.db.Find(&books, "title IS NULL OR title LIKE 'Book %'").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	updated := 0
	for _, bk := range books {
		details := b.catalog.Enrich(c.Request.Context(), bk.ASIN)
		if details.Title == "" || details.Title == "Book "+bk.ASIN {
			continue
		}
		fields := map[string]interface{}{"title": details.Title, "author": details.Author}
		if details.CoverURL != "" {
			fields["cover_url"] = details.CoverURL
		}
		if err := b.db.Model(&types.Book{}).Where("id = ?", bk.ID).Updates(fields).Error; err == nil {
			updated++
		}
	}

	c.JSON(http.StatusOK, gin.H{"checked": len(books), "updated": updated})
}

func (b Books) voteCounts() (map[string]int64, error) {
	var rows []struct {
		BookID string
		Count  int64
	}
	err := b.db.Model(&types.Vote{}).
		Select("book_id, count(*) as count").
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BookID] = r.Count
	}
	return counts, nil
}
