package webserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	anonCookie       = "anonymous_voter_id"
	anonCookieMaxAge = 365 * 24 * 60 * 60 // one year
)

type Votes struct{ db *gorm.DB }

func NewVotes(db *gorm.DB) Votes { return Votes{db: db} }

// resolveVoter picks the voting identity: the authenticated user when a valid
// token came in, otherwise the anonymous cookie. An empty voterID means an
// anonymous caller with no cookie yet.
func resolveVoter(c *gin.Context) (voterID string, userID *string, isAnonymous bool) {
	if uid := c.GetString("userID"); uid != "" {
		return uid, &uid, false
	}
	if tok, err := c.Cookie(anonCookie); err == nil && tok != "" {
		return tok, nil, true
	}
	return "", nil, true
}

func setAnonCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(anonCookie, token, anonCookieMaxAge, "/", "", gin.Mode() == gin.ReleaseMode, true)
}

func (v Votes) Cast(c *gin.Context) {
	var req struct {
		BookID string `json:"bookId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var book types.Book
	if err := v.db.First(&book, "id = ?", req.BookID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "book not found"})
		return
	}

	voterID, userID, isAnonymous := resolveVoter(c)
	if voterID == "" {
		voterID = "anon_" + uuid.NewString()
	}

	vote := types.Vote{
		ID:          uuid.NewString(),
		BookID:      book.ID,
		VoterID:     voterID,
		UserID:      userID,
		IsAnonymous: isAnonymous,
		CreatedAt:   time.Now(),
	}
	// No pre-check: the unique index on (book, voter) is the dedup guard, so
	// concurrent duplicates lose the race at the constraint, not in app code.
	if err := v.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"err": "already voted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	if isAnonymous {
		setAnonCookie(c, voterID)
	}

	var count int64
	v.db.Model(&types.Vote{}).Where("book_id = ?", book.ID).Count(&count)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"voteCount":   count,
		"isAnonymous": isAnonymous,
	})
}

func (v Votes) Check(c *gin.Context) {
	bookID := c.Query("bookId")
	if bookID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bookId is required"})
		return
	}

	voterID, _, _ := resolveVoter(c)
	if voterID == "" {
		// No identity yet means no vote; reads never mint a cookie.
		c.JSON(http.StatusOK, gin.H{"hasVoted": false})
		return
	}

	var count int64
	v.db.Model(&types.Vote{}).
		Where("book_id = ? AND voter_id = ?", bookID, voterID).
		Count(&count)

	c.JSON(http.StatusOK, gin.H{"hasVoted": count > 0})
}
