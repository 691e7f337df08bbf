package webserver

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestDB opens a private in-memory database with the production schema.
// TranslateError matches the Postgres setup so constraint violations surface
// as gorm.ErrDuplicatedKey here too.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&types.User{}, &types.Book{}, &types.Vote{},
		&types.WeeklyWinner{}, &types.Subscription{},
	))
	return db
}

func seedBook(t *testing.T, db *gorm.DB, asin string, createdBy *string, createdAt time.Time) types.Book {
	t.Helper()

	title := "Book " + asin
	book := types.Book{
		ID:        uuid.NewString(),
		ASIN:      asin,
		Title:     &title,
		Category:  "romance",
		CreatedBy: createdBy,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&book).Error)
	return book
}

func seedVotes(t *testing.T, db *gorm.DB, bookID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		vote := types.Vote{
			ID:          uuid.NewString(),
			BookID:      bookID,
			VoterID:     fmt.Sprintf("anon_%s", uuid.NewString()),
			IsAnonymous: true,
			CreatedAt:   time.Now(),
		}
		require.NoError(t, db.Create(&vote).Error)
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string, admin bool) types.User {
	t.Helper()

	user := types.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "x",
		Admin:        admin,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func timeNowTrunc() time.Time {
	return time.Now().Truncate(time.Second)
}

// asUser fakes an authenticated request the way JWTMiddleware would.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}
