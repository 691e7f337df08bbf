package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})
	return r
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddlewareAcceptsIssuedToken(t *testing.T) {
	tok, err := issueJWT("user-1", testSecret)
	require.NoError(t, err)

	w := get(protectedRouter(JWTMiddleware(testSecret)), "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	r := protectedRouter(JWTMiddleware(testSecret))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not.a.jwt").Code)

	wrong, err := issueJWT("user-1", []byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+wrong).Code)
}

func TestOptionalJWTLetsAnonymousThrough(t *testing.T) {
	r := protectedRouter(OptionalJWT(testSecret))

	w := get(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userID":""`)

	tok, err := issueJWT("user-2", testSecret)
	require.NoError(t, err)
	w = get(r, "Bearer "+tok)
	assert.Contains(t, w.Body.String(), "user-2")
}

func TestAdminMiddleware(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin@example.com", true)
	reader := seedUser(t, db, "reader@example.com", false)

	newRouter := func(userID string) *gin.Engine {
		r := gin.New()
		r.GET("/whoami", asUser(userID), AdminMiddleware(db), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	assert.Equal(t, http.StatusOK, get(newRouter(admin.ID), "").Code)
	assert.Equal(t, http.StatusForbidden, get(newRouter(reader.ID), "").Code)
	assert.Equal(t, http.StatusForbidden, get(newRouter("ghost"), "").Code)
}
