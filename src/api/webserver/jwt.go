package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func issueJWT(userID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(secret)
}

func userIDFromHeader(header string, secret []byte) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
	if err != nil || !tok.Valid {
		return "", false
	}
	sub, ok := tok.Claims.(jwt.MapClaims)["sub"].(string)
	return sub, ok && sub != ""
}

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := userIDFromHeader(c.GetHeader("Authorization"), secret)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("userID", uid)
		c.Next()
	}
}

// OptionalJWT resolves the user when a valid token is present but lets
// anonymous requests through untouched.
func OptionalJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, ok := userIDFromHeader(c.GetHeader("Authorization"), secret); ok {
			c.Set("userID", uid)
		}
		c.Next()
	}
}

// AdminMiddleware requires the authenticated user's admin flag. Authorization
// is a stored role, not an email comparison.
func AdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user types.User
		if err := db.First(&user, "id = ?", c.GetString("userID")).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			c.Abort()
			return
		}
		if !user.Admin {
			c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
