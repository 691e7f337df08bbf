package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/amazon"
	"github.com/glowleaf/booktokviral/src/api/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	attachRoutes(r, cfg, db, rdb)
	return r
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.SiteURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(cfg.JWTSecret)
	catalog := amazon.NewClient(cfg.CatalogURL)

	authH := NewAuth(db, secret)
	voteH := NewVotes(db)
	bookH := NewBooks(db, catalog)
	winH := NewWinners(db)
	payH := NewPayments(db, cfg)
	resetH := NewReset(db, rdb)
	limiter := newVoteLimiter(30, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authH.Register)
		v1.POST("/auth/login", authH.Login)

		v1.GET("/books", bookH.List)
		v1.GET("/books/:asin", bookH.Get)
		v1.GET("/winners", winH.List)

		v1.POST("/webhooks/stripe", payH.Webhook)

		// Voting works for both authenticated and anonymous callers; identity
		// resolution happens in the handler.
		open := v1.Group("")
		open.Use(OptionalJWT(secret))
		open.POST("/vote", RateLimitMiddleware(limiter), voteH.Cast)
		open.GET("/check-vote", voteH.Check)

		secured := v1.Group("")
		secured.Use(JWTMiddleware(secret))
		secured.POST("/submit", bookH.Submit)
		secured.POST("/checkout/session", payH.CheckoutSession)
		secured.POST("/checkout/subscription", payH.CheckoutSubscription)

		admin := v1.Group("/admin")
		admin.Use(JWTMiddleware(secret), AdminMiddleware(db))
		admin.POST("/weekly-reset", resetH.Run)
		admin.POST("/refresh-books", bookH.Refresh)
	}
}
