package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/config"
	"github.com/glowleaf/booktokviral/src/api/data"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/glowleaf/booktokviral/src/api/webserver"
	"gorm.io/gorm"
)

var allModels = []interface{}{
	&types.User{}, &types.Book{}, &types.Vote{},
	&types.WeeklyWinner{}, &types.Subscription{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

// ensureAdmin promotes the configured operator account. Admin is a stored
// role on the user row; there is no hardcoded email check anywhere else.
func ensureAdmin(db *gorm.DB, email string) {
	if email == "" {
		return
	}
	res := db.Model(&types.User{}).Where("email = ?", email).Update("admin", true)
	if res.Error == nil && res.RowsAffected > 0 {
		log.Printf("admin role granted to %s", email)
	}
}

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db := data.MustPostgres(cfg.PostgresDSN)
	migrate(db)
	ensureAdmin(db, cfg.AdminEmail)

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			var reloader *webserver.CertReloader
			reloader, err = webserver.NewCertReloader(cfg.TLSCertFile, cfg.TLSKeyFile)
			if err != nil {
				log.Fatalf("tls: %v", err)
			}
			httpSrv.TLSConfig = reloader.Config()
			err = httpSrv.ListenAndServeTLS("", "")
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("BookTok Viral API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
