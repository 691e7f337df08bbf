package data

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MustPostgres opens the Postgres database. TranslateError is on so
// unique-constraint violations surface as gorm.ErrDuplicatedKey; vote and
// submission dedup rely on that instead of pre-checks.
func MustPostgres(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	return db
}
