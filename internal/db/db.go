// Package db owns database connection and schema migration.
package db

import (
	"fmt"
	"os"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostgreSQL database with a simple retry loop so the
// server can start while the database container is still coming up.
func Connect(dsn string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("db connection failed, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return db, nil
}

// Migrate applies the GORM auto-migrations plus the uniqueness index that
// AutoMigrate cannot express. This is the dev-convenience path; the
// MIGRATIONS=1 path runs the SQL files in ./migrations instead.
func Migrate(db *gorm.DB, models ...any) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return CreateNumberIndex(db)
}

// CreateNumberIndex creates the partial unique index enforcing that an
// invoice number is unique per owner among non-deleted rows. This index
// is the correctness boundary for number allocation: two sessions may
// compute the same candidate, only one insert will succeed.
// Valid for both postgres and sqlite.
func CreateNumberIndex(db *gorm.DB) error {
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_owner_number
		 ON invoices (user_id, number) WHERE deleted_at IS NULL`,
	).Error
}

// RunSQLMigrations executes migrations in ./migrations using the
// golang-migrate file source. dsn must be URL form (postgres://...).
func RunSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
