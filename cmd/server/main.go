package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/invoice-admin/internal/config"
	"github.com/diewo77/invoice-admin/internal/db"
	"github.com/diewo77/invoice-admin/internal/logging"
	"github.com/diewo77/invoice-admin/internal/models"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logging.Setup(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("invalid log configuration")
	}

	dbConn, err := db.Connect(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Str("dsn", db.MaskDSN(cfg.Database.DSN())).Msg("database connected")

	runMigrations := func() error {
		// MIGRATIONS=1 runs the SQL files; the AutoMigrate path is a dev convenience.
		if cfg.App.Migrations {
			return db.RunSQLMigrations(cfg.Database.URL())
		}
		return db.Migrate(dbConn,
			&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceLine{})
	}

	if *migrateOnlyFlag {
		if err := runMigrations(); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("migrations completed")
		return
	}
	if err := runMigrations(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Idempotency store is optional; invoicing still works without it.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency store enabled")
	}

	appHandler := NewApp(dbConn, rdb, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
