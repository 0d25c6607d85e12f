package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"github.com/david/scholarhub/internal/api"
	"github.com/david/scholarhub/internal/auth"
	"github.com/david/scholarhub/internal/config"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/ingest"
	"github.com/david/scholarhub/internal/mail"
	"github.com/david/scholarhub/internal/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, logger); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	store := db.NewStore(pool)

	deps := api.Deps{
		Store:       store,
		Verifier:    auth.NewVerifier(cfg.SupabaseJWTSecret),
		ContactTo:   cfg.ContactTo,
		Classifier:  deadline.New(cfg.DeadlineTZ),
		ListLimit:   cfg.ListLimit,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		deps.Auth = auth.NewSupabaseAuthenticator(supabase.CreateClient(cfg.SupabaseURL, cfg.SupabaseKey))
	} else {
		logger.Warn("supabase not configured, login endpoints disabled")
	}

	objects, err := storage.New(storage.Config{
		Driver:      cfg.StorageDriver,
		Bucket:      cfg.StorageBucket,
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseKey,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		logger.Warn("image storage disabled", "driver", cfg.StorageDriver, "error", err)
	} else {
		deps.Uploader = storage.NewImageUploader(objects)
	}

	deps.Mailer = mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)

	registry, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("Failed to load import sources: %v", err)
	}
	deps.Importer = ingest.NewImporter(store, registry, logger)

	srv := api.NewServer(deps)

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
