package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whisperlink/internal/config"
	"whisperlink/internal/domain"
	"whisperlink/internal/httpserver"
	"whisperlink/internal/realtime"
	"whisperlink/internal/security"
	"whisperlink/internal/store/postgres"
	"whisperlink/internal/store/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL())
	passwordHasher := security.NewPasswordHasher(0)

	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey), cfg.EncryptionLegacyKeys)
	if err != nil {
		log.Fatalf("failed to initialize encryptor: %v", err)
	}

	// Initialize database and repositories
	var (
		db       *sql.DB
		users    domain.UserRepository
		messages domain.MessageStore
		chats    domain.ChatRepository
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		users = postgres.NewUserRepo(db)
		messages = postgres.NewMessageRepo(db, encryptor)
		chats = postgres.NewChatRepo(db)
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		users = sqlite.NewUserRepo(db)
		messages = sqlite.NewMessageRepo(db, encryptor)
		chats = sqlite.NewChatRepo(db)
	}
	defer db.Close()

	// Realtime core
	registry := realtime.NewRegistry()
	rtRouter := realtime.NewRouter(messages, registry)
	presence := realtime.NewTracker(rtRouter, chats, users)

	// Build HTTP router
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Users:    users,
		Messages: messages,
		Chats:    chats,
		Registry: registry,
		Presence: presence,
		Router:   rtRouter,
		Tokens:   tokenSvc,
		Hasher:   passwordHasher,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting %s on %s (db=%s)\n", cfg.AppName, cfg.HTTPAddr(), cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
