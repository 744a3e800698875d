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

	"github.com/joho/godotenv"

	"taskhub/internal/bus"
	"taskhub/internal/config"
	"taskhub/internal/domain"
	"taskhub/internal/httpserver"
	"taskhub/internal/mail"
	"taskhub/internal/security"
	"taskhub/internal/store/postgres"
	"taskhub/internal/store/sqlite"
	"taskhub/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize the store
	var db *sql.DB
	var users domain.UserRepository
	var tasks domain.TaskRepository
	var messages domain.MessageRepository

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		users = postgres.NewUserRepo(db)
		tasks = postgres.NewTaskRepo(db)
		messages = postgres.NewMessageRepo(db)
	default:
		db, err = sqlite.Open(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		users = sqlite.NewUserRepo(db)
		tasks = sqlite.NewTaskRepo(db)
		messages = sqlite.NewMessageRepo(db)
	}
	defer db.Close()

	// Security components
	tokenSvc := security.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour,
	)
	codeHasher := security.NewAccessCodeHasher(0)

	// Mail
	var mailer mail.Mailer
	if cfg.SMTPEmail != "" && cfg.SMTPPassword != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	} else {
		log.Println("SMTP not configured; mail will be logged only")
		mailer = mail.NewLogMailer()
	}

	// Room backplane: in-process by default, Redis when scaling out.
	var backplane bus.Backplane
	if cfg.RedisAddr != "" {
		backplane, err = bus.NewRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("failed to connect redis backplane: %v", err)
		}
	} else {
		backplane = bus.NewLocal()
	}
	defer backplane.Close()

	hub := ws.NewHub(backplane)
	if err := hub.Start(context.Background()); err != nil {
		log.Fatalf("failed to start hub: %v", err)
	}

	router := httpserver.NewRouter(cfg, users, tasks, messages, hub, tokenSvc, codeHasher, mailer)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Starting %s on %s\n", cfg.AppName, cfg.HTTPAddr())
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
