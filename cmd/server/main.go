package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/washtrack/washtrack/api"
	dbfs "github.com/washtrack/washtrack/db"
	"github.com/washtrack/washtrack/internal/cleanup"
	"github.com/washtrack/washtrack/internal/config"
	"github.com/washtrack/washtrack/internal/db"
	"github.com/washtrack/washtrack/internal/jobs"
	"github.com/washtrack/washtrack/internal/mailer"
	"github.com/washtrack/washtrack/internal/repository/sqlite"
	"github.com/washtrack/washtrack/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)

	log.Printf("Starting washtrack server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open database connection and apply migrations
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.SMTP.Enabled && cfg.SMTP.Host != "" {
		mail = mailer.NewSMTP(cfg.SMTP)
	}

	repo := sqlite.New(database)
	sweeper := cleanup.NewSweeper(store, repo, cfg.Storage.Prefix, logger)

	// Background job workers (welcome mail delivery)
	jobRepo := jobs.NewRepository(database)
	handlers := map[string]jobs.Handler{
		jobs.TypeUserWelcome: jobs.NewUserWelcomeHandler(mail, logger),
	}
	workerCtx, stopWorkers := context.WithCancel(ctx)
	pool := jobs.NewWorkerPool(jobRepo, handlers, logger, cfg.WorkerCount)
	pool.Start(workerCtx)

	// Optional scheduled cleanup sweep
	var scheduler *cron.Cron
	if cfg.Cleanup.Schedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Cleanup.Schedule, func() {
			if _, err := sweeper.Run(ctx, cfg.Cleanup.DaysOld); err != nil {
				logger.Error("scheduled cleanup sweep", slog.Any("err", err))
			}
		}); err != nil {
			log.Fatalf("Invalid cleanup schedule: %v", err)
		}
		scheduler.Start()
	}

	handler, err := api.SetupRoutes(cfg, version, buildTime, database, store, sweeper, jobRepo)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	stopWorkers()
	pool.Stop()

	// Close database connection
	if err := database.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
