package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/positionfaq/api"
	migrations "github.com/garnizeh/positionfaq/db"
	"github.com/garnizeh/positionfaq/internal/ai"
	"github.com/garnizeh/positionfaq/internal/config"
	"github.com/garnizeh/positionfaq/internal/db"
	"github.com/garnizeh/positionfaq/internal/jobs"
	"github.com/garnizeh/positionfaq/internal/loader"
	"github.com/garnizeh/positionfaq/internal/notify"
	"github.com/garnizeh/positionfaq/internal/store"
	"github.com/garnizeh/positionfaq/internal/workflow"
	"github.com/garnizeh/positionfaq/pkg/ollama"
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
	slog.SetDefault(logger)
	api.SetLogger(logger)
	ollama.SetLogger(logger)

	log.Printf("Starting positionfaq server version %s (built at %s)", version, buildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database connection and apply migrations
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, migrations.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	st := store.New(conn, logger)

	// Seed data, if configured
	docLoader := loader.New(st, logger)
	if cfg.SeedDir != "" {
		n, err := docLoader.LoadDir(ctx, cfg.SeedDir)
		if err != nil {
			log.Fatalf("Failed to load seed data: %v", err)
		}
		logger.Info("seed data loaded", slog.Int("imported", n), slog.String("dir", cfg.SeedDir))
	}
	var watcher *loader.Watcher
	if cfg.ImportDir != "" {
		watcher, err = loader.NewWatcher(docLoader, logger)
		if err != nil {
			log.Fatalf("Failed to create import watcher: %v", err)
		}
		if err := watcher.Watch(ctx, cfg.ImportDir); err != nil {
			log.Fatalf("Failed to watch import dir: %v", err)
		}
	}

	// Oracle engine
	oracleClient, err := ollama.NewDefaultClient(cfg.OllamaConfig)
	if err != nil {
		log.Fatalf("Failed to create Ollama client: %v", err)
	}
	engine, err := ai.NewEngine(oracleClient, cfg.EngineConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create AI engine: %v", err)
	}

	// Background jobs: HR notifications
	jobRepo := jobs.NewRepository(conn)
	mailer := &notify.LogMailer{Logger: logger}
	handlers := map[string]jobs.Handler{
		notify.JobTypeNotifyHR: notify.Handler(mailer, cfg.HREmail),
	}
	pool := jobs.NewWorkerPool(jobRepo, handlers, logger, cfg.Workers)
	pool.Start(ctx)

	notifier := notify.NewHRNotifier(pool, logger)
	resolver := workflow.NewResolver(st, engine, notifier, cfg.MaxQuestionLength, logger)

	handler := api.SetupRoutes(cfg, version, buildTime, st, resolver)

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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Printf("Error stopping watcher: %v", err)
		}
	}
	pool.Stop()
	cancel()

	if err := oracleClient.Close(); err != nil {
		log.Printf("Error closing Ollama client: %v", err)
	}
	if err := conn.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
