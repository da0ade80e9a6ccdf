/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the roster engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and configuration
  2. Parse command-line flags (override configuration)
  3. Configure logging
  4. Initialize SQLite store
  5. Create API handler, scheduler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT, 8080)
  -db      SQLite database path (default: DB_PATH, roster.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  See config/config.go. ENVIRONMENT=production switches to JSON logs.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reconciliation scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/store/sqlite"
)

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	setupLogging(cfg)
	log := logrus.StandardLogger()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	opts, err := cfg.ReconcileOptions()
	if err != nil {
		log.Fatalf("Invalid reconciliation options: %v", err)
	}

	// Initialize handler
	handler := api.NewHandler(store, opts, log)
	handler.DefaultCycleLength = cfg.DefaultCycleLength

	scheduler := api.NewReconciliationScheduler(store, handler.Reconciler, log)
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.CheckInterval = cfg.SchedulerInterval
	handler.Scheduler = scheduler
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port":        *port,
			"db":          *dbPath,
			"environment": cfg.Environment,
			"tolerance":   opts.Tolerance.String(),
			"matching":    cfg.ReconcileMatching,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	log.Info("server stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
