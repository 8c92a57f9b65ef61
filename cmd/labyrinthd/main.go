package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/epsilon/server/internal/cache"
	"github.com/lawnchairsociety/epsilon/server/internal/config"
	"github.com/lawnchairsociety/epsilon/server/internal/database"
	"github.com/lawnchairsociety/epsilon/server/internal/events"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
	"github.com/lawnchairsociety/epsilon/server/internal/server"
)

func main() {
	serverConfigFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	logger.Info("Starting Epsilon labyrinth server")

	cfg, err := config.LoadConfig(*serverConfigFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *serverConfigFile, "error", err)
	}

	db, err := database.OpenWithConfig(databaseConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Database initialized", "driver", cfg.Database.Driver)

	ctx := context.Background()
	snapshots, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer snapshots.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		publisher = nc
		logger.Info("Publishing events to NATS", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	srv := server.New(cfg, db, snapshots, publisher)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	logger.Info("Labyrinth server running", "address", cfg.HTTP.Addr)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	case <-sigChan:
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}

// databaseConfig maps the YAML section onto the driver config.
func databaseConfig(c config.DatabaseConfig) database.Config {
	if c.Driver != string(database.DialectPostgres) {
		return database.DefaultConfig(c.SQLitePath)
	}

	pg := database.DefaultPostgresConfig()
	pg.Host = c.Postgres.Host
	pg.Port = c.Postgres.Port
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.Database = c.Postgres.Database
	if c.Postgres.SSLMode != "" {
		pg.SSLMode = c.Postgres.SSLMode
	}
	return database.Config{Driver: c.Driver, Postgres: pg}
}
