// Package main is the entry point for the users service.
//
// main stays minimal. Its job is to:
// 1. Read configuration (environment, optionally a .env file)
// 2. Create the logger
// 3. Hand both to internal/server and start it
//
// All actual logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/user-service/internal/config"
	sqliteRepo "github.com/sakif/user-service/internal/repository/sqlite"
	"github.com/sakif/user-service/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Failures here go through the default slog logger; ours needs cfg.LogLevel.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	// === 3. DATABASE DIRECTORY ===
	// SQLite creates the file itself but not its parent directory.
	if cfg.Database.Path != sqliteRepo.MemoryDSN {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
