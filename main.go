package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/stimulus-rank/cliparse"
	"github.com/danielhkuo/stimulus-rank/db"
	"github.com/danielhkuo/stimulus-rank/middleware"
	"github.com/danielhkuo/stimulus-rank/router"
)

func main() {
	// A missing .env is fine; the real environment still applies
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect with the least-privileged role
	restricted, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "role", "restricted", "error", err)
		os.Exit(1)
	}
	defer restricted.Close()

	// SQLite has no roles, so both capabilities share one handle
	privileged := restricted
	if cfg.DatabaseType == db.TypePostgres && cfg.PrivilegedDatabaseURL != cfg.DatabaseURL {
		privileged, err = db.Open(cfg.DatabaseType, cfg.PrivilegedDatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "role", "privileged", "error", err)
			os.Exit(1)
		}
		defer privileged.Close()
	}

	// Create schema (tables)
	if err := db.CreateSchema(privileged, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if cfg.ResearcherPasswordHash == "" {
		slog.Warn("RESEARCHER_PASSWORD_HASH not set; researcher login is disabled")
	}

	if err := serve(cfg, restricted, privileged); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
}

func serve(cfg cliparse.Config, restricted, privileged *sql.DB) error {
	mux, err := router.NewRouter(restricted, privileged, cfg)
	if err != nil {
		return err
	}

	server := http.Server{
		Handler:           middleware.CORS(cfg.AllowedOrigins)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	slog.Info("Listening", "port", cfg.Port, "policy", cfg.PlaylistPolicy)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}
