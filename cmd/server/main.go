package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"crud_backend/internal/app/config"
	"crud_backend/internal/app/di"
	"crud_backend/internal/app/server"
	"crud_backend/internal/platform/db"
	"crud_backend/internal/platform/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stdout))

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenDB(db.LoadConfigFromEnv(), server.Models()...)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	// cache stays a nil interface when redis is off
	var cache redisv9.Cmdable
	if rcfg := redis.LoadConfigFromEnv(); rcfg.Enabled() {
		rdb, err := redis.NewRedisClient(ctx, rcfg)
		if err != nil {
			slog.Warn("Redis unavailable. Running without cache.")
		} else {
			cache = rdb
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	archive, err := di.NewReportArchive(ctx, cfg)
	if err != nil {
		slog.Error("report archive unavailable", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, gdb, cache, archive)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	go srv.RunJanitors(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
