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

	"github.com/leadflow/leadflow/internal/app"
	"github.com/leadflow/leadflow/internal/config"
	"github.com/leadflow/leadflow/internal/logger"
	"github.com/leadflow/leadflow/internal/routes"
	"github.com/leadflow/leadflow/internal/service"
)

func main() {
	cfg := config.Load()

	flush := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	if cfg.DigestCron != "" {
		digest, err := app.DigestService.Schedule(cfg.DigestCron, cfg.Timezone)
		if err != nil {
			slog.Error("failed to schedule daily digest", "error", err)
			panic(err)
		}
		digest.Start()
		defer func() { <-digest.Stop().Done() }()
		next, err := service.NextRun(cfg.DigestCron, time.Now().In(cfg.Timezone))
		if err != nil {
			slog.Error("failed to compute next digest run", "error", err)
			panic(err)
		}
		slog.Info("daily digest scheduled", "cron", cfg.DigestCron, "timezone", cfg.Timezone.String(), "next_run", next)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Event streams never finish on their own
	server.RegisterOnShutdown(app.Hub.Close)
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		closeErr := server.Close()
		if closeErr != nil {
			slog.Error("failed to close server", "error", closeErr)
		}
	}
}
