package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-publish/pkg/publish/api"
	"github.com/tendant/simple-publish/pkg/publish/config"
)

func main() {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	publisher, closeHistory, err := cfg.BuildPublisher(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to build publisher", "err", err)
		os.Exit(1)
	}
	defer closeHistory()

	handler := api.NewPublishHandler(publisher, *cfg, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           routes(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Publish server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"backend", cfg.Backend,
			"history", cfg.DatabaseType,
			"repo", cfg.RepoOwner+"/"+cfg.RepoName,
			"origins", len(cfg.AllowedOrigins))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	logger.Info("Server exiting")
}

func newLogger(environment string) *slog.Logger {
	if environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func routes(handler *api.PublishHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(api.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(logger))
	r.Use(api.RecoveryMiddleware(logger))

	api.RoutesHealthz(r)
	api.RoutesHealthzReady(r)
	r.Mount("/", handler.Routes())

	return r
}
