// Package main is the entry point for the KadryHR API server.
// All organisations share one database; rows are scoped by organisation_id.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"kadryhr/internal/app"
	"kadryhr/internal/config"
	v1 "kadryhr/internal/infrastructure/http/v1"
	"kadryhr/internal/infrastructure/http/v1/handlers"
	"kadryhr/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting kadryhr server", "version", cfg.App.Version, "env", cfg.App.Env)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()
	log.Info("database connection established")

	a.OrgCache.Start(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	routerCfg := v1.RouterConfig{
		Services:           a.Services(),
		Logger:             log,
		DB:                 a.Pool,
		Metrics:            registry,
		LoginRatePerMinute: cfg.HTTP.LoginRatePerMinute,
		Cookie: handlers.CookieConfig{
			Secure: cfg.HTTP.CookieSecure,
			Domain: cfg.HTTP.CookieDomain,
		},
		Version: cfg.App.Version,
	}
	if cfg.HTTP.IdempotencyEnabled {
		routerCfg.Idempotency = a.Idempotency
	}
	log.Infow("router configured", "idempotency", cfg.HTTP.IdempotencyEnabled, "cors_origins", cfg.HTTP.CORSOrigins)

	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           v1.NewHandler(router, cfg.HTTP.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
