// Package main is the entry point for the KadryHR background worker.
// It delivers queued notifications and removes expired sessions and idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kadryhr/internal/app"
	"kadryhr/internal/config"
	"kadryhr/internal/infrastructure/mail"
	"kadryhr/internal/infrastructure/storage/postgres"
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

	log.Info("starting kadryhr worker")

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	sender, err := newSender(ctx, cfg.Mail, log)
	if err != nil {
		log.Fatalw("failed to initialize mail sender", "error", err)
	}

	w := &Worker{
		relay:       postgres.NewOutboxRelay(a.TxManager, cfg.Worker.BatchSize, mail.OutboxHandler(sender)),
		app:         a,
		log:         log.WithComponent("worker"),
		poll:        cfg.Worker.PollInterval,
		cleanupEach: cfg.Worker.CleanupInterval,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	<-ctx.Done()
	log.Info("shutting down worker...")
	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and runs periodic cleanup.
type Worker struct {
	relay       *postgres.OutboxRelay
	app         *app.App
	log         *logger.Logger
	poll        time.Duration
	cleanupEach time.Duration
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(w.cleanupEach)
	defer cleanupTicker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	for {
		sent, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if sent == 0 {
			return
		}
		w.log.Debugw("outbox batch delivered", "sent", sent)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.app.Auth.CleanupSessions(ctx); err != nil {
		w.log.Errorw("session cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}

	if n, err := w.app.Idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

func newSender(ctx context.Context, cfg config.MailConfig, log *logger.Logger) (mail.Sender, error) {
	if cfg.Provider != config.MailSES {
		return mail.NewConsoleSender(log), nil
	}
	client, err := mail.NewSESClient(ctx, mail.SESConfig{
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		SessionToken: cfg.SessionToken,
	})
	if err != nil {
		return nil, err
	}
	log.Infow("sending email through SES", "region", cfg.Region)
	return mail.NewSESSender(client, cfg.From), nil
}
