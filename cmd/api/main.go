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

	"lead_quality_backend/internal/events"
	apphttp "lead_quality_backend/internal/http"
	"lead_quality_backend/internal/http/router"
	"lead_quality_backend/internal/leads"
	"lead_quality_backend/internal/leads/handler"
	"lead_quality_backend/internal/scheduler"
	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/kvstore"
	"lead_quality_backend/platform/logger"
	"lead_quality_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var backend *kvstore.Backend
	if err := withRetry(ctx, log, "store connection", 5, 2*time.Second, func() error {
		b, err := kvstore.Open(ctx, cfg)
		if err != nil {
			return err
		}
		backend = b
		return nil
	}); err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}
	defer backend.Close()
	log.Info("store ready", "backend", cfg.StoreBackend)

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	scanQueue, closeQueue := initScanQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	leadsModule, err := leads.NewModule(backend.Store, eventBus, val, cfg, log, scanQueue)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   backend.Health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initScanQueue returns nil when Redis is not configured; async scans then
// run inline.
func initScanQueue(cfg config.SchedulerConfig, log *logger.Logger) (handler.ScanEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async duplicate scans run inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scan queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
