package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "store", cfg.StoreBackend)

	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Warn("scheduler is using the in-memory store; results are not shared with the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Worker-side wiring; no HTTP handlers are mounted.
	leadsModule, err := leads.NewModule(backend.Store, eventBus, val, cfg, log, nil)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodicScans(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scans", "error", err)
		panic("failed to initialize periodic scans: " + err.Error())
	}
	if err := periodic.Start(); err != nil {
		log.Error("failed to start periodic scans", "error", err)
		panic("failed to start periodic scans: " + err.Error())
	}
	defer periodic.Shutdown()

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
