package scheduler

import (
	"context"
	"fmt"

	"lead_quality_backend/internal/leads/transport"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultRescoreConcurrency = 4

// LeadProcessor is the slice of the leads service the worker drives.
type LeadProcessor interface {
	ScanDuplicates(ctx context.Context) (transport.ScanResponse, error)
	RescoreLead(ctx context.Context, id string) error
	RescoreAll(ctx context.Context, concurrency int) (scored int, failed int, err error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadProcessor
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(leads, log)
	w.server = server
	return w, nil
}

func newWorker(leads LeadProcessor, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:   mux,
		leads: leads,
		log:   log,
	}

	mux.HandleFunc(TaskDuplicateScan, w.handleDuplicateScan)
	mux.HandleFunc(TaskLeadRescore, w.handleLeadRescore)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDuplicateScan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDuplicateScanPayload(task)
	if err != nil {
		return fmt.Errorf("parse duplicate scan payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := w.leads.ScanDuplicates(ctx)
	if err != nil {
		return err
	}

	w.log.Info("duplicate scan task finished",
		"triggeredBy", payload.TriggeredBy,
		"scanned", result.Scanned,
		"groups", len(result.Groups),
		"suppressed", result.Suppressed,
	)
	return nil
}

func (w *Worker) handleLeadRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRescorePayload(task)
	if err != nil {
		return fmt.Errorf("parse rescore payload: %v: %w", err, asynq.SkipRetry)
	}

	if payload.LeadID != "" {
		return skipPermanent(w.leads.RescoreLead(ctx, payload.LeadID))
	}

	concurrency := payload.Concurrency
	if concurrency < 1 {
		concurrency = defaultRescoreConcurrency
	}
	scored, failed, err := w.leads.RescoreAll(ctx, concurrency)
	if err != nil {
		return err
	}
	w.log.Info("rescore task finished", "scored", scored, "failed", failed)
	return nil
}

// skipPermanent marks errors that a retry cannot fix.
func skipPermanent(err error) error {
	switch apperr.GetKind(err) {
	case apperr.KindNotFound, apperr.KindValidation:
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}
