package scheduler

import (
	"fmt"
	"strings"

	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// PeriodicScans enqueues a duplicate scan on the DUPLICATE_SCAN_CRON schedule.
type PeriodicScans struct {
	scheduler *asynq.Scheduler
	spec      string
	log       *logger.Logger
}

// NewPeriodicScans returns nil when the cron spec is empty or "off".
func NewPeriodicScans(cfg config.SchedulerConfig, log *logger.Logger) (*PeriodicScans, error) {
	spec := strings.TrimSpace(cfg.GetDuplicateScanCron())
	if spec == "" || strings.EqualFold(spec, "off") {
		return nil, nil
	}

	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	task, err := NewDuplicateScanTask(DuplicateScanPayload{TriggeredBy: "cron"})
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("periodic duplicate scan enqueue failed", "error", err)
			}
		},
	})
	if _, err := scheduler.Register(spec, task, asynq.Queue(queueName(cfg)), asynq.Unique(scanUniqueTTL)); err != nil {
		return nil, fmt.Errorf("register duplicate scan schedule %q: %w", spec, err)
	}

	return &PeriodicScans{scheduler: scheduler, spec: spec, log: log}, nil
}

// Start runs the scheduler in the background until Shutdown.
func (p *PeriodicScans) Start() error {
	if p == nil {
		return nil
	}
	p.log.Info("periodic duplicate scans enabled", "cron", p.spec)
	return p.scheduler.Start()
}

func (p *PeriodicScans) Shutdown() {
	if p == nil {
		return
	}
	p.scheduler.Shutdown()
}
