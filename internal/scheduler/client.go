package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// scanUniqueTTL keeps at most one queued duplicate scan per window.
const scanUniqueTTL = time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueDuplicateScan queues a full duplicate scan and returns its task id.
// A scan already waiting in the queue yields a conflict.
func (c *Client) EnqueueDuplicateScan(ctx context.Context) (string, error) {
	if c == nil || c.client == nil {
		return "", apperr.Internal("task queue not configured")
	}

	task, err := NewDuplicateScanTask(DuplicateScanPayload{TriggeredBy: "api"})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(scanUniqueTTL))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", apperr.Conflict("a duplicate scan is already queued")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "enqueue duplicate scan", err)
	}
	return info.ID, nil
}

// EnqueueRescore queues a rescore of leadID, or of every lead when leadID is empty.
func (c *Client) EnqueueRescore(ctx context.Context, leadID string) (string, error) {
	if c == nil || c.client == nil {
		return "", apperr.Internal("task queue not configured")
	}

	task, err := NewLeadRescoreTask(LeadRescorePayload{LeadID: leadID})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(3))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "enqueue rescore", err)
	}
	return info.ID, nil
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
