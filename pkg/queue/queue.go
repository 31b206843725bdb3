package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueJobs is the Redis list key for background jobs.
	QueueJobs = "worker:jobs"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeImageCleanup JobType = "image_cleanup"
	JobTypePageView     JobType = "page_view"
)

// ImageCleanupPayload is the payload for S3 option-image cleanup jobs,
// enqueued when an event or option is deleted.
type ImageCleanupPayload struct {
	EventID uuid.UUID `json:"event_id"`
	S3Keys  []string  `json:"s3_keys"`
}

// PageViewPayload is the payload for analytics page-view ingest jobs.
type PageViewPayload struct {
	Path        string    `json:"path"`
	Referrer    string    `json:"referrer"`
	VisitorHash string    `json:"visitor_hash"`
	UserAgent   string    `json:"user_agent"`
	ViewedAt    time.Time `json:"viewed_at"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueImageCleanup enqueues an S3 image cleanup job.
func (q *Queue) EnqueueImageCleanup(ctx context.Context, payload ImageCleanupPayload) error {
	if len(payload.S3Keys) == 0 {
		return nil
	}
	job, err := newJob(JobTypeImageCleanup, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueJobs, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued image cleanup job",
		zap.String("job_id", job.ID), zap.String("event_id", payload.EventID.String()), zap.Int("keys", len(payload.S3Keys)))
	return nil
}

// EnqueuePageView enqueues a page-view ingest job.
func (q *Queue) EnqueuePageView(ctx context.Context, payload PageViewPayload) error {
	job, err := newJob(JobTypePageView, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueJobs, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued page view job", zap.String("job_id", job.ID), zap.String("path", payload.Path))
	return nil
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueJobs).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries,
// pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, QueueJobs, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

func newJob(t JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}
