// Package worker runs the background job loop: S3 image cleanup after
// event/option deletes, and page-view ingest for analytics.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumiere-atelier/backend/internal/analytics"
	"github.com/lumiere-atelier/backend/pkg/queue"
	"github.com/lumiere-atelier/backend/pkg/storage"
)

// Processor consumes jobs from the queue and dispatches by type.
type Processor struct {
	analyticsRepo *analytics.Repository
	s3            *storage.S3
	queue         *queue.Queue
	logger        *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(analyticsRepo *analytics.Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{analyticsRepo: analyticsRepo, s3: s3, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeImageCleanup:
		return p.processImageCleanup(ctx, job)
	case queue.JobTypePageView:
		return p.processPageView(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processImageCleanup(ctx context.Context, job *queue.Job) error {
	var payload queue.ImageCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.s3 == nil {
		p.logger.Warn("image cleanup skipped, S3 not configured", zap.String("job_id", job.ID))
		return nil
	}
	var failed []string
	for _, key := range payload.S3Keys {
		if err := p.s3.DeleteObject(ctx, key); err != nil {
			p.logger.Warn("delete image failed", zap.Error(err), zap.String("key", key))
			failed = append(failed, key)
		}
	}
	if len(failed) > 0 {
		// Retry only what is still there.
		job.Payload, _ = json.Marshal(queue.ImageCleanupPayload{EventID: payload.EventID, S3Keys: failed})
		return fmt.Errorf("delete %d of %d images failed", len(failed), len(payload.S3Keys))
	}
	p.logger.Info("image cleanup completed",
		zap.String("event_id", payload.EventID.String()), zap.Int("keys", len(payload.S3Keys)))
	return nil
}

func (p *Processor) processPageView(ctx context.Context, job *queue.Job) error {
	var payload queue.PageViewPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.analyticsRepo.Insert(ctx, payload.Path, payload.Referrer, payload.VisitorHash, payload.UserAgent, payload.ViewedAt); err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
