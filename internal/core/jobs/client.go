package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

var _ core.JobQueue = (*Client)(nil)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues ingest and embedding tasks.
type Client struct {
	q         enqueuer
	retention time.Duration
	now       func() time.Time
}

// NewClient connects to Redis through asynq.
func NewClient(redis asynq.RedisClientOpt, retention time.Duration) *Client {
	return newClient(asynq.NewClient(redis), retention)
}

func newClient(q enqueuer, retention time.Duration) *Client {
	return &Client{q: q, retention: retention, now: time.Now}
}

func (c *Client) Close() error {
	return c.q.Close()
}

// EnqueueIngest schedules text extraction for a freshly uploaded document.
func (c *Client) EnqueueIngest(ctx context.Context, documentID, filePath string) (*models.EnqueueResult, error) {
	if documentID == "" || filePath == "" {
		return nil, fmt.Errorf("%w: document id and file path are required", core.ErrInvalidInput)
	}
	payload, err := json.Marshal(IngestPayload{DocumentID: documentID, FilePath: filePath})
	if err != nil {
		return nil, fmt.Errorf("marshal ingest payload: %w", err)
	}

	info, err := c.enqueue(ctx, asynq.NewTask(TypeIngestDocument, payload), models.PriorityHigh)
	if err != nil {
		return nil, err
	}
	logger.Info("enqueued ingest job %s for document %s", info.ID, documentID)
	return &models.EnqueueResult{JobID: info.ID, DocumentID: documentID, Queue: info.Queue}, nil
}

// EnqueueEmbeddingForChunks schedules embedding for an explicit list of chunks.
func (c *Client) EnqueueEmbeddingForChunks(ctx context.Context, chunkIDs []string, opts models.EnqueueOptions) (*models.EnqueueResult, error) {
	if len(chunkIDs) == 0 {
		return nil, fmt.Errorf("%w: chunk ids must be a non-empty list", core.ErrInvalidInput)
	}
	job := EmbedChunksJob{ChunkIDs: chunkIDs, BatchID: batchID(opts), Timestamp: c.now().UTC()}

	info, err := c.enqueueEmbed(ctx, job, opts.Priority)
	if err != nil {
		return nil, err
	}
	logger.Info("enqueued embedding job %s for %d chunks (batch %s)", info.ID, len(chunkIDs), job.BatchID)
	return &models.EnqueueResult{JobID: info.ID, BatchID: job.BatchID, ChunkCount: len(chunkIDs), Queue: info.Queue}, nil
}

// EnqueueEmbeddingForDocument schedules embedding for the pending chunks of one document.
func (c *Client) EnqueueEmbeddingForDocument(ctx context.Context, documentID string, opts models.EnqueueOptions) (*models.EnqueueResult, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", core.ErrInvalidInput)
	}
	job := EmbedDocumentJob{DocumentID: documentID, BatchID: batchID(opts), Timestamp: c.now().UTC()}

	info, err := c.enqueueEmbed(ctx, job, opts.Priority)
	if err != nil {
		return nil, err
	}
	logger.Info("enqueued embedding job %s for document %s (batch %s)", info.ID, documentID, job.BatchID)
	return &models.EnqueueResult{JobID: info.ID, BatchID: job.BatchID, DocumentID: documentID, Queue: info.Queue}, nil
}

func (c *Client) enqueueEmbed(ctx context.Context, job EmbedJob, p models.JobPriority) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal embed payload: %w", err)
	}
	return c.enqueue(ctx, asynq.NewTask(job.taskType(), payload), p)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, p models.JobPriority) (*asynq.TaskInfo, error) {
	opts := []asynq.Option{
		asynq.MaxRetry(MaxRetry),
		asynq.Queue(QueueFor(p)),
	}
	if c.retention > 0 {
		opts = append(opts, asynq.Retention(c.retention))
	}
	info, err := c.q.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info, nil
}

func batchID(opts models.EnqueueOptions) string {
	if opts.BatchID != "" {
		return opts.BatchID
	}
	return uuid.NewString()
}
