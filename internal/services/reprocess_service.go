package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

// DefaultReprocessBatch is the number of chunk ids per re-enqueued embedding job.
const DefaultReprocessBatch = 50

type ReprocessOptions struct {
	IncludeFailed bool
	BatchSize     int
	DocumentID    string // restrict to one document
}

type ReprocessSummary struct {
	Reset   int64                   `json:"reset"`
	Pending int                     `json:"pending"`
	Jobs    []*models.EnqueueResult `json:"jobs"`
}

// ReprocessService re-enqueues work that stalled: pending chunks whose
// embedding job was lost, failed chunks, and documents never ingested.
type ReprocessService struct {
	db    core.DbClient
	queue core.JobQueue
}

func NewReprocessService(db core.DbClient, queue core.JobQueue) *ReprocessService {
	return &ReprocessService{db: db, queue: queue}
}

// ReprocessPending enqueues embedding jobs at low priority for every
// pending chunk. With a document id it enqueues one by-document job instead.
func (s *ReprocessService) ReprocessPending(ctx context.Context, opts ReprocessOptions) (*ReprocessSummary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultReprocessBatch
	}
	sum := &ReprocessSummary{Jobs: []*models.EnqueueResult{}}

	if opts.DocumentID != "" {
		if _, err := s.db.GetDocumentByID(ctx, opts.DocumentID); err != nil {
			return nil, fmt.Errorf("document %s: %w", opts.DocumentID, err)
		}
	}

	if opts.IncludeFailed {
		n, err := s.db.ResetFailedChunks(ctx, opts.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("reset failed chunks: %w", err)
		}
		sum.Reset = n
		logger.Info("reset %d failed chunks to pending", n)
	}

	ids, err := s.db.ListPendingChunkIDs(ctx, opts.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("list pending chunks: %w", err)
	}
	sum.Pending = len(ids)
	if len(ids) == 0 {
		logger.Info("no pending chunks to process")
		return sum, nil
	}

	low := models.EnqueueOptions{Priority: models.PriorityLow}
	if opts.DocumentID != "" {
		res, err := s.queue.EnqueueEmbeddingForDocument(ctx, opts.DocumentID, low)
		if err != nil {
			return sum, err
		}
		sum.Jobs = append(sum.Jobs, res)
		return sum, nil
	}

	batches := (len(ids) + opts.BatchSize - 1) / opts.BatchSize
	for i := 0; i < len(ids); i += opts.BatchSize {
		end := min(i+opts.BatchSize, len(ids))
		logger.Info("enqueuing batch %d/%d (%d chunks)", i/opts.BatchSize+1, batches, end-i)

		res, err := s.queue.EnqueueEmbeddingForChunks(ctx, ids[i:end], low)
		if err != nil {
			return sum, err
		}
		sum.Jobs = append(sum.Jobs, res)
	}
	logger.Info("enqueued %d pending chunks for embedding", len(ids))
	return sum, nil
}

// Reingest enqueues a fresh ingest job for a stored document.
func (s *ReprocessService) Reingest(ctx context.Context, documentID string) (*models.EnqueueResult, error) {
	doc, err := s.db.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}
	return s.queue.EnqueueIngest(ctx, doc.ID, doc.Path)
}

// Stats reports embedding progress across all chunks.
func (s *ReprocessService) Stats(ctx context.Context) (*models.ChunkStats, error) {
	return s.db.ChunkStatistics(ctx)
}
