package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

const unknownEmbedError = "unknown embedding generation error"

// HandleEmbed claims the pending chunks named by the job, embeds them and
// writes every outcome back in one transaction.
//
// Chunks that are no longer pending are skipped. A job that finds nothing
// to do succeeds with zero counts.
func (i *DocumentIngestor) HandleEmbed(ctx context.Context, job jobs.EmbedJob) (*jobs.EmbedResult, error) {
	batchID := job.Batch()

	var (
		claimed []models.Chunk
		err     error
	)
	switch j := job.(type) {
	case jobs.EmbedChunksJob:
		claimed, err = i.db.ClaimPendingChunks(ctx, j.ChunkIDs, batchID, i.cfg.ClaimLease)
	case jobs.EmbedDocumentJob:
		claimed, err = i.db.ClaimPendingChunksByDocument(ctx, j.DocumentID, batchID, i.cfg.ClaimLease)
	default:
		return nil, fmt.Errorf("%w: unknown embed job %T", core.ErrInvalidInput, job)
	}
	if err != nil {
		return nil, fmt.Errorf("claim pending chunks: %w", err)
	}

	res := &jobs.EmbedResult{BatchID: batchID}
	if len(claimed) == 0 {
		logger.Info("embed: batch %s has no pending chunks", batchID)
		return res, nil
	}

	texts := make([]string, len(claimed))
	for k := range claimed {
		texts[k] = claimed[k].Text
	}
	results := i.embedder.EmbedBatch(ctx, texts, i.cfg.EmbedBatchSize)
	info := i.embedder.Info()

	updates := make([]models.EmbeddingUpdate, len(claimed))
	for k := range claimed {
		u := models.EmbeddingUpdate{
			ChunkID: claimed[k].ID,
			Model:   info.Name,
			Version: info.Version,
		}
		var r core.EmbedResult
		if k < len(results) {
			r = results[k]
		}
		switch {
		case r.Err != nil:
			u.Error = r.Err.Error()
			res.Errors++
		case r.Embedding == nil:
			u.Error = unknownEmbedError
			res.Errors++
		default:
			u.Embedding = r.Embedding
			res.Success++
		}
		updates[k] = u
	}

	written, err := i.db.UpdateEmbeddingsBatch(ctx, batchID, updates)
	if err != nil {
		return nil, fmt.Errorf("write embeddings: %w", err)
	}
	if written != int64(len(updates)) {
		logger.Warn("embed: batch %s wrote %d of %d chunks, the rest were reclaimed", batchID, written, len(updates))
	}

	res.Processed = len(claimed)
	logger.Info("embed: batch %s processed=%d success=%d errors=%d", batchID, res.Processed, res.Success, res.Errors)
	return res, nil
}
