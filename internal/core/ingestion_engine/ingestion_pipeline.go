package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	objectclient "github.com/markdave123-py/rfpsearch/internal/core/object-client"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

func NewDocumentIngestor(
	db core.DbClient,
	obj core.ObjectClient,
	extractor core.DocumentExtractor,
	embedder core.Embedder,
	queue core.JobQueue,
	cfg IngestConfig,
) *DocumentIngestor {
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 10 * time.Minute
	}
	return &DocumentIngestor{
		db:        db,
		obj:       obj,
		extractor: extractor,
		embedder:  embedder,
		queue:     queue,
		chunker:   NewChunker(WithMaxTokens(cfg.MaxTokens), WithOverlap(cfg.Overlap)),
		cfg:       cfg,
	}
}

// HandleIngest extracts, normalizes and chunks one document, stores the
// chunks as pending and asks for their embeddings.
//
// Redelivery is safe: stored chunks are replaced, not appended. A failed
// enqueue after the chunks are stored is logged only; the chunks stay
// pending until reprocessed.
func (i *DocumentIngestor) HandleIngest(ctx context.Context, p jobs.IngestPayload) error {
	start := time.Now()
	logger.Info("ingest: document %s from %s", p.DocumentID, p.FilePath)

	if err := i.db.UpdateDocumentStatus(ctx, p.DocumentID, models.DocumentIngesting); err != nil {
		return fmt.Errorf("mark document ingesting: %w", err)
	}

	path, cleanup, err := objectclient.Materialize(ctx, i.obj, p.FilePath)
	if err != nil {
		i.markFailed(ctx, p.DocumentID)
		return fmt.Errorf("fetch file: %w", err)
	}
	defer cleanup()

	raw, err := i.extractor.ExtractText(ctx, path)
	if err != nil {
		i.markFailed(ctx, p.DocumentID)
		return fmt.Errorf("extract text: %w", err)
	}

	text, fellBack := Normalize(raw)
	if fellBack {
		logger.Warn("ingest: document %s kept un-normalized text", p.DocumentID)
	}

	pieces := i.chunker.Chunk(text)
	rows := make([]models.Chunk, len(pieces))
	ids := make([]string, len(pieces))
	for k, pc := range pieces {
		ids[k] = uuid.NewString()
		rows[k] = models.Chunk{
			ID:              ids[k],
			DocumentID:      p.DocumentID,
			Text:            pc.Text,
			TokenCount:      pc.TokenCount,
			CharStart:       pc.CharStart,
			CharEnd:         pc.CharEnd,
			ChunkIndex:      k,
			Metadata:        pc.Metadata,
			EmbeddingStatus: models.EmbeddingPending,
		}
		if pc.Metadata.Section != "" {
			section := pc.Metadata.Section
			rows[k].SectionTitle = &section
		}
	}

	if err := i.db.ReplaceDocumentChunks(ctx, p.DocumentID, rows); err != nil {
		i.markFailed(ctx, p.DocumentID)
		return fmt.Errorf("store chunks: %w", err)
	}
	if err := i.db.UpdateDocumentStatus(ctx, p.DocumentID, models.DocumentChunksPending); err != nil {
		i.markFailed(ctx, p.DocumentID)
		return fmt.Errorf("mark document chunks pending: %w", err)
	}
	logger.Info("ingest: document %s stored %d chunks in %s", p.DocumentID, len(rows), time.Since(start).Round(time.Millisecond))

	if len(ids) == 0 {
		return nil
	}
	res, err := i.queue.EnqueueEmbeddingForChunks(ctx, ids, models.EnqueueOptions{Priority: models.PriorityHigh})
	if err != nil {
		logger.Warn("ingest: document %s: enqueue embedding failed, %d chunks left pending: %v", p.DocumentID, len(ids), err)
		return nil
	}
	logger.Debug("ingest: document %s embedding job %s batch %s", p.DocumentID, res.JobID, res.BatchID)
	return nil
}

func (i *DocumentIngestor) markFailed(ctx context.Context, documentID string) {
	if err := i.db.UpdateDocumentStatus(ctx, documentID, models.DocumentFailed); err != nil {
		logger.Error("ingest: mark document %s failed: %v", documentID, err)
	}
}
