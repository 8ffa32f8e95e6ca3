package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/models"
)

// DocumentStore persists uploaded documents.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	DocumentExists(ctx context.Context, filename, clientName string) (bool, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
}

// ChunkStore persists chunks and their embedding state.
type ChunkStore interface {
	// ReplaceDocumentChunks deletes any chunks of the document and inserts the
	// given ones in one transaction.
	ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []models.Chunk) error

	// ClaimPendingChunks marks pending chunks as owned by batchID and returns them.
	// Rows claimed by another batch within the lease are skipped.
	ClaimPendingChunks(ctx context.Context, ids []string, batchID string, lease time.Duration) ([]models.Chunk, error)
	ClaimPendingChunksByDocument(ctx context.Context, documentID, batchID string, lease time.Duration) ([]models.Chunk, error)

	// UpdateEmbeddingsBatch applies all updates in one transaction. Only rows
	// still claimed by batchID are written.
	UpdateEmbeddingsBatch(ctx context.Context, batchID string, updates []models.EmbeddingUpdate) (int64, error)

	// ListPendingChunkIDs returns pending chunk ids, all documents when documentID is empty.
	ListPendingChunkIDs(ctx context.Context, documentID string) ([]string, error)
	ResetFailedChunks(ctx context.Context, documentID string) (int64, error)
	ChunkStatistics(ctx context.Context) (*models.ChunkStats, error)
}

// SearchStore runs the read side of search and records search logs.
type SearchStore interface {
	SearchByKeyword(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
	SearchByVector(ctx context.Context, embedding []float32, limit int) ([]models.SearchHit, error)
	InsertSearchLog(ctx context.Context, entry *models.SearchLog) error
}

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	DocumentStore
	ChunkStore
	SearchStore

	Ping(ctx context.Context) error
	Close() error
}

// ObjectClient stores uploaded files. Locations are opaque to callers:
// an absolute path for local disk, s3://bucket/key for S3.
type ObjectClient interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
}

// JobQueue enqueues background work.
type JobQueue interface {
	EnqueueIngest(ctx context.Context, documentID, filePath string) (*models.EnqueueResult, error)
	EnqueueEmbeddingForChunks(ctx context.Context, chunkIDs []string, opts models.EnqueueOptions) (*models.EnqueueResult, error)
	EnqueueEmbeddingForDocument(ctx context.Context, documentID string, opts models.EnqueueOptions) (*models.EnqueueResult, error)
}
