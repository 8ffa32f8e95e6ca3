package ingestion_engine

import (
	"time"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

// IngestConfig tunes the ingestion and embedding handlers.
//
// MaxTokens:      largest segment kept as one chunk (words).
// Overlap:        words shared by consecutive windows of a long segment.
// EmbedBatchSize: texts per embedding model call.
// ClaimLease:     how long a claimed chunk stays reserved for its batch.
type IngestConfig struct {
	MaxTokens      int
	Overlap        int
	EmbedBatchSize int
	ClaimLease     time.Duration
}

// DocumentIngestor runs the background side of the pipeline:
//
// db:        documents and chunks.
// obj:       where uploaded files live.
// extractor: raw text from PDF/DOCX/XLSX.
// embedder:  the shared embedding service.
// queue:     follow-up embedding jobs.
type DocumentIngestor struct {
	db        core.DbClient
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	embedder  core.Embedder
	queue     core.JobQueue
	chunker   *Chunker
	cfg       IngestConfig
}
