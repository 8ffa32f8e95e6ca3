package models

import (
	"time"
)

// Document lifecycle states.
const (
	DocumentUploaded      = "uploaded"
	DocumentIngesting     = "ingesting"
	DocumentChunksPending = "chunks_pending"
	DocumentFailed        = "failed"
)

// Chunk embedding states.
const (
	EmbeddingPending   = "pending"
	EmbeddingCompleted = "completed"
	EmbeddingFailed    = "failed"
)

// Document represents an uploaded RFP file for one client.
type Document struct {
	ID         string     `db:"id" json:"id"`
	Filename   string     `db:"filename" json:"filename"`
	Path       string     `db:"path" json:"path"` // local path or s3:// location
	UploadedBy *string    `db:"uploaded_by" json:"uploadedBy,omitempty"`
	ClientName string     `db:"client_name" json:"clientName"`
	Size       int64      `db:"size" json:"size"`
	MimeType   string     `db:"mime_type" json:"mimeType"`
	Status     string     `db:"status" json:"status"`
	UploadedAt time.Time  `db:"uploaded_at" json:"uploadedAt"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// ChunkMetadata holds the tags derived from a chunk's first line.
type ChunkMetadata struct {
	Section    string `json:"section,omitempty"`
	IsQuestion bool   `json:"isQuestion,omitempty"`
	IsAnswer   bool   `json:"isAnswer,omitempty"`
}

// Chunk is one contiguous slice of a document's normalized text.
type Chunk struct {
	ID                   string        `db:"id" json:"id"`
	DocumentID           string        `db:"document_id" json:"documentId"`
	Text                 string        `db:"text" json:"text"`
	TokenCount           int           `db:"token_count" json:"tokenCount"`
	CharStart            int           `db:"char_start" json:"charStart"`
	CharEnd              int           `db:"char_end" json:"charEnd"`
	ChunkIndex           int           `db:"chunk_index" json:"chunkIndex"`
	SectionTitle         *string       `db:"section_title" json:"sectionTitle,omitempty"`
	Metadata             ChunkMetadata `db:"metadata" json:"metadata"`
	Embedding            []float32     `db:"embedding" json:"-"`
	EmbeddingStatus      string        `db:"embedding_status" json:"embeddingStatus"`
	EmbedModel           *string       `db:"embed_model" json:"embedModel,omitempty"`
	EmbedVersion         *string       `db:"embed_version" json:"embedVersion,omitempty"`
	EmbeddingBatchID     *string       `db:"embedding_batch_id" json:"embeddingBatchId,omitempty"`
	EmbeddingError       *string       `db:"embedding_error" json:"embeddingError,omitempty"`
	EmbeddingGeneratedAt *time.Time    `db:"embedding_generated_at" json:"embeddingGeneratedAt,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"createdAt"`
}

// EmbeddingUpdate is the write-back record for one chunk after an embedding run.
// A nil Embedding with a non-empty Error marks the chunk failed.
type EmbeddingUpdate struct {
	ChunkID   string
	Embedding []float32
	Model     string
	Version   string
	Error     string
}

// ChunkStats summarises embedding progress across all chunks.
type ChunkStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Failed    int64 `json:"failed"`
}

// SearchHit is one row returned by a keyword or vector query, with the
// document fields the search response needs.
type SearchHit struct {
	ChunkID      string    `json:"chunkId"`
	DocumentID   string    `json:"documentId"`
	Text         string    `json:"text"`
	ChunkIndex   int       `json:"chunkIndex"`
	SectionTitle *string   `json:"sectionTitle"`
	Filename     string    `json:"filename"`
	ClientName   string    `json:"clientName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Score        float64   `json:"score"`
}

// SearchLog is the best-effort record of one search request.
type SearchLog struct {
	UserID         *string        `db:"user_id"`
	QueryText      string         `db:"query_text"`
	SearchType     string         `db:"search_type"`
	Filters        map[string]any `db:"filters"`
	ResultsCount   int            `db:"results_count"`
	ResponseTimeMs int64          `db:"response_time_ms"`
	IPAddress      string         `db:"ip_address"`
	CreatedAt      time.Time      `db:"created_at"`
}
