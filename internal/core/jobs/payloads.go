// Package jobs defines the background job contracts shared by the API,
// which enqueues, and the worker, which consumes through an asynq mux.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

// Task types. The type name is the only discriminator between payload shapes.
const (
	TypeIngestDocument = "ingest:document"
	TypeEmbedChunks    = "embed:chunks"
	TypeEmbedDocument  = "embed:document"
)

// IngestPayload asks the worker to extract, normalize and chunk one document.
type IngestPayload struct {
	DocumentID string `json:"documentId"`
	FilePath   string `json:"filePath"`
}

// EmbedJob is either EmbedChunksJob or EmbedDocumentJob.
type EmbedJob interface {
	Batch() string
	taskType() string
	embedJob()
}

// EmbedChunksJob embeds an explicit list of chunks.
type EmbedChunksJob struct {
	ChunkIDs  []string  `json:"chunkIds"`
	BatchID   string    `json:"batchId"`
	Timestamp time.Time `json:"timestamp"`
}

// EmbedDocumentJob embeds whatever chunks of a document are pending when it runs.
type EmbedDocumentJob struct {
	DocumentID string    `json:"documentId"`
	BatchID    string    `json:"batchId"`
	Timestamp  time.Time `json:"timestamp"`
}

func (j EmbedChunksJob) Batch() string    { return j.BatchID }
func (j EmbedChunksJob) taskType() string { return TypeEmbedChunks }
func (EmbedChunksJob) embedJob()          {}

func (j EmbedDocumentJob) Batch() string    { return j.BatchID }
func (j EmbedDocumentJob) taskType() string { return TypeEmbedDocument }
func (EmbedDocumentJob) embedJob()          {}

// EmbedResult is what an embedding run reports back to the queue.
type EmbedResult struct {
	Processed int    `json:"processed"`
	Success   int    `json:"success"`
	Errors    int    `json:"errors"`
	BatchID   string `json:"batchId"`
}

// DecodeIngest parses and validates an ingest payload.
func DecodeIngest(data []byte) (IngestPayload, error) {
	var p IngestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: decode ingest payload: %v", core.ErrInvalidInput, err)
	}
	if p.DocumentID == "" || p.FilePath == "" {
		return p, fmt.Errorf("%w: ingest payload needs documentId and filePath", core.ErrInvalidInput)
	}
	return p, nil
}

// DecodeEmbed parses the payload of an embed task according to its type.
func DecodeEmbed(taskType string, data []byte) (EmbedJob, error) {
	switch taskType {
	case TypeEmbedChunks:
		var j EmbedChunksJob
		if err := json.Unmarshal(data, &j); err != nil {
			return nil, fmt.Errorf("%w: decode %s payload: %v", core.ErrInvalidInput, taskType, err)
		}
		if len(j.ChunkIDs) == 0 {
			return nil, fmt.Errorf("%w: %s payload has no chunkIds", core.ErrInvalidInput, taskType)
		}
		return j, nil
	case TypeEmbedDocument:
		var j EmbedDocumentJob
		if err := json.Unmarshal(data, &j); err != nil {
			return nil, fmt.Errorf("%w: decode %s payload: %v", core.ErrInvalidInput, taskType, err)
		}
		if j.DocumentID == "" {
			return nil, fmt.Errorf("%w: %s payload has no documentId", core.ErrInvalidInput, taskType)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("%w: unknown embed task type %q", core.ErrInvalidInput, taskType)
	}
}
