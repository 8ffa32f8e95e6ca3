package core

import "context"

// EmbeddingProvider is a remote or local model that turns texts into vectors.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedResult is the outcome for one input of a batch. Exactly one of
// Embedding and Err is set.
type EmbedResult struct {
	Text      string
	Embedding []float32
	Err       error
}

// ModelInfo is persisted next to every embedding for provenance.
type ModelInfo struct {
	Name      string `json:"modelName"`
	Version   string `json:"version"`
	Dimension int    `json:"dimension"`
	Backend   string `json:"backend"` // "model" or "fallback"
}

// Embedder is the embedding service used by the worker and the search engine.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, batchSize int) []EmbedResult
	Info() ModelInfo
}
