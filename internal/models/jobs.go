package models

// JobPriority orders background work. Higher values are processed sooner.
type JobPriority int

const (
	PriorityLow JobPriority = iota + 1
	PriorityNormal
	PriorityHigh
)

// EnqueueOptions tune a single enqueue call.
type EnqueueOptions struct {
	Priority JobPriority
	BatchID  string // generated when empty
}

// EnqueueResult describes an accepted job.
type EnqueueResult struct {
	JobID      string `json:"jobId"`
	BatchID    string `json:"batchId,omitempty"`
	ChunkCount int    `json:"chunkCount,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
	Queue      string `json:"queue"`
}
