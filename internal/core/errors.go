package core

import "errors"

var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type the extractors cannot read.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a document with the same filename already exists for the client.
	ErrDuplicate = errors.New("duplicate document")

	// ErrDimensionMismatch indicates the model returned a vector of the wrong size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not ready.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBothSearchPathsFailed indicates keyword and vector search both failed.
	ErrBothSearchPathsFailed = errors.New("both search paths failed")
)
