package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
)

// Ingestor is what the worker mux needs from this package.
type Ingestor interface {
	HandleIngest(ctx context.Context, p jobs.IngestPayload) error
	HandleEmbed(ctx context.Context, job jobs.EmbedJob) (*jobs.EmbedResult, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
