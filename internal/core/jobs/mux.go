package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

// IngestHandler processes ingest tasks.
type IngestHandler interface {
	HandleIngest(ctx context.Context, p IngestPayload) error
}

// EmbedHandler processes both embed task shapes.
type EmbedHandler interface {
	HandleEmbed(ctx context.Context, job EmbedJob) (*EmbedResult, error)
}

// NewServeMux routes task types to the handlers.
//
// Payloads that cannot be decoded, and errors a retry cannot fix, are
// wrapped with asynq.SkipRetry. Everything else goes back to the queue's
// retry policy.
func NewServeMux(ingest IngestHandler, embed EmbedHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeIngestDocument, func(ctx context.Context, t *asynq.Task) error {
		p, err := DecodeIngest(t.Payload())
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return classify(ingest.HandleIngest(ctx, p))
	})

	embedFn := func(ctx context.Context, t *asynq.Task) error {
		job, err := DecodeEmbed(t.Type(), t.Payload())
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		res, err := embed.HandleEmbed(ctx, job)
		if err != nil {
			return classify(err)
		}
		writeResult(t, res)
		return nil
	}
	mux.HandleFunc(TypeEmbedChunks, embedFn)
	mux.HandleFunc(TypeEmbedDocument, embedFn)

	return mux
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrUnsupportedType) || errors.Is(err, core.ErrInvalidInput) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func writeResult(t *asynq.Task, res *EmbedResult) {
	w := t.ResultWriter()
	if w == nil || res == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if _, err := w.Write(b); err != nil {
		logger.Warn("write result for task %s: %v", w.TaskID(), err)
	}
}
