package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/core/ingestion_engine"
	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

// Worker consumes ingest and embedding tasks.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(cfg *config.Config, a *App) *Worker {
	ingestor := ingestion_engine.NewDocumentIngestor(
		a.DBClient,
		a.ObjectClient,
		ingestion_engine.NewFileExtractor(),
		a.Embedder,
		a.Jobs,
		ingestion_engine.IngestConfig{
			MaxTokens:      cfg.ChunkMaxTokens,
			Overlap:        cfg.ChunkOverlap,
			EmbedBatchSize: cfg.EmbedBatchSize,
			ClaimLease:     cfg.EmbedClaimLease,
		},
	)

	srv := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency:    cfg.WorkerConcurrency,
		Queues:         jobs.QueueWeights,
		RetryDelayFunc: jobs.RetryDelay,
		Logger:         asynqLogger{},
		LogLevel:       asynqLevel(logger.GetLevel()),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Error("task %s failed (retry %d): %v", t.Type(), retried, err)
		}),
	})

	return &Worker{srv: srv, mux: jobs.NewServeMux(ingestor, ingestor)}
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	logger.Info("worker started: queues %v", jobs.QueueWeights)
	return w.srv.Start(w.mux)
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	logger.Info("shutting down worker...")
	w.srv.Shutdown()
}

// asynqLogger routes asynq's own logs through the leveled logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debug("%s", fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logger.Info("%s", fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logger.Warn("%s", fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logger.Error("%s", fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) { logger.Fatal("%s", fmt.Sprint(args...)) }

func asynqLevel(l logger.Level) asynq.LogLevel {
	switch l {
	case logger.LevelDebug:
		return asynq.DebugLevel
	case logger.LevelWarn:
		return asynq.WarnLevel
	case logger.LevelError:
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}
