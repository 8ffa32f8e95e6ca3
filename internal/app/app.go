// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/core"
	db "github.com/markdave123-py/rfpsearch/internal/core/database"
	"github.com/markdave123-py/rfpsearch/internal/core/embedding"
	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/core/llm"
	objectclient "github.com/markdave123-py/rfpsearch/internal/core/object-client"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

// App holds the long-lived clients shared by the API server and the worker.
type App struct {
	Config       *config.Config
	DBClient     *db.DatabaseClient
	ObjectClient core.ObjectClient
	Embedder     *embedding.Service
	Jobs         *jobs.Client
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.New(appCtx, cfg)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}
	logger.Info("object store (%s) initialized and ready", cfg.StorageBackend)

	embedder, err := NewEmbedder(appCtx, cfg)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	return &App{
		Config:       cfg,
		DBClient:     dbClient,
		ObjectClient: objClient,
		Embedder:     embedder,
		Jobs:         jobs.NewClient(RedisOpt(cfg), cfg.JobRetention),
	}, nil
}

// NewEmbedder builds and initializes the embedding service. The remote
// Gemini model is used when enabled; otherwise vectors come from the
// deterministic fallback.
func NewEmbedder(ctx context.Context, cfg *config.Config) (*embedding.Service, error) {
	opts := []embedding.Option{
		embedding.WithDimension(cfg.EmbedDim),
		embedding.WithBatchSize(cfg.EmbedBatchSize),
		embedding.WithConcurrency(cfg.EmbedConcurrency),
		embedding.WithVersion(cfg.EmbedVersion),
	}
	if cfg.UseRemoteEmbedder {
		gemini, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedRateLimit)
		if err != nil {
			return nil, err
		}
		opts = append(opts, embedding.WithProvider(gemini, gemini.ModelName()))
	}

	svc := embedding.New(opts...)
	if err := svc.Init(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

// RedisOpt is the asynq connection shared by the job client, the worker
// and the inspector.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func (a *App) Close() {
	if a.Jobs != nil {
		if err := a.Jobs.Close(); err != nil {
			logger.Warn("closing job client: %v", err)
		}
	}
	if a.Embedder != nil {
		if err := a.Embedder.Close(); err != nil {
			logger.Warn("closing embedder: %v", err)
		}
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
