// Package embedding turns chunk and query text into fixed-size vectors,
// using a remote model when one is configured and a deterministic hash
// fallback otherwise.
package embedding

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

const (
	BackendModel    = "model"
	BackendFallback = "fallback"

	DefaultDimension   = 384
	DefaultBatchSize   = 32
	DefaultConcurrency = 2
	DefaultVersion     = "1.0.0"

	FallbackModelName = "sha256-fallback"
)

var _ core.Embedder = (*Service)(nil)

// Service is the process-wide embedding service. It is created once at
// startup, initialised with Init and passed to every caller.
type Service struct {
	mu    sync.RWMutex
	ready bool

	provider    core.EmbeddingProvider
	modelName   string
	version     string
	dim         int
	batchSize   int
	concurrency int
}

type Option func(*Service)

// WithProvider sets the model backend. Without one the hash fallback is used.
func WithProvider(p core.EmbeddingProvider, modelName string) Option {
	return func(s *Service) {
		s.provider = p
		s.modelName = modelName
	}
}

func WithDimension(d int) Option {
	return func(s *Service) {
		if d > 0 {
			s.dim = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of sub-batches in flight.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

func New(opts ...Option) *Service {
	s := &Service{
		version:     DefaultVersion,
		dim:         DefaultDimension,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.modelName = FallbackModelName
	}
	return s
}

// Init marks the service ready. It is safe to call more than once.
func (s *Service) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	s.ready = true

	info := s.infoLocked()
	logger.Info("embedding service ready: model=%s version=%s dim=%d backend=%s",
		info.Name, info.Version, info.Dimension, info.Backend)
	return nil
}

func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Close releases the model backend. Later calls fail with ErrEmbeddingUnavailable.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) Info() core.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

func (s *Service) infoLocked() core.ModelInfo {
	backend := BackendFallback
	if s.provider != nil {
		backend = BackendModel
	}
	return core.ModelInfo{
		Name:      s.modelName,
		Version:   s.version,
		Dimension: s.dim,
		Backend:   backend,
	}
}

// Embed returns the vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if !s.Ready() {
		return nil, core.ErrEmbeddingUnavailable
	}
	if s.provider == nil {
		return FallbackVector(text, s.dim), nil
	}

	vecs, err := s.provider.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed text: model returned %d vectors", len(vecs))
	}
	return s.checkDim(vecs[0])
}

// EmbedBatch embeds texts in sub-batches of batchSize (the configured size
// when batchSize <= 0), with bounded concurrency. The result has one entry
// per input, in input order. Failures are reported per item.
func (s *Service) EmbedBatch(ctx context.Context, texts []string, batchSize int) []core.EmbedResult {
	results := make([]core.EmbedResult, len(texts))
	for i, t := range texts {
		results[i].Text = t
	}
	if len(texts) == 0 {
		return results
	}

	if !s.Ready() {
		for i := range results {
			results[i].Err = core.ErrEmbeddingUnavailable
		}
		return results
	}

	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for start := 0; start < len(texts); start += batchSize {
		start := start
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			s.embedRange(ctx, texts[start:end], results[start:end])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Debug("embedded %d texts in batches of %d (%d failed)", len(texts), batchSize, failed)
	return results
}

// embedRange fills out for one sub-batch. When the model rejects the whole
// sub-batch each text is retried on its own so one bad input only fails itself.
func (s *Service) embedRange(ctx context.Context, texts []string, out []core.EmbedResult) {
	if s.provider == nil {
		for i, t := range texts {
			out[i].Embedding = FallbackVector(t, s.dim)
		}
		return
	}

	vecs, err := s.provider.EmbedTexts(ctx, texts)
	if err == nil && len(vecs) == len(texts) {
		for i, v := range vecs {
			out[i].Embedding, out[i].Err = s.checkDim(v)
		}
		return
	}
	if err == nil {
		err = fmt.Errorf("model returned %d vectors for %d texts", len(vecs), len(texts))
	}
	if len(texts) == 1 {
		out[0].Err = err
		return
	}

	logger.Warn("embedding sub-batch of %d failed, retrying one by one: %v", len(texts), err)
	for i, t := range texts {
		if ctx.Err() != nil {
			out[i].Err = ctx.Err()
			continue
		}
		vecs, err := s.provider.EmbedTexts(ctx, []string{t})
		switch {
		case err != nil:
			out[i].Err = err
		case len(vecs) != 1:
			out[i].Err = fmt.Errorf("model returned %d vectors", len(vecs))
		default:
			out[i].Embedding, out[i].Err = s.checkDim(vecs[0])
		}
	}
}

func (s *Service) checkDim(v []float32) ([]float32, error) {
	if len(v) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(v), s.dim)
	}
	return v, nil
}
