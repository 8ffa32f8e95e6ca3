package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

const (
	DefaultAlpha   = 0.6
	DefaultTopK    = 10
	DefaultMaxTopK = 100

	logWriteTimeout = 5 * time.Second
)

// QueryEmbedder turns a search query into a vector.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine answers search requests against the chunk store.
type Engine struct {
	store    core.SearchStore
	embedder QueryEmbedder

	alpha       float64
	defaultTopK int
	maxTopK     int
	logging     bool

	logs sync.WaitGroup
	now  func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDefaultAlpha sets the vector weight used when a request has none.
func WithDefaultAlpha(alpha float64) EngineOption {
	return func(e *Engine) {
		if ValidateAlpha(alpha) == nil {
			e.alpha = alpha
		}
	}
}

// WithTopK sets the default and maximum result counts.
func WithTopK(def, maxTopK int) EngineOption {
	return func(e *Engine) {
		if def > 0 && def <= maxTopK {
			e.defaultTopK = def
			e.maxTopK = maxTopK
		}
	}
}

// WithSearchLogging turns search log writes on or off.
func WithSearchLogging(enabled bool) EngineOption {
	return func(e *Engine) {
		e.logging = enabled
	}
}

// NewEngine creates a search engine. embedder may be nil, in which case
// semantic search fails and hybrid search runs keyword-only.
func NewEngine(store core.SearchStore, embedder QueryEmbedder, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       store,
		embedder:    embedder,
		alpha:       DefaultAlpha,
		defaultTopK: DefaultTopK,
		maxTopK:     DefaultMaxTopK,
		logging:     true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search validates the request, runs the selected mode and records a search log.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := e.now()

	query, err := ValidateQuery(req.Query)
	if err != nil {
		return nil, err
	}
	topK := req.TopK
	if topK == 0 {
		topK = e.defaultTopK
	}
	if err := ValidateTopK(topK, e.maxTopK); err != nil {
		return nil, err
	}
	alpha := e.alpha
	if req.Alpha != nil {
		if err := ValidateAlpha(*req.Alpha); err != nil {
			return nil, err
		}
		alpha = *req.Alpha
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}

	logger.Debug("search: query=%q mode=%s topK=%d alpha=%.2f", query, mode, topK, alpha)

	var (
		results  []Result
		resolved = mode
		pathErrs []PathError
	)
	switch mode {
	case ModeKeyword:
		hits, err := e.store.SearchByKeyword(ctx, query, topK)
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		results = keywordOnly(hits, topK)
	case ModeSemantic:
		hits, errType, err := e.semantic(ctx, query, topK)
		if err != nil {
			return nil, fmt.Errorf("%s search: %w", errType, err)
		}
		results = vectorOnly(hits, topK)
	default:
		results, resolved, pathErrs, err = e.hybrid(ctx, query, topK, alpha)
		if err != nil {
			return nil, err
		}
	}

	for i := range results {
		s := &results[i].Scores
		s.Hybrid, s.FTS, s.Vector = round4(s.Hybrid), round4(s.FTS), round4(s.Vector)
	}
	if results == nil {
		results = []Result{}
	}
	elapsed := e.now().Sub(start).Milliseconds()

	resp := &Response{
		Success:        true,
		Query:          query,
		TopK:           topK,
		Alpha:          alpha,
		SearchType:     resolved,
		ResultsCount:   len(results),
		ResponseTimeMs: elapsed,
		Results:        results,
		Errors:         pathErrs,
	}

	e.record(models.SearchLog{
		UserID:         req.UserID,
		QueryText:      query,
		SearchType:     string(resolved),
		Filters:        map[string]any{"topK": topK, "alpha": alpha},
		ResultsCount:   len(results),
		ResponseTimeMs: elapsed,
		IPAddress:      req.IP,
		CreatedAt:      e.now(),
	})

	logger.Debug("search: %d results in %dms (type=%s)", len(results), elapsed, resolved)
	return resp, nil
}

// semantic embeds the query and runs the vector search. The returned type
// names the step that failed.
func (e *Engine) semantic(ctx context.Context, query string, limit int) ([]models.SearchHit, string, error) {
	if e.embedder == nil {
		return nil, "embedding", core.ErrEmbeddingUnavailable
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, "embedding", err
	}
	hits, err := e.store.SearchByVector(ctx, vec, limit)
	if err != nil {
		return nil, "vector", err
	}
	return hits, "", nil
}

// hybrid runs both paths concurrently, each over 2*topK candidates, and
// degrades to the surviving path when one fails.
func (e *Engine) hybrid(ctx context.Context, query string, topK int, alpha float64) ([]Result, Mode, []PathError, error) {
	limit := 2 * topK

	var (
		wg               sync.WaitGroup
		ftsHits, vecHits []models.SearchHit
		ftsErr, vecErr   error
		vecErrType       string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ftsHits, ftsErr = e.store.SearchByKeyword(ctx, query, limit)
	}()
	go func() {
		defer wg.Done()
		vecHits, vecErrType, vecErr = e.semantic(ctx, query, limit)
	}()
	wg.Wait()

	switch {
	case ftsErr != nil && vecErr != nil:
		logger.Error("search: keyword failed: %v; %s failed: %v", ftsErr, vecErrType, vecErr)
		return nil, "", nil, fmt.Errorf("%w: keyword: %v; %s: %v", core.ErrBothSearchPathsFailed, ftsErr, vecErrType, vecErr)
	case vecErr != nil:
		logger.Warn("search: %s failed, falling back to keyword: %v", vecErrType, vecErr)
		errs := []PathError{{Type: vecErrType, Message: vecErr.Error()}}
		return keywordOnly(ftsHits, topK), ModeKeyword, errs, nil
	case ftsErr != nil:
		logger.Warn("search: keyword failed, falling back to semantic: %v", ftsErr)
		errs := []PathError{{Type: "fts", Message: ftsErr.Error()}}
		return vectorOnly(vecHits, topK), ModeSemantic, errs, nil
	}

	logger.Debug("search: merging %d keyword and %d vector hits", len(ftsHits), len(vecHits))
	return Merge(ftsHits, vecHits, alpha, topK), ModeHybrid, nil, nil
}

// record writes the search log in the background. Failures are only logged.
func (e *Engine) record(entry models.SearchLog) {
	if !e.logging {
		return
	}
	e.logs.Add(1)
	go func() {
		defer e.logs.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("search: log write panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
		defer cancel()
		if err := e.store.InsertSearchLog(ctx, &entry); err != nil {
			logger.Warn("search: failed to write search log: %v", err)
		}
	}()
}

// Wait blocks until pending search log writes finish.
func (e *Engine) Wait() {
	e.logs.Wait()
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, core.ErrInvalidInput)
}
