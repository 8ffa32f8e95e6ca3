package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

type fakeStore struct {
	keywordHits []models.SearchHit
	keywordErr  error
	vectorHits  []models.SearchHit
	vectorErr   error
	logErr      error
	logPanic    bool

	mu           sync.Mutex
	keywordLimit int
	vectorLimit  int
	keywordCalls int
	vectorCalls  int
	logs         []models.SearchLog
}

func (f *fakeStore) SearchByKeyword(_ context.Context, _ string, limit int) ([]models.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywordCalls++
	f.keywordLimit = limit
	return f.keywordHits, f.keywordErr
}

func (f *fakeStore) SearchByVector(_ context.Context, _ []float32, limit int) ([]models.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectorCalls++
	f.vectorLimit = limit
	return f.vectorHits, f.vectorErr
}

func (f *fakeStore) InsertSearchLog(_ context.Context, entry *models.SearchLog) error {
	if f.logPanic {
		panic("log table gone")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *entry)
	return f.logErr
}

type fakeEmbedder struct {
	err   error
	calls atomic.Int32
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func overlappingStore() *fakeStore {
	return &fakeStore{
		keywordHits: []models.SearchHit{
			hit("c1", 0.9), hit("c2", 0.7), hit("c3", 0.5),
			hit("c4", 0.3), hit("c5", 0.2), hit("c6", 0.1),
		},
		vectorHits: []models.SearchHit{
			hit("c2", 0.95), hit("c4", 0.85), hit("c7", 0.8),
			hit("c8", 0.6), hit("c1", 0.4), hit("c9", 0.3),
		},
	}
}

func alphaPtr(a float64) *float64 { return &a }

func TestEngine_HybridSecurityCompliance(t *testing.T) {
	store := overlappingStore()
	e := NewEngine(store, &fakeEmbedder{})
	user := "user-1"

	resp, err := e.Search(context.Background(), Request{
		Query:  "security compliance",
		TopK:   5,
		Alpha:  alphaPtr(0.6),
		Mode:   ModeHybrid,
		UserID: &user,
		IP:     "10.0.0.1",
	})
	require.NoError(t, err)
	e.Wait()

	assert.True(t, resp.Success)
	assert.Equal(t, ModeHybrid, resp.SearchType)
	assert.Equal(t, 5, resp.TopK)
	assert.Empty(t, resp.Errors)
	require.LessOrEqual(t, len(resp.Results), 5)
	assert.Equal(t, len(resp.Results), resp.ResultsCount)
	assert.Equal(t, []string{"c2", "c4", "c1", "c7", "c8"}, ids(resp.Results))
	for i := 1; i < len(resp.Results); i++ {
		assert.Greater(t, resp.Results[i-1].Scores.Hybrid, resp.Results[i].Scores.Hybrid)
	}
	assert.Equal(t, 0.85, resp.Results[0].Scores.Hybrid)

	assert.Equal(t, 10, store.keywordLimit)
	assert.Equal(t, 10, store.vectorLimit)

	require.Len(t, store.logs, 1)
	logged := store.logs[0]
	assert.Equal(t, "security compliance", logged.QueryText)
	assert.Equal(t, "hybrid", logged.SearchType)
	assert.Equal(t, 5, logged.ResultsCount)
	assert.Equal(t, map[string]any{"topK": 5, "alpha": 0.6}, logged.Filters)
	assert.Equal(t, &user, logged.UserID)
	assert.Equal(t, "10.0.0.1", logged.IPAddress)
}

func TestEngine_Defaults(t *testing.T) {
	store := overlappingStore()
	e := NewEngine(store, &fakeEmbedder{}, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security"})
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, resp.TopK)
	assert.Equal(t, DefaultAlpha, resp.Alpha)
	assert.Equal(t, ModeHybrid, resp.SearchType)
	assert.Equal(t, 2*DefaultTopK, store.keywordLimit)
}

func TestEngine_ConfiguredDefaults(t *testing.T) {
	store := overlappingStore()
	e := NewEngine(store, &fakeEmbedder{}, WithDefaultAlpha(0.2), WithTopK(3, 20), WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TopK)
	assert.Equal(t, 0.2, resp.Alpha)
	assert.Len(t, resp.Results, 3)

	_, err = e.Search(context.Background(), Request{Query: "security", TopK: 21})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestEngine_Degradation(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name     string
		setup    func(*fakeStore, *fakeEmbedder)
		wantType Mode
		wantErr  string
		wantIDs  []string
	}{
		{
			name:     "embedding unavailable falls back to keyword",
			setup:    func(_ *fakeStore, emb *fakeEmbedder) { emb.err = core.ErrEmbeddingUnavailable },
			wantType: ModeKeyword,
			wantErr:  "embedding",
			wantIDs:  []string{"c1", "c2", "c3"},
		},
		{
			name:     "vector query failure falls back to keyword",
			setup:    func(s *fakeStore, _ *fakeEmbedder) { s.vectorErr = boom },
			wantType: ModeKeyword,
			wantErr:  "vector",
			wantIDs:  []string{"c1", "c2", "c3"},
		},
		{
			name:     "keyword failure falls back to semantic",
			setup:    func(s *fakeStore, _ *fakeEmbedder) { s.keywordErr = boom },
			wantType: ModeSemantic,
			wantErr:  "fts",
			wantIDs:  []string{"c2", "c4", "c7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := overlappingStore()
			emb := &fakeEmbedder{}
			tt.setup(store, emb)
			e := NewEngine(store, emb)

			resp, err := e.Search(context.Background(), Request{Query: "security compliance", TopK: 3})
			require.NoError(t, err)
			e.Wait()

			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantType, resp.SearchType)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.wantErr, resp.Errors[0].Type)
			assert.NotEmpty(t, resp.Errors[0].Message)
			assert.Equal(t, tt.wantIDs, ids(resp.Results))
			for _, r := range resp.Results {
				assert.Equal(t, r.Scores.Hybrid, r.Scores.FTS+r.Scores.Vector)
			}

			require.Len(t, store.logs, 1)
			assert.Equal(t, string(tt.wantType), store.logs[0].SearchType)
		})
	}
}

func TestEngine_BothPathsFail(t *testing.T) {
	store := &fakeStore{keywordErr: errors.New("fts down"), vectorErr: errors.New("ann down")}
	e := NewEngine(store, &fakeEmbedder{})

	resp, err := e.Search(context.Background(), Request{Query: "security"})
	e.Wait()

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, core.ErrBothSearchPathsFailed)
	assert.Contains(t, err.Error(), "fts down")
	assert.Contains(t, err.Error(), "ann down")
	assert.Empty(t, store.logs)
}

func TestEngine_NilEmbedderRunsKeywordOnly(t *testing.T) {
	e := NewEngine(overlappingStore(), nil, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security"})
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, resp.SearchType)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "embedding", resp.Errors[0].Type)
}

func TestEngine_KeywordMode(t *testing.T) {
	store := overlappingStore()
	emb := &fakeEmbedder{}
	e := NewEngine(store, emb, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security", TopK: 2, Mode: ModeKeyword})
	require.NoError(t, err)

	assert.Equal(t, ModeKeyword, resp.SearchType)
	assert.Equal(t, []string{"c1", "c2"}, ids(resp.Results))
	assert.Equal(t, 2, store.keywordLimit)
	assert.Zero(t, store.vectorCalls)
	assert.Zero(t, emb.calls.Load())
}

func TestEngine_SemanticMode(t *testing.T) {
	store := overlappingStore()
	e := NewEngine(store, &fakeEmbedder{}, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security", TopK: 2, Mode: ModeSemantic})
	require.NoError(t, err)
	assert.Equal(t, ModeSemantic, resp.SearchType)
	assert.Equal(t, []string{"c2", "c4"}, ids(resp.Results))
	assert.Zero(t, store.keywordCalls)

	failing := NewEngine(store, &fakeEmbedder{err: core.ErrEmbeddingUnavailable}, WithSearchLogging(false))
	_, err = failing.Search(context.Background(), Request{Query: "security", Mode: ModeSemantic})
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
}

func TestEngine_KeywordModeError(t *testing.T) {
	store := &fakeStore{keywordErr: errors.New("fts down")}
	e := NewEngine(store, nil, WithSearchLogging(false))

	_, err := e.Search(context.Background(), Request{Query: "security", Mode: ModeKeyword})
	require.Error(t, err)
	assert.False(t, IsClientError(err))
}

func TestEngine_ValidationRejectedBeforeSearch(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty query", Request{Query: " "}},
		{"short query", Request{Query: "a"}},
		{"sql token", Request{Query: "x; drop"}},
		{"topK too large", Request{Query: "security", TopK: 101}},
		{"negative topK", Request{Query: "security", TopK: -1}},
		{"alpha out of range", Request{Query: "security", Alpha: alphaPtr(1.5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := overlappingStore()
			emb := &fakeEmbedder{}
			e := NewEngine(store, emb)

			_, err := e.Search(context.Background(), tt.req)
			e.Wait()

			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.True(t, IsClientError(err))
			assert.Zero(t, store.keywordCalls)
			assert.Zero(t, store.vectorCalls)
			assert.Zero(t, emb.calls.Load())
			assert.Empty(t, store.logs)
		})
	}
}

func TestEngine_LogFailureDoesNotFailSearch(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"insert error", func() *fakeStore { s := overlappingStore(); s.logErr = errors.New("disk full"); return s }()},
		{"insert panic", func() *fakeStore { s := overlappingStore(); s.logPanic = true; return s }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.store, &fakeEmbedder{})
			resp, err := e.Search(context.Background(), Request{Query: "security"})
			e.Wait()

			require.NoError(t, err)
			assert.True(t, resp.Success)
		})
	}
}

func TestEngine_EmptyResultsAreNotNil(t *testing.T) {
	e := NewEngine(&fakeStore{}, &fakeEmbedder{}, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Zero(t, resp.ResultsCount)
}

func TestEngine_ScoresRounded(t *testing.T) {
	store := &fakeStore{keywordHits: []models.SearchHit{hit("a", 0.123456)}}
	e := NewEngine(store, nil, WithSearchLogging(false))

	resp, err := e.Search(context.Background(), Request{Query: "security", Mode: ModeKeyword})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0.1235, resp.Results[0].Scores.FTS)
	assert.Equal(t, 0.1235, resp.Results[0].Scores.Hybrid)
}
