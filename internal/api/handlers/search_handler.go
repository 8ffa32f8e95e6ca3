package handlers

import (
	"context"
	"net"
	"net/http"

	middleware "github.com/markdave123-py/rfpsearch/internal/api/middlewares"
	"github.com/markdave123-py/rfpsearch/internal/core/search"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

type StatsReader interface {
	Stats(ctx context.Context) (*models.ChunkStats, error)
}

type SearchHandler struct {
	engine Searcher
	stats  StatsReader
}

func NewSearchHandler(engine Searcher, stats StatsReader) *SearchHandler {
	return &SearchHandler{engine: engine, stats: stats}
}

// Search handles GET /search?q=...&topK=10&alpha=0.6&type=hybrid.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topK, err := search.ParseTopK(firstParam(q.Get("topK"), q.Get("topk"), q.Get("limit")))
	if err != nil {
		writeServiceError(w, err, "Search failed")
		return
	}
	alpha, err := search.ParseAlpha(q.Get("alpha"))
	if err != nil {
		writeServiceError(w, err, "Search failed")
		return
	}

	req := search.Request{
		Query: q.Get("q"),
		TopK:  topK,
		Alpha: alpha,
		Mode:  search.ParseMode(q.Get("type")),
		IP:    clientIP(r),
	}
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		req.UserID = &id
	}

	resp, err := h.engine.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /search/stats.
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve search statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "chunks": stats})
}

func firstParam(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// rewritten when the request came through a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
