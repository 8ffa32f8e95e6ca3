package search

import (
	"math"
	"sort"

	"github.com/markdave123-py/rfpsearch/internal/models"
)

// Merge combines keyword and vector hits into one ranking.
//
// Keyword hits are inserted first with their fts score. A vector hit for a
// chunk already present only sets its vector score; other vector hits are
// appended. hybrid = alpha*vector + (1-alpha)*fts. The sort is stable, so
// ties keep insertion order (keyword first). At most topK results are kept.
func Merge(keyword, vector []models.SearchHit, alpha float64, topK int) []Result {
	index := make(map[string]int, len(keyword)+len(vector))
	merged := make([]Result, 0, len(keyword)+len(vector))

	for _, h := range keyword {
		if _, ok := index[h.ChunkID]; ok {
			continue
		}
		index[h.ChunkID] = len(merged)
		r := fromHit(h)
		r.Scores.FTS = clampScore(h.Score)
		merged = append(merged, r)
	}
	for _, h := range vector {
		if i, ok := index[h.ChunkID]; ok {
			merged[i].Scores.Vector = clampScore(h.Score)
			continue
		}
		index[h.ChunkID] = len(merged)
		r := fromHit(h)
		r.Scores.Vector = clampScore(h.Score)
		merged = append(merged, r)
	}

	for i := range merged {
		s := &merged[i].Scores
		s.Hybrid = alpha*s.Vector + (1-alpha)*s.FTS
	}
	return rank(merged, topK)
}

// keywordOnly ranks keyword hits alone; the hybrid score is the fts score.
func keywordOnly(hits []models.SearchHit, topK int) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		r := fromHit(h)
		r.Scores.FTS = clampScore(h.Score)
		r.Scores.Hybrid = r.Scores.FTS
		out = append(out, r)
	}
	return rank(out, topK)
}

// vectorOnly ranks vector hits alone; the hybrid score is the vector score.
func vectorOnly(hits []models.SearchHit, topK int) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		r := fromHit(h)
		r.Scores.Vector = clampScore(h.Score)
		r.Scores.Hybrid = r.Scores.Vector
		out = append(out, r)
	}
	return rank(out, topK)
}

func rank(results []Result, topK int) []Result {
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Scores.Hybrid > results[b].Scores.Hybrid
	})
	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func fromHit(h models.SearchHit) Result {
	return Result{
		ChunkID:      h.ChunkID,
		DocumentID:   h.DocumentID,
		Text:         h.Text,
		ChunkIndex:   h.ChunkIndex,
		SectionTitle: h.SectionTitle,
		Filename:     h.Filename,
		ClientName:   h.ClientName,
		UploadedAt:   h.UploadedAt,
	}
}

// clampScore maps a raw score into [0, 1]; NaN becomes 0.
func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
