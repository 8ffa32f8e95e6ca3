// Package search runs keyword, semantic and hybrid queries over embedded
// chunks and merges their scores into one ranking.
package search

import (
	"strings"
	"time"
)

// Mode selects which signals a search uses.
type Mode string

const (
	ModeHybrid   Mode = "hybrid"
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
)

// ParseMode accepts the canonical names plus the fts and vector aliases.
// Anything else, including an empty string, is hybrid.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyword", "fts":
		return ModeKeyword
	case "semantic", "vector":
		return ModeSemantic
	default:
		return ModeHybrid
	}
}

// Request is one search call. Zero TopK and nil Alpha take the engine defaults.
type Request struct {
	Query  string
	TopK   int
	Alpha  *float64
	Mode   Mode
	UserID *string
	IP     string
}

// Scores are the per-signal scores of one result, each in [0, 1].
type Scores struct {
	Hybrid float64 `json:"hybrid"`
	FTS    float64 `json:"fts"`
	Vector float64 `json:"vector"`
}

type Result struct {
	ChunkID      string    `json:"chunkId"`
	DocumentID   string    `json:"documentId"`
	Text         string    `json:"text"`
	ChunkIndex   int       `json:"chunkIndex"`
	SectionTitle *string   `json:"sectionTitle"`
	Filename     string    `json:"filename"`
	ClientName   string    `json:"clientName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Scores       Scores    `json:"scores"`
}

// PathError reports a search signal that failed while the request still
// succeeded. Type is one of embedding, fts or vector.
type PathError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Response struct {
	Success        bool        `json:"success"`
	Query          string      `json:"query"`
	TopK           int         `json:"topK"`
	Alpha          float64     `json:"alpha"`
	SearchType     Mode        `json:"searchType"`
	ResultsCount   int         `json:"resultsCount"`
	ResponseTimeMs int64       `json:"responseTimeMs"`
	Results        []Result    `json:"results"`
	Errors         []PathError `json:"errors,omitempty"`
}
