package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/rfpsearch/internal/models"
)

// SearchByKeyword ranks completed chunks with ts_rank_cd. Normalization 32
// maps the rank into [0, 1).
func (c *DatabaseClient) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	const q = `
		SELECT c.id, c.document_id, c.text, c.chunk_index, c.section_title,
		       d.filename, d.client_name, d.uploaded_at,
		       ts_rank_cd(c.text_search, tsq, 32) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id,
		     plainto_tsquery('english', $1) tsq
		WHERE c.text_search @@ tsq
		  AND c.embedding_status = 'completed'
		  AND d.deleted_at IS NULL
		ORDER BY score DESC, c.document_id, c.chunk_index
		LIMIT $2
	`
	return c.querySearch(ctx, q, query, limit)
}

// SearchByVector returns the nearest completed chunks by cosine distance,
// scored as 1 - distance.
func (c *DatabaseClient) SearchByVector(ctx context.Context, embedding []float32, limit int) ([]models.SearchHit, error) {
	const q = `
		SELECT c.id, c.document_id, c.text, c.chunk_index, c.section_title,
		       d.filename, d.client_name, d.uploaded_at,
		       1 - (c.embedding <=> $1) AS score
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding_status = 'completed'
		  AND d.deleted_at IS NULL
		ORDER BY c.embedding <=> $1
		LIMIT $2
	`
	return c.querySearch(ctx, q, pgvector.NewVector(embedding), limit)
}

func (c *DatabaseClient) querySearch(ctx context.Context, q string, args ...any) ([]models.SearchHit, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(
			&h.ChunkID, &h.DocumentID, &h.Text, &h.ChunkIndex, &h.SectionTitle,
			&h.Filename, &h.ClientName, &h.UploadedAt, &h.Score,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) InsertSearchLog(ctx context.Context, entry *models.SearchLog) error {
	filters, err := json.Marshal(entry.Filters)
	if err != nil {
		return fmt.Errorf("marshal search filters: %w", err)
	}
	const q = `
		INSERT INTO search_logs
			(user_id, query_text, search_type, filters, results_count, response_time_ms, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	var createdAt any
	if !entry.CreatedAt.IsZero() {
		createdAt = entry.CreatedAt
	}
	_, err = c.db.ExecContext(ctx, q,
		entry.UserID, entry.QueryText, entry.SearchType, filters,
		entry.ResultsCount, entry.ResponseTimeMs, entry.IPAddress, createdAt)
	return err
}
