package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

const uniqueViolation = "23505"

// Implementing the db interface for Document

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, filename, path, uploaded_by, client_name, size, mime_type, status, uploaded_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.Filename, doc.Path, doc.UploadedBy, doc.ClientName, doc.Size, doc.MimeType, doc.Status, doc.UploadedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s for client %s", core.ErrDuplicate, doc.Filename, doc.ClientName)
	}
	return err
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT id, filename, path, uploaded_by, client_name, size, mime_type, status, uploaded_at
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Filename, &d.Path, &d.UploadedBy, &d.ClientName, &d.Size, &d.MimeType, &d.Status, &d.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) DocumentExists(ctx context.Context, filename, clientName string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM documents
			WHERE filename = $1 AND client_name = $2 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := c.db.QueryRowContext(ctx, q, filename, clientName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	return nil
}

// Implementing the db interface for Chunks

// ReplaceDocumentChunks swaps the document's chunks in a single transaction.
func (c *DatabaseClient) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete old chunks: %w", err)
	}

	const q = `
		INSERT INTO chunks
			(id, document_id, chunk_index, text, token_count, char_start, char_end,
			 section_title, metadata, embedding_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			ch.ID, documentID, ch.ChunkIndex, ch.Text, ch.TokenCount, ch.CharStart, ch.CharEnd,
			ch.SectionTitle, meta,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %d: %w", ch.ChunkIndex, err)
		}
	}
	return tx.Commit()
}

// Claimable rows are pending and either unclaimed, claimed by the same
// batch, or claimed longer ago than the lease.
const claimReturning = `
	RETURNING id, document_id, chunk_index, text, token_count, section_title
)
SELECT id, document_id, chunk_index, text, token_count, section_title
FROM claimed
ORDER BY document_id, chunk_index
`

func (c *DatabaseClient) ClaimPendingChunks(ctx context.Context, ids []string, batchID string, lease time.Duration) ([]models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `
	WITH claimed AS (
		UPDATE chunks
		SET embedding_batch_id = $2, embedding_claimed_at = now()
		WHERE id = ANY($1::uuid[])
		  AND embedding_status = 'pending'
		  AND (embedding_claimed_at IS NULL
		       OR embedding_claimed_at < now() - make_interval(secs => $3)
		       OR embedding_batch_id = $2)
	` + claimReturning
	return c.queryClaimed(ctx, q, ids, batchID, lease.Seconds())
}

func (c *DatabaseClient) ClaimPendingChunksByDocument(ctx context.Context, documentID, batchID string, lease time.Duration) ([]models.Chunk, error) {
	const q = `
	WITH claimed AS (
		UPDATE chunks
		SET embedding_batch_id = $2, embedding_claimed_at = now()
		WHERE document_id = $1
		  AND embedding_status = 'pending'
		  AND (embedding_claimed_at IS NULL
		       OR embedding_claimed_at < now() - make_interval(secs => $3)
		       OR embedding_batch_id = $2)
	` + claimReturning
	return c.queryClaimed(ctx, q, documentID, batchID, lease.Seconds())
}

func (c *DatabaseClient) queryClaimed(ctx context.Context, q string, args ...any) ([]models.Chunk, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		ch := models.Chunk{EmbeddingStatus: models.EmbeddingPending}
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.ChunkIndex, &ch.Text, &ch.TokenCount, &ch.SectionTitle); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpdateEmbeddingsBatch writes every outcome of one embedding run in a
// single transaction.
func (c *DatabaseClient) UpdateEmbeddingsBatch(ctx context.Context, batchID string, updates []models.EmbeddingUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}

	const completed = `
		UPDATE chunks
		SET embedding = $2, embedding_status = 'completed', embed_model = $3, embed_version = $4,
		    embedding_generated_at = now(), embedding_error = NULL, embedding_claimed_at = NULL
		WHERE id = $1 AND embedding_batch_id = $5 AND embedding_status = 'pending'
	`
	const failed = `
		UPDATE chunks
		SET embedding_status = 'failed', embedding_error = $2, embed_model = $3, embed_version = $4,
		    embedding_claimed_at = NULL
		WHERE id = $1 AND embedding_batch_id = $5 AND embedding_status = 'pending'
	`
	okStmt, err := tx.PrepareContext(ctx, completed)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer okStmt.Close()
	failStmt, err := tx.PrepareContext(ctx, failed)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer failStmt.Close()

	var written int64
	for _, u := range updates {
		var res sql.Result
		if u.Error != "" || u.Embedding == nil {
			msg := u.Error
			if msg == "" {
				msg = "unknown embedding generation error"
			}
			res, err = failStmt.ExecContext(ctx, u.ChunkID, msg, u.Model, u.Version, batchID)
		} else {
			res, err = okStmt.ExecContext(ctx, u.ChunkID, pgvector.NewVector(u.Embedding), u.Model, u.Version, batchID)
		}
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("update chunk %s: %w", u.ChunkID, err)
		}
		n, _ := res.RowsAffected()
		written += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

func (c *DatabaseClient) ListPendingChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	const q = `
		SELECT id
		FROM chunks
		WHERE embedding_status = 'pending' AND ($1 = '' OR document_id::text = $1)
		ORDER BY created_at ASC, chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ResetFailedChunks puts failed chunks back to pending so they can be reprocessed.
func (c *DatabaseClient) ResetFailedChunks(ctx context.Context, documentID string) (int64, error) {
	const q = `
		UPDATE chunks
		SET embedding_status = 'pending', embedding = NULL, embedding_error = NULL,
		    embedding_batch_id = NULL, embedding_claimed_at = NULL, embedding_generated_at = NULL
		WHERE embedding_status = 'failed' AND ($1 = '' OR document_id::text = $1)
	`
	res, err := c.db.ExecContext(ctx, q, documentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) ChunkStatistics(ctx context.Context) (*models.ChunkStats, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE embedding_status = 'completed'),
		       count(*) FILTER (WHERE embedding_status = 'pending'),
		       count(*) FILTER (WHERE embedding_status = 'failed')
		FROM chunks
	`
	var s models.ChunkStats
	if err := c.db.QueryRowContext(ctx, q).Scan(&s.Total, &s.Completed, &s.Pending, &s.Failed); err != nil {
		return nil, err
	}
	return &s, nil
}
