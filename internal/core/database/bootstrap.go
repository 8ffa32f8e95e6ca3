package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/logger"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

const schemaVersion = 1

// bootstrapLockKey serializes concurrent bootstraps from the api and worker processes.
const bootstrapLockKey = 727153001

// EnsureBootstrapped creates the schema unless rfp_meta already records the
// current version. The vector column is sized to embedDim.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, embedDim int) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'rfp_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}
	if !exists {
		return runBootstrap(ctxBoot, db, embedDim)
	}

	var hasVersion bool
	if err := db.QueryRowContext(ctxBoot, `SELECT EXISTS (SELECT 1 FROM rfp_meta WHERE version = $1)`, schemaVersion).Scan(&hasVersion); err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if !hasVersion {
		return runBootstrap(ctxBoot, db, embedDim)
	}

	logger.Debug("database schema v%d already present", schemaVersion)
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB, embedDim int) error {
	stmts, err := bootstrapStatements(embedDim)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec bootstrap: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	logger.Info("database schema v%d created (embedding dim %d)", schemaVersion, embedDim)
	return nil
}

// bootstrapStatements takes the transaction-scoped advisory lock before the
// schema script, so a second process waits and then finds the tables present.
func bootstrapStatements(embedDim int) ([]string, error) {
	script, err := bootstrapScript(embedDim)
	if err != nil {
		return nil, err
	}
	lock := fmt.Sprintf("SELECT pg_advisory_xact_lock(%d)", bootstrapLockKey)
	return []string{lock, script}, nil
}

func bootstrapScript(embedDim int) (string, error) {
	if embedDim <= 0 {
		return "", fmt.Errorf("invalid embedding dimension %d", embedDim)
	}
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return "", fmt.Errorf("read initdb.sql: %w", err)
	}
	return strings.ReplaceAll(string(sqlBytes), "{{EMBED_DIM}}", strconv.Itoa(embedDim)), nil
}
