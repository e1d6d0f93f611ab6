package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ziadkadry99/docchat/internal/db"
)

// Ledger records which (path, content hash) pairs have been ingested into a
// collection, so unchanged files are not embedded again.
type Ledger struct {
	db *db.DB
}

// NewLedger creates a ledger over the ingested_files table.
func NewLedger(database *db.DB) *Ledger {
	return &Ledger{db: database}
}

// Seen reports whether this exact file content was already ingested.
func (l *Ledger) Seen(ctx context.Context, collection, path, contentHash string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM ingested_files WHERE collection = ? AND path = ? AND content_hash = ?`,
		collection, path, contentHash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking ledger: %w", err)
	}
	return true, nil
}

// Record marks a file as ingested.
func (l *Ledger) Record(ctx context.Context, collection, path, contentHash string, chunks int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ingested_files (collection, path, content_hash, chunk_count, ingested_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, path, content_hash) DO UPDATE SET
		   chunk_count = ingested_files.chunk_count + excluded.chunk_count,
		   ingested_at = excluded.ingested_at`,
		collection, path, contentHash, chunks, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", path, err)
	}
	return nil
}

// Files returns how many distinct paths have been ingested into a collection.
func (l *Ledger) Files(ctx context.Context, collection string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT path) FROM ingested_files WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return n, nil
}
