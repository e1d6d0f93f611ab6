package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/docchat/internal/db"
)

// SQLStore persists history in the chat_sessions and chat_turns tables.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a store backed by an open database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Append records a turn, creating the session row on first use.
func (s *SQLStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_turns (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, turn.Question, turn.Answer, now,
	)
	if err != nil {
		return fmt.Errorf("adding turn: %w", err)
	}
	return tx.Commit()
}

// Snapshot returns all turns for a session, oldest first.
func (s *SQLStore) Snapshot(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer FROM chat_turns WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Question, &t.Answer); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Clear deletes the session row and its turns in one transaction.
func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Sessions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM chat_turns`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// Close is a no-op; the database is owned by the caller.
func (s *SQLStore) Close() error { return nil }
