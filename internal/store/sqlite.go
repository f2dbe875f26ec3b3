// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Each session is one row in the sessions table holding the JSON blob.
// The schema lives in assets/sql and is applied by sqlitedb.Migrate.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/tictactoe/internal/game"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already migrated handle. The caller owns db;
// Close on the returned store does not close it.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Load(ctx context.Context, id string) (*game.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id=?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return decode([]byte(blob))
}

// Commit upserts inside a transaction so the row flips atomically.
func (s *sqliteStore) Commit(ctx context.Context, id string, sess *game.Session) error {
	if err := checkID(id); err != nil {
		return err
	}
	b, err := encode(sess)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		id, string(b), now,
	); err != nil {
		return fmt.Errorf("upsert session %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", id, err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return nil }
