// internal/store/store.go
//
// Durable Store contract for tic-tac-toe sessions.
// Every engine persists the same JSON blob per session id, so switching
// backends never changes the persisted layout.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/tictactoe/internal/game"
)

// ErrNotFound is returned by Load for an id that was never committed.
var ErrNotFound = errors.New("session not found")

// ErrInvalidID is returned for a blank session id. It is caller input,
// not a storage fault.
var ErrInvalidID = errors.New("session id is required")

// Store defines the persistence interface for game sessions.
// Implementations may be backed by memory, SQLite, BoltDB, etc.
type Store interface {
	// Load returns the latest committed state for id, or ErrNotFound.
	// The returned session is a private copy.
	Load(ctx context.Context, id string) (*game.Session, error)

	// Commit atomically replaces the state for id (upsert).
	Commit(ctx context.Context, id string, s *game.Session) error

	// List returns every committed session id in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the underlying engine.
	Close() error
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return nil
}

func encode(s *game.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is required")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*game.Session, error) {
	s := game.New()
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.Players == nil {
		s.Players = []game.Player{}
	}
	return s, nil
}
