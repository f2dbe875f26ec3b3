package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/tictactoe/assets"
	"github.com/robalobadob/tictactoe/internal/game"
	"github.com/robalobadob/tictactoe/internal/sqlitedb"
)

// engine opens a store; reopen returns a fresh handle over the same data
// (nil for engines without durability).
type engine struct {
	name string
	open func(t *testing.T) (st Store, reopen func() Store)
}

func engines() []engine {
	return []engine{
		{"memory", func(t *testing.T) (Store, func() Store) {
			return NewMemoryStore(), nil
		}},
		{"sqlite", func(t *testing.T) (Store, func() Store) {
			path := filepath.Join(t.TempDir(), "sessions.db")
			openOnce := func() Store {
				db, err := sqlitedb.Open(path)
				require.NoError(t, err)
				require.NoError(t, sqlitedb.Migrate(db, assets.Migrations()))
				t.Cleanup(func() { _ = db.Close() })
				return NewSQLiteStore(db)
			}
			return openOnce(), openOnce
		}},
		{"bolt", func(t *testing.T) (Store, func() Store) {
			path := filepath.Join(t.TempDir(), "sessions.bolt")
			openOnce := func() Store {
				st, err := OpenBolt(path)
				require.NoError(t, err)
				t.Cleanup(func() { _ = st.Close() })
				return st
			}
			return openOnce(), openOnce
		}},
	}
}

func sampleSession(t *testing.T) *game.Session {
	t.Helper()
	s := game.New()
	require.True(t, s.Join(10, "alice"))
	require.True(t, s.Join(20, "bob"))
	require.True(t, s.Move(10, 0, 0))
	require.True(t, s.Move(20, 1, 1))
	return s
}

func TestStore_LoadUnknown(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			st, _ := e.open(t)
			_, err := st.Load(context.Background(), "missing")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestStore_CommitLoadRoundTrip(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := e.open(t)
			want := sampleSession(t)

			require.NoError(t, st.Commit(ctx, "g1", want))
			got, err := st.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_CommitIsIdempotentUpsert(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := e.open(t)
			s := sampleSession(t)

			require.NoError(t, st.Commit(ctx, "g1", s))
			require.NoError(t, st.Commit(ctx, "g1", s))
			require.True(t, s.Move(10, 2, 2))
			require.NoError(t, st.Commit(ctx, "g1", s))

			got, err := st.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, 3, got.NumberOfMoves)

			ids, err := st.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"g1"}, ids)
		})
	}
}

func TestStore_ValuesAreIsolated(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := e.open(t)
			s := sampleSession(t)
			require.NoError(t, st.Commit(ctx, "g1", s))

			// Mutating after commit or after load must not leak into the store.
			s.Players[0].Name = "mallory"
			loaded, err := st.Load(ctx, "g1")
			require.NoError(t, err)
			loaded.Board[4] = game.Empty

			again, err := st.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, "alice", again.Players[0].Name)
			assert.Equal(t, game.MarkO, again.Board[4])
		})
	}
}

func TestStore_ListSorted(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := e.open(t)

			ids, err := st.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			for _, id := range []string{"c", "a", "b"} {
				require.NoError(t, st.Commit(ctx, id, game.New()))
			}
			ids, err = st.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, ids)
		})
	}
}

func TestStore_RejectsBadInput(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := e.open(t)
			assert.ErrorIs(t, st.Commit(ctx, "", game.New()), ErrInvalidID)
			assert.Error(t, st.Commit(ctx, "g1", nil))
			_, err := st.Load(ctx, " ")
			assert.ErrorIs(t, err, ErrInvalidID)
			assert.False(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			ctx := context.Background()
			st, reopen := e.open(t)
			if reopen == nil {
				t.Skip("engine is not durable")
			}
			want := sampleSession(t)
			require.NoError(t, st.Commit(ctx, "g1", want))
			require.NoError(t, st.Close())

			// Bolt holds an exclusive file lock, so the first handle must be closed.
			got, err := reopen().Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			st, _ := e.open(t)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.Error(t, st.Commit(ctx, "g1", game.New()))
		})
	}
}
