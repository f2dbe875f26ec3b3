// Package actor owns the authoritative state machine for each game session.
//
// Every session id maps to one mailbox goroutine; all operations for that id
// (joins, moves and reads) run there one at a time in arrival order, while
// different ids proceed in parallel. Each operation loads the committed state,
// validates and mutates it in memory, and commits before acknowledging, so a
// reader never observes a half-applied move.
//
// Business-rule violations are rejections (false, nil). Store failures are
// returned as errors and never folded into a rejection.
package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/tictactoe/internal/game"
	"github.com/robalobadob/tictactoe/internal/store"
)

// CommitHook observes every successful commit from inside the session's
// mailbox. It receives a private copy and must not block for long.
type CommitHook func(ctx context.Context, id string, s *game.Session)

// Host dispatches session operations to per-id mailboxes over a shared Store.
type Host struct {
	store store.Store
	reg   *registry
	hooks []CommitHook
}

// Option configures a Host.
type Option func(*Host)

// WithIdleTimeout sets how long an unused mailbox lives.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Host) { h.reg = newRegistry(d) }
}

// WithCommitHook registers fn to run after each successful commit.
func WithCommitHook(fn CommitHook) Option {
	return func(h *Host) { h.hooks = append(h.hooks, fn) }
}

// NewHost constructs a Host over st.
func NewHost(st store.Store, opts ...Option) *Host {
	h := &Host{store: st, reg: newRegistry(DefaultIdleTimeout)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Session returns a handle bound to one session id. Handles are cheap and
// carry no state of their own; any number may exist for the same id.
func (h *Host) Session(id string) *Session {
	return &Session{id: id, host: h}
}

// List enumerates committed session ids.
func (h *Host) List(ctx context.Context) ([]string, error) {
	ids, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// ActiveMailboxes reports how many sessions currently hold a live mailbox.
func (h *Host) ActiveMailboxes() int { return h.reg.active() }

// Session is the per-id handle exposing the game operations.
type Session struct {
	id   string
	host *Host
}

// ID returns the session id this handle is bound to.
func (s *Session) ID() string { return s.id }

// Join adds a player to the roster and commits.
func (s *Session) Join(ctx context.Context, playerID int64, name string) (bool, error) {
	ok, _, err := s.mutate(ctx, "join", func(st *game.Session) bool {
		return st.Join(playerID, name)
	})
	return ok, err
}

// Move places the caller's mark at (row, col) and commits.
func (s *Session) Move(ctx context.Context, playerID int64, row, col int) (bool, error) {
	ok, _, err := s.MoveState(ctx, playerID, row, col)
	return ok, err
}

// MoveState is Move that also returns the session as this call left it:
// after the commit when accepted, unchanged when rejected. The state is read
// in the same mailbox turn, so no other operation can interleave.
func (s *Session) MoveState(ctx context.Context, playerID int64, row, col int) (bool, *game.Session, error) {
	return s.mutate(ctx, "move", func(st *game.Session) bool {
		return st.Move(playerID, row, col)
	})
}

// GetBoard returns the current board; an unknown id yields the empty board.
func (s *Session) GetBoard(ctx context.Context) (game.Board, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return game.Board{}, err
	}
	return snap.Board, nil
}

// GetWinner returns the outcome label, "" while undecided.
func (s *Session) GetWinner(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.Winner, nil
}

// Snapshot returns a private copy of the full session state.
func (s *Session) Snapshot(ctx context.Context) (*game.Session, error) {
	var (
		out    *game.Session
		runErr error
	)
	err := s.host.reg.do(ctx, s.id, func() {
		out, runErr = s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return out, nil
}

// mutate runs read → validate/mutate → commit inside the mailbox and returns
// a private copy of the resulting state. Nothing is written when apply rejects.
// Hooks run detached from ctx: once the commit landed they must see it even if
// the caller has gone away.
func (s *Session) mutate(ctx context.Context, op string, apply func(*game.Session) bool) (bool, *game.Session, error) {
	var (
		accepted bool
		out      *game.Session
		runErr   error
	)
	err := s.host.reg.do(ctx, s.id, func() {
		st, err := s.load(ctx)
		if err != nil {
			runErr = err
			return
		}
		if !apply(st) {
			log.Debug().Str("gameId", s.id).Str("op", op).Msg("rejected")
			out = st
			return
		}
		if err := s.host.store.Commit(ctx, s.id, st); err != nil {
			runErr = fmt.Errorf("%s %s: commit: %w", op, s.id, err)
			return
		}
		accepted, out = true, st
		hookCtx := context.WithoutCancel(ctx)
		for _, hook := range s.host.hooks {
			hook(hookCtx, s.id, st.Clone())
		}
	})
	if err != nil {
		return false, nil, err
	}
	if runErr != nil {
		return false, nil, runErr
	}
	return accepted, out, nil
}

// load is the activation path: a never-committed id starts from game.New().
// Must be called from inside the session's mailbox.
func (s *Session) load(ctx context.Context) (*game.Session, error) {
	st, err := s.host.store.Load(ctx, s.id)
	if errors.Is(err, store.ErrNotFound) {
		return game.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.id, err)
	}
	return st, nil
}
