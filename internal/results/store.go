package results

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/tictactoe/internal/game"
)

// Result is one decided session.
type Result struct {
	SessionID  string `json:"sessionId"`
	Outcome    string `json:"outcome"` // "win" | "tie"
	WinnerID   int64  `json:"winnerId,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	Label      string `json:"label"`
	Moves      int    `json:"moves"`
}

// FromSession derives a Result from a decided session.
// ok is false while the session is still in progress.
func FromSession(id string, s *game.Session) (r Result, ok bool) {
	switch s.Outcome() {
	case game.Win:
		w, _ := s.WinningPlayer()
		return Result{SessionID: id, Outcome: "win", WinnerID: w.ID, WinnerName: w.Name, Label: s.Winner, Moves: s.NumberOfMoves}, true
	case game.Tie:
		return Result{SessionID: id, Outcome: "tie", Label: s.Winner, Moves: s.NumberOfMoves}, true
	}
	return Result{}, false
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r once per session; a repeat is ignored and reports false.
func (s *Store) Record(ctx context.Context, r Result) (bool, error) {
	var winnerID, winnerName any
	if r.Outcome == "win" {
		winnerID, winnerName = r.WinnerID, r.WinnerName
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO results(session_id, outcome, winner_id, winner_name, label, moves)
VALUES(?,?,?,?,?,?)`, r.SessionID, r.Outcome, winnerID, winnerName, r.Label, r.Moves,
	)
	if err != nil {
		return false, fmt.Errorf("record result %s: %w", r.SessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnCommit records sessions as they become decided. It matches
// actor.CommitHook; failures are logged and never fail the move.
func (s *Store) OnCommit(ctx context.Context, id string, sess *game.Session) {
	r, ok := FromSession(id, sess)
	if !ok {
		return
	}
	if _, err := s.Record(ctx, r); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("record result")
		return
	}
	log.Info().Str("gameId", id).Str("outcome", r.Outcome).Str("label", r.Label).Msg("session decided")
}

// Get returns the recorded result for a session, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, sessionID string) (Result, error) {
	var (
		r          Result
		winnerID   sql.NullInt64
		winnerName sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, outcome, winner_id, winner_name, label, moves FROM results WHERE session_id=?`,
		sessionID,
	).Scan(&r.SessionID, &r.Outcome, &winnerID, &winnerName, &r.Label, &r.Moves)
	if err != nil {
		return Result{}, err
	}
	r.WinnerID, r.WinnerName = winnerID.Int64, winnerName.String
	return r, nil
}

type LBRow struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Leaderboard ranks display names by wins, then by earliest win.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner_name, COUNT(1) AS wins
FROM results
WHERE outcome='win'
GROUP BY winner_name
ORDER BY wins DESC, MIN(decided_at) ASC, winner_name ASC
LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Name, &r.Wins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Ties counts drawn sessions.
func (s *Store) Ties(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM results WHERE outcome='tie'`).Scan(&n)
	return n, err
}
