// internal/game/engine.go
//
// Core game engine for a single tic-tac-toe session.
// Responsibilities:
//   - Create empty sessions (no players, empty board, undecided).
//   - Validate and apply joins (capacity 2, unique display names).
//   - Validate and apply moves (bounds, roster, turn order, empty cell).
//   - Detect wins with the signed-sum check and ties on a full board.
//
// Notes:
//   - The engine never does I/O; the actor package loads, mutates and commits.
//   - Illegal input is a rejection (false), never an error.
//   - A player's mark is fixed by join order: index*2 - 1.
package game

import "fmt"

// lines lists the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// New constructs the default state of a never-seen session.
func New() *Session {
	return &Session{Players: []Player{}}
}

// Join appends a player to the roster.
// Rejected when the roster is full or the name is already taken.
// A repeated id under a new name is accepted as a separate player.
func (s *Session) Join(playerID int64, name string) bool {
	if len(s.Players) >= MaxPlayers {
		return false
	}
	for _, p := range s.Players {
		if p.Name == name {
			return false
		}
	}
	s.Players = append(s.Players, Player{ID: playerID, Name: name})
	return true
}

// Move places the caller's mark at (row, col).
//
// Validation rules:
//   - row and col within [0, 2].
//   - Exactly two players joined.
//   - Fewer than 9 moves and no decided outcome.
//   - Caller's roster index equals NextPlayerIndex (unknown callers never match).
//   - Target cell is empty.
//
// On success the turn flips even when the move decides the game.
func (s *Session) Move(playerID int64, row, col int) bool {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return false
	}
	if len(s.Players) != MaxPlayers || s.NumberOfMoves >= NumCells || s.Winner != "" {
		return false
	}
	idx := s.playerIndex(playerID)
	if idx != s.NextPlayerIndex {
		return false
	}
	cell := row*BoardSize + col
	if s.Board[cell] != Empty {
		return false
	}

	mark := markFor(idx)
	s.Board[cell] = mark
	s.NumberOfMoves++

	if s.hasWon(mark) {
		s.Winner = fmt.Sprintf("%s (%s)", s.Players[idx].Name, mark.Glyph())
	} else if s.NumberOfMoves >= NumCells {
		s.Winner = TieLabel
	}
	s.NextPlayerIndex = (s.NextPlayerIndex + 1) % MaxPlayers
	return true
}

// Outcome reports whether the session is undecided, won, or tied.
func (s *Session) Outcome() Outcome {
	switch s.Winner {
	case "":
		return InProgress
	case TieLabel:
		return Tie
	default:
		return Win
	}
}

// State reports a coarse string for API responses.
func (s *Session) State() string {
	switch s.Outcome() {
	case Win:
		return "won"
	case Tie:
		return "tie"
	}
	if len(s.Players) < MaxPlayers {
		return "waiting"
	}
	return "playing"
}

// WinningPlayer returns the player who completed a line.
// The turn has already flipped past the winner, so it is the other index.
func (s *Session) WinningPlayer() (Player, bool) {
	if s.Outcome() != Win || len(s.Players) != MaxPlayers {
		return Player{}, false
	}
	return s.Players[(s.NextPlayerIndex+1)%MaxPlayers], true
}

// MarkOf returns the mark a player places, or Empty if not on the roster.
func (s *Session) MarkOf(playerID int64) Cell {
	idx := s.playerIndex(playerID)
	if idx < 0 {
		return Empty
	}
	return markFor(idx)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = append([]Player(nil), s.Players...)
	if c.Players == nil {
		c.Players = []Player{}
	}
	return &c
}

// playerIndex returns the first roster position holding playerID, or -1.
func (s *Session) playerIndex(playerID int64) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// markFor maps roster index 0 → X (-1) and 1 → O (+1).
func markFor(idx int) Cell { return Cell(idx*2 - 1) }

// hasWon runs the signed-sum check: a line sums to mark*3 iff all three cells hold mark.
func (s *Session) hasWon(mark Cell) bool {
	target := int(mark) * BoardSize
	for _, l := range lines {
		if int(s.Board[l[0]])+int(s.Board[l[1]])+int(s.Board[l[2]]) == target {
			return true
		}
	}
	return false
}
