// internal/game/types.go
//
// Core type definitions for the tic-tac-toe session engine.
// Defines:
//   - Cell: contents of one board square (empty, X, O).
//   - Board: the 3x3 grid flattened to 9 cells, index = row*3 + col.
//   - Player: one roster entry (opaque id + display name).
//   - Session: persisted state for a single game.

package game

// Cell represents the contents of a single board square.
// Marks are signed so that three in a row sums to ±3.
type Cell int8

const (
	Empty Cell = 0
	MarkX Cell = -1 // first joiner
	MarkO Cell = 1  // second joiner
)

// Glyph returns the printable symbol for a cell.
func (c Cell) Glyph() string {
	switch c {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "."
	}
}

const (
	// MaxPlayers is the roster capacity of a session.
	MaxPlayers = 2
	// BoardSize is the side length of the grid.
	BoardSize = 3
	// NumCells is the total number of squares.
	NumCells = BoardSize * BoardSize
	// TieLabel is the Winner value of a drawn game.
	TieLabel = "TIE"
)

// Board is the flattened 3x3 grid.
type Board [NumCells]Cell

// Player is a roster entry. Names are unique within a session; ids are not checked.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Outcome is the coarse result of a session.
type Outcome int

const (
	InProgress Outcome = iota
	Win
	Tie
)

// Session holds the state of a single game. Field names and JSON tags are the
// persisted layout and must stay stable across releases.
type Session struct {
	Players         []Player `json:"players"`         // join order, at most MaxPlayers
	NextPlayerIndex int      `json:"nextPlayerIndex"` // whose turn, 0 or 1
	NumberOfMoves   int      `json:"numberOfMoves"`   // accepted moves, 0..9
	Board           Board    `json:"board"`
	Winner          string   `json:"winner"` // "" while undecided, "<name> (X|O)" or TieLabel
}
