// internal/httpserver/routes_games.go
//
// HTTP routes for game sessions. Exposes under /games:
//   - POST /games               → allocate a new session id
//   - GET  /games               → list committed session ids
//   - POST /games/{id}/join     → Join(playerId, name)
//   - POST /games/{id}/move     → Move(playerId, row, col)
//   - GET  /games/{id}/board    → board snapshot plus roster and turn
//   - GET  /games/{id}/winner   → outcome label ("" while undecided)
//
// Session ids are opaque; unknown ids read as an empty game.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/tictactoe/internal/game"
)

// mountGames registers all /games routes.
func (s *Server) mountGames(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleNewGame)
		r.Get("/", s.handleListGames)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/join", s.handleJoin)
			r.Post("/move", s.handleMove)
			r.Get("/board", s.handleBoard)
			r.Get("/winner", s.handleWinner)
		})
	})
}

// -----------------------------------------------------------------------------
// /games

type newGameRes struct {
	GameID string `json:"gameId"`
}

// handleNewGame hands out a fresh id. Nothing is persisted until the first join.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, newGameRes{GameID: uuid.NewString()})
}

type listGamesRes struct {
	Games []string `json:"games"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	ids, err := s.host.List(r.Context())
	if err != nil {
		storeFailure(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, listGamesRes{Games: ids})
}

// -----------------------------------------------------------------------------
// /games/{id}/join

type joinReq struct {
	PlayerID *int64 `json:"playerId"`
	Name     string `json:"name"`
}

type acceptedRes struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state,omitempty"`
	Winner   string `json:"winner,omitempty"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req joinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.PlayerID == nil || req.Name == "" {
		http.Error(w, `{"error":"playerId_and_name_required"}`, http.StatusBadRequest)
		return
	}

	ok, err := s.host.Session(id).Join(r.Context(), *req.PlayerID, req.Name)
	if err != nil {
		gameFailure(w, r, id, err)
		return
	}
	if !ok {
		hlog.FromRequest(r).Debug().Str("gameId", id).Int64("playerId", *req.PlayerID).Msg("join rejected")
	}
	writeJSON(w, http.StatusOK, acceptedRes{Accepted: ok})
}

// -----------------------------------------------------------------------------
// /games/{id}/move

type moveReq struct {
	PlayerID *int64 `json:"playerId"`
	Row      *int   `json:"row"`
	Col      *int   `json:"col"`
}

// handleMove applies a move. Out-of-range coordinates are a rejection like
// any other rule violation, not a 400; only missing fields are malformed.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.PlayerID == nil || req.Row == nil || req.Col == nil {
		http.Error(w, `{"error":"playerId_row_col_required"}`, http.StatusBadRequest)
		return
	}

	ok, snap, err := s.host.Session(id).MoveState(r.Context(), *req.PlayerID, *req.Row, *req.Col)
	if err != nil {
		gameFailure(w, r, id, err)
		return
	}
	if !ok {
		hlog.FromRequest(r).Debug().Str("gameId", id).Int64("playerId", *req.PlayerID).Msg("move rejected")
	}
	writeJSON(w, http.StatusOK, acceptedRes{Accepted: ok, State: snap.State(), Winner: snap.Winner})
}

// -----------------------------------------------------------------------------
// /games/{id}/board and /games/{id}/winner

type boardRes struct {
	Board           game.Board    `json:"board"`
	State           string        `json:"state"`
	Winner          string        `json:"winner"`
	Players         []game.Player `json:"players"`
	NextPlayerIndex int           `json:"nextPlayerIndex"`
	Moves           int           `json:"moves"`
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.host.Session(id).Snapshot(r.Context())
	if err != nil {
		gameFailure(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, boardRes{
		Board:           snap.Board,
		State:           snap.State(),
		Winner:          snap.Winner,
		Players:         snap.Players,
		NextPlayerIndex: snap.NextPlayerIndex,
		Moves:           snap.NumberOfMoves,
	})
}

type winnerRes struct {
	Winner string `json:"winner"`
}

func (s *Server) handleWinner(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	winner, err := s.host.Session(id).GetWinner(r.Context())
	if err != nil {
		gameFailure(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, winnerRes{Winner: winner})
}
