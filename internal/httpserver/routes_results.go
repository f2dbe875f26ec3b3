// internal/httpserver/routes_results.go
//
// HTTP route for the results ledger:
//   - GET /leaderboard?limit=n → top winners by display name plus the tie count
//
// Mounted only when Options.Leaderboard is set.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/tictactoe/internal/results"
)

func (s *Server) mountResults(r chi.Router) {
	r.Get("/leaderboard", s.handleLeaderboard)
}

// lbRes is returned by /leaderboard.
type lbRes struct {
	Top  []results.LBRow `json:"top"`
	Ties int             `json:"ties"`
}

// handleLeaderboard returns the top winners (default 20, max 100).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, `{"error":"bad_limit"}`, http.StatusBadRequest)
			return
		}
		limit = min(n, 100)
	}
	top, err := s.lb.Leaderboard(r.Context(), limit)
	if err != nil {
		storeFailure(w, r, "", err)
		return
	}
	ties, err := s.lb.Ties(r.Context())
	if err != nil {
		storeFailure(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Top: top, Ties: ties})
}
