// internal/httpserver/server.go
//
// HTTP server wiring for the tic-tac-toe backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: mounted under /games (see routes_games.go).
//   - Leaderboard endpoint when a results store is configured (routes_results.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - Every handler answers JSON; errors use {"error":"<code>"}.
//   - A rejected join/move is a normal 200 with accepted=false; only store
//     failures become 5xx.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/tictactoe/internal/actor"
	"github.com/robalobadob/tictactoe/internal/results"
	"github.com/robalobadob/tictactoe/internal/store"
)

// Leaderboard is the read side of the results ledger.
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]results.LBRow, error)
	Ties(ctx context.Context) (int, error)
}

// Options tunes middleware behaviour.
type Options struct {
	RequestTimeout time.Duration // default 10s
	ClientOrigin   string        // default http://localhost:5173
	Leaderboard    Leaderboard   // nil disables /leaderboard
}

// Server bundles router and the session actor host.
type Server struct {
	r    *chi.Mux
	host *actor.Host
	lb   Leaderboard
}

// New constructs a Server, installs middleware, and registers routes.
func New(host *actor.Host, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), host: host, lb: opts.Leaderboard}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))        // request-scoped zerolog logger
	s.r.Use(accessLog)                          // one line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))            // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"tictactoe-go","endpoints":["/health","POST /games","GET /games","/games/{id}/*","/leaderboard"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.mountGames(s.r)
	if s.lb != nil {
		s.mountResults(s.r)
	}

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and custom listeners).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request at debug level
// (warn for 5xx so store outages stand out).
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	lvl := zerolog.DebugLevel
	if status >= http.StatusInternalServerError {
		lvl = zerolog.WarnLevel
	}
	hlog.FromRequest(r).WithLevel(lvl).
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("dur", d).
		Msg("request")
})

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// gameFailure answers an error from a session operation: a blank id is the
// caller's fault, anything else is a persistence fault.
func gameFailure(w http.ResponseWriter, r *http.Request, gameID string, err error) {
	if errors.Is(err, store.ErrInvalidID) {
		http.Error(w, `{"error":"bad_game_id"}`, http.StatusBadRequest)
		return
	}
	storeFailure(w, r, gameID, err)
}

// storeFailure logs and answers a persistence fault.
func storeFailure(w http.ResponseWriter, r *http.Request, gameID string, err error) {
	hlog.FromRequest(r).Error().Err(err).Str("gameId", gameID).Msg("store failure")
	http.Error(w, `{"error":"store_unavailable"}`, http.StatusInternalServerError)
}
