// Package client is a thin HTTP client for the tic-tac-toe server.
//
// A Game handle mirrors the session operations: Join and Move report
// whether the server accepted the request, and only transport or server
// failures come back as errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robalobadob/tictactoe/internal/game"
)

// Client talks to one server endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets a per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New creates a Client for endpoint, e.g. "http://localhost:5175".
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGame asks the server for a fresh session id.
func (c *Client) NewGame(ctx context.Context) (*Game, error) {
	var res struct {
		GameID string `json:"gameId"`
	}
	if err := c.call(ctx, http.MethodPost, "/games", nil, &res); err != nil {
		return nil, err
	}
	return c.Game(res.GameID), nil
}

// Games lists committed session ids.
func (c *Client) Games(ctx context.Context) ([]string, error) {
	var res struct {
		Games []string `json:"games"`
	}
	if err := c.call(ctx, http.MethodGet, "/games", nil, &res); err != nil {
		return nil, err
	}
	return res.Games, nil
}

// Game returns a handle for an existing (or not yet created) session.
func (c *Client) Game(id string) *Game {
	return &Game{id: id, c: c}
}

// Game is a remote session handle.
type Game struct {
	id string
	c  *Client
}

func (g *Game) ID() string { return g.id }

// MoveResult is the server's answer to a move.
type MoveResult struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
	Winner   string `json:"winner"`
}

// Board is a full snapshot of a session.
type Board struct {
	Board           game.Board    `json:"board"`
	State           string        `json:"state"`
	Winner          string        `json:"winner"`
	Players         []game.Player `json:"players"`
	NextPlayerIndex int           `json:"nextPlayerIndex"`
	Moves           int           `json:"moves"`
}

// Join enters the session as playerID with the given display name.
func (g *Game) Join(ctx context.Context, playerID int64, name string) (bool, error) {
	var res struct {
		Accepted bool `json:"accepted"`
	}
	body := map[string]any{"playerId": playerID, "name": name}
	if err := g.c.call(ctx, http.MethodPost, g.path("join"), body, &res); err != nil {
		return false, err
	}
	return res.Accepted, nil
}

// Move plays at (row, col).
func (g *Game) Move(ctx context.Context, playerID int64, row, col int) (MoveResult, error) {
	var res MoveResult
	body := map[string]any{"playerId": playerID, "row": row, "col": col}
	if err := g.c.call(ctx, http.MethodPost, g.path("move"), body, &res); err != nil {
		return MoveResult{}, err
	}
	return res, nil
}

// Board fetches the current snapshot.
func (g *Game) Board(ctx context.Context) (Board, error) {
	var res Board
	if err := g.c.call(ctx, http.MethodGet, g.path("board"), nil, &res); err != nil {
		return Board{}, err
	}
	return res, nil
}

// Winner returns the outcome label, "" while undecided.
func (g *Game) Winner(ctx context.Context) (string, error) {
	var res struct {
		Winner string `json:"winner"`
	}
	if err := g.c.call(ctx, http.MethodGet, g.path("winner"), nil, &res); err != nil {
		return "", err
	}
	return res.Winner, nil
}

func (g *Game) path(op string) string {
	return "/games/" + url.PathEscape(g.id) + "/" + op
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Status int
	Code   string // server error code, e.g. "store_unavailable"
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Status: resp.StatusCode, Code: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
