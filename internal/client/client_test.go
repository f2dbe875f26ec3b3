package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/tictactoe/internal/actor"
	"github.com/robalobadob/tictactoe/internal/game"
	"github.com/robalobadob/tictactoe/internal/httpserver"
	"github.com/robalobadob/tictactoe/internal/store"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	srv := httpserver.New(actor.NewHost(store.NewMemoryStore()), httpserver.Options{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func TestClient_PlaysToTie(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	g, err := c.NewGame(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, g.ID())

	ok, err := g.Join(ctx, 1, "A")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = g.Join(ctx, 2, "A")
	require.NoError(t, err)
	assert.False(t, ok, "duplicate name")
	ok, err = g.Join(ctx, 2, "B")
	require.NoError(t, err)
	assert.True(t, ok)

	// X O X / X O O / O X X
	seq := []struct {
		p        int64
		row, col int
	}{
		{1, 0, 0}, {2, 0, 1}, {1, 0, 2}, {2, 1, 1}, {1, 1, 0},
		{2, 1, 2}, {1, 2, 1}, {2, 2, 0}, {1, 2, 2},
	}
	var last MoveResult
	for _, m := range seq {
		last, err = g.Move(ctx, m.p, m.row, m.col)
		require.NoError(t, err)
		require.True(t, last.Accepted, "%+v", m)
	}
	assert.Equal(t, "tie", last.State)
	assert.Equal(t, game.TieLabel, last.Winner)

	res, err := g.Move(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.Accepted)

	w, err := g.Winner(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.TieLabel, w)

	b, err := g.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, b.Moves)
	assert.Equal(t, []game.Player{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, b.Players)
	assert.Equal(t, game.MarkX, b.Board[0])

	ids, err := c.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID()}, ids)
}

func TestClient_StatusErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"store_unavailable"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	_, err := New(ts.URL).Game("g").Winner(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "store_unavailable", se.Code)
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).NewGame(context.Background())
	assert.Error(t, err)
}
