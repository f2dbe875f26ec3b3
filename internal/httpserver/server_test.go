package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/tictactoe/assets"
	"github.com/robalobadob/tictactoe/internal/actor"
	"github.com/robalobadob/tictactoe/internal/game"
	"github.com/robalobadob/tictactoe/internal/results"
	"github.com/robalobadob/tictactoe/internal/sqlitedb"
	"github.com/robalobadob/tictactoe/internal/store"
)

func newTestServer(t *testing.T, st store.Store, lb Leaderboard, opts ...actor.Option) *httptest.Server {
	t.Helper()
	srv := New(actor.NewHost(st, opts...), Options{Leaderboard: lb})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)
	code, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
}

func TestGames_FullScenario(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)

	code, body := do(t, http.MethodPost, ts.URL+"/games", "")
	require.Equal(t, http.StatusCreated, code)
	id, _ := body["gameId"].(string)
	require.NotEmpty(t, id)
	base := ts.URL + "/games/" + id

	_, body = do(t, http.MethodPost, base+"/join", `{"playerId":1,"name":"A"}`)
	assert.Equal(t, true, body["accepted"])
	_, body = do(t, http.MethodPost, base+"/join", `{"playerId":2,"name":"B"}`)
	assert.Equal(t, true, body["accepted"])
	_, body = do(t, http.MethodPost, base+"/join", `{"playerId":3,"name":"C"}`)
	assert.Equal(t, false, body["accepted"], "roster is full")

	// Out of turn is a rejection, not an error.
	code, body = do(t, http.MethodPost, base+"/move", `{"playerId":2,"row":0,"col":0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["accepted"])

	moves := []string{
		`{"playerId":1,"row":0,"col":0}`,
		`{"playerId":2,"row":1,"col":0}`,
		`{"playerId":1,"row":0,"col":1}`,
		`{"playerId":2,"row":1,"col":1}`,
	}
	for _, m := range moves {
		_, body = do(t, http.MethodPost, base+"/move", m)
		require.Equal(t, true, body["accepted"], m)
		assert.Equal(t, "playing", body["state"])
	}
	_, body = do(t, http.MethodPost, base+"/move", `{"playerId":1,"row":0,"col":2}`)
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, "won", body["state"])
	assert.Equal(t, "A (X)", body["winner"])

	_, body = do(t, http.MethodGet, base+"/winner", "")
	assert.Equal(t, "A (X)", body["winner"])

	_, body = do(t, http.MethodGet, base+"/board", "")
	assert.Equal(t, []any{-1.0, -1.0, -1.0, 1.0, 1.0, 0.0, 0.0, 0.0, 0.0}, body["board"])
	assert.Equal(t, 5.0, body["moves"])
	assert.Len(t, body["players"], 2)

	_, body = do(t, http.MethodGet, ts.URL+"/games", "")
	assert.Equal(t, []any{id}, body["games"])
}

func TestGames_UnknownIDReadsEmpty(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)
	code, body := do(t, http.MethodGet, ts.URL+"/games/nobody/board", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "waiting", body["state"])
	assert.Equal(t, "", body["winner"])
	assert.Empty(t, body["players"])

	_, body = do(t, http.MethodGet, ts.URL+"/games", "")
	assert.Empty(t, body["games"], "reads do not create sessions")
}

func TestGames_OutOfRangeMoveIsRejection(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)
	base := ts.URL + "/games/g"
	do(t, http.MethodPost, base+"/join", `{"playerId":1,"name":"A"}`)
	do(t, http.MethodPost, base+"/join", `{"playerId":2,"name":"B"}`)

	code, body := do(t, http.MethodPost, base+"/move", `{"playerId":1,"row":3,"col":0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["accepted"])
}

func TestGames_BadRequests(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)
	base := ts.URL + "/games/g"

	cases := []struct {
		path, body, want string
	}{
		{"/join", `{`, "bad_json"},
		{"/join", `{"playerId":1,"name":"  "}`, "playerId_and_name_required"},
		{"/join", `{"name":"A"}`, "playerId_and_name_required"},
		{"/move", `not json`, "bad_json"},
		{"/move", `{"playerId":1,"row":0}`, "playerId_row_col_required"},
	}
	for _, c := range cases {
		code, body := do(t, http.MethodPost, base+c.path, c.body)
		assert.Equal(t, http.StatusBadRequest, code, c.body)
		assert.Equal(t, c.want, body["error"], c.body)
	}
}

// brokenStore fails every call.
type brokenStore struct{ store.Store }

var errDown = errors.New("disk on fire")

func (brokenStore) Load(context.Context, string) (*game.Session, error) { return nil, errDown }
func (brokenStore) Commit(context.Context, string, *game.Session) error { return errDown }
func (brokenStore) List(context.Context) ([]string, error)              { return nil, errDown }

func TestGames_StoreFailureIs500(t *testing.T) {
	ts := newTestServer(t, brokenStore{}, nil)

	for _, c := range []struct{ method, path, body string }{
		{http.MethodPost, "/games/g/join", `{"playerId":1,"name":"A"}`},
		{http.MethodPost, "/games/g/move", `{"playerId":1,"row":0,"col":0}`},
		{http.MethodGet, "/games/g/board", ""},
		{http.MethodGet, "/games/g/winner", ""},
		{http.MethodGet, "/games", ""},
	} {
		code, body := do(t, c.method, ts.URL+c.path, c.body)
		assert.Equal(t, http.StatusInternalServerError, code, c.path)
		assert.Equal(t, "store_unavailable", body["error"], c.path)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)
	code, body := do(t, http.MethodGet, ts.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])

	code, _ = do(t, http.MethodGet, ts.URL+"/leaderboard", "")
	assert.Equal(t, http.StatusNotFound, code, "no leaderboard without a results store")
}

func TestLeaderboard(t *testing.T) {
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlitedb.Migrate(db, assets.Migrations()))
	rs := results.NewStore(db)

	ts := newTestServer(t, store.NewSQLiteStore(db), rs, actor.WithCommitHook(rs.OnCommit))
	base := ts.URL + "/games/g"
	do(t, http.MethodPost, base+"/join", `{"playerId":1,"name":"ann"}`)
	do(t, http.MethodPost, base+"/join", `{"playerId":2,"name":"bo"}`)
	for _, m := range []string{
		`{"playerId":1,"row":0,"col":0}`,
		`{"playerId":2,"row":1,"col":0}`,
		`{"playerId":1,"row":1,"col":1}`,
		`{"playerId":2,"row":2,"col":0}`,
		`{"playerId":1,"row":2,"col":2}`,
	} {
		_, body := do(t, http.MethodPost, base+"/move", m)
		require.Equal(t, true, body["accepted"], m)
	}

	code, body := do(t, http.MethodGet, ts.URL+"/leaderboard", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{map[string]any{"name": "ann", "wins": 1.0}}, body["top"])
	assert.Equal(t, 0.0, body["ties"])

	code, body = do(t, http.MethodGet, ts.URL+"/leaderboard?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "bad_limit", body["error"])
}

// downAfterMove stops serving Loads once a move has been committed.
type downAfterMove struct {
	store.Store
	down atomic.Bool
}

func (d *downAfterMove) Load(ctx context.Context, id string) (*game.Session, error) {
	if d.down.Load() {
		return nil, errDown
	}
	return d.Store.Load(ctx, id)
}

func (d *downAfterMove) Commit(ctx context.Context, id string, s *game.Session) error {
	if err := d.Store.Commit(ctx, id, s); err != nil {
		return err
	}
	if s.NumberOfMoves > 0 {
		d.down.Store(true)
	}
	return nil
}

func TestGames_MoveAnswersFromItsOwnCommit(t *testing.T) {
	st := &downAfterMove{Store: store.NewMemoryStore()}
	ts := newTestServer(t, st, nil)
	base := ts.URL + "/games/g"
	do(t, http.MethodPost, base+"/join", `{"playerId":1,"name":"A"}`)
	do(t, http.MethodPost, base+"/join", `{"playerId":2,"name":"B"}`)

	code, body := do(t, http.MethodPost, base+"/move", `{"playerId":1,"row":0,"col":0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, "playing", body["state"])

	persisted, err := st.Store.Load(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.NumberOfMoves)
	assert.Equal(t, game.MarkX, persisted.Board[0])
}

func TestGames_BlankIDIs400(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), nil)

	for _, c := range []struct{ method, path, body string }{
		{http.MethodGet, "/games/%20/board", ""},
		{http.MethodGet, "/games/%20/winner", ""},
		{http.MethodPost, "/games/%20/join", `{"playerId":1,"name":"A"}`},
		{http.MethodPost, "/games/%20/move", `{"playerId":1,"row":0,"col":0}`},
	} {
		code, body := do(t, c.method, ts.URL+c.path, c.body)
		assert.Equal(t, http.StatusBadRequest, code, c.path)
		assert.Equal(t, "bad_game_id", body["error"], c.path)
	}
}
