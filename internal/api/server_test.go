package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/engine"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/persistence"
	"github.com/talgya/vakif/internal/rules"
)

func testSession(d rules.Difficulty) *engine.Session {
	return engine.NewSession(engine.Options{
		Difficulty: d,
		Seed:       42,
		Rng:        entropy.NewSequence(0.99),
		Clock:      clock.NewFake(time.Date(1520, 9, 30, 0, 0, 0, 0, time.UTC)),
	})
}

// newTestServer runs an engine around sess and serves the API over httptest.
func newTestServer(t *testing.T, sess *engine.Session, configure func(*Server)) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	eng := engine.New(sess)
	go eng.Run(ctx)

	srv := &Server{
		Eng:           eng,
		AdminKey:      "admin-secret",
		Sessions:      map[string]string{"tok-ayse": "ayse"},
		SaveSlot:      "autosave",
		RatePerSecond: 1000,
		RateBurst:     1000,
		NewGame:       testSession,
	}
	if configure != nil {
		configure(srv)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, ts *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := get(t, ts, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	status := decodeBody[engine.StatusView](t, resp)
	assert.Equal(t, 1, status.Turn)
	assert.Equal(t, rules.Medium, status.Difficulty)
	assert.False(t, status.Collected)
	assert.Equal(t, 1000, status.Resources.Money)
}

func TestCityDetail(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := get(t, ts, "/api/v1/city/istanbul", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[engine.CityView](t, resp)
	assert.Equal(t, "İstanbul", view.Name)
	assert.NotEmpty(t, view.BuildOptions)

	resp = get(t, ts, "/api/v1/city/atlantis", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollect_SecondTimeRejected(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := post(t, ts, "/api/v1/collect", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody[engine.Result](t, resp)
	assert.True(t, first.OK)
	assert.Equal(t, engine.CmdCollect, first.Command)
	assert.NotEmpty(t, first.Log)

	resp = post(t, ts, "/api/v1/collect", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	second := decodeBody[engine.Result](t, resp)
	assert.False(t, second.OK)
	assert.Contains(t, second.Reason, "zaten kaynak topladınız")
	assert.Equal(t, first.Ledger, second.Ledger)
}

func TestTurn_RequiresCollection(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := post(t, ts, "/api/v1/turn", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	res := decodeBody[engine.Result](t, resp)
	assert.Equal(t, "Kaynakları toplamadan tur geçemezsiniz!", res.Reason)
	assert.Equal(t, 1, res.Turn)

	post(t, ts, "/api/v1/collect", "", nil)
	resp = post(t, ts, "/api/v1/turn", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decodeBody[engine.Result](t, resp).Turn)
}

func TestBuild(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := post(t, ts, "/api/v1/build", "", map[string]string{"city_id": "istanbul", "building": "fountain"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[engine.Result](t, resp)
	assert.True(t, res.OK)
	assert.Less(t, res.Ledger.Money, 1000)

	resp = post(t, ts, "/api/v1/build", "", map[string]string{"city_id": "atlantis", "building": "fountain"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Şehir bulunamadı", decodeBody[engine.Result](t, resp).Reason)
}

func TestInvalidJSON(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp, err := http.Post(ts.URL+"/api/v1/build", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := get(t, ts, "/api/v1/collect", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestGameOver_Conflict(t *testing.T) {
	sess := testSession(rules.Medium)
	sess.GameOver = true
	sess.GameOverReason = "Halk tamamen mutsuz! Vakıf yönetiminde başarısız oldunuz."
	_, ts := newTestServer(t, sess, nil)

	resp := post(t, ts, "/api/v1/collect", "", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	res := decodeBody[engine.Result](t, resp)
	assert.True(t, res.GameOver)
	assert.Equal(t, sess.GameOverReason, res.Message)

	// Selecting a city stays available after the game ends.
	resp = post(t, ts, "/api/v1/select", "", map[string]string{"city_id": "konya"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewGame_RequiresSession(t *testing.T) {
	srv, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := post(t, ts, "/api/v1/game/new", "", map[string]string{"difficulty": "hard"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, true, body["error"])

	resp = post(t, ts, "/api/v1/game/new", "wrong", map[string]string{"difficulty": "hard"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, ts, "/api/v1/game/new", "tok-ayse", map[string]string{"difficulty": "nightmare"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts, "/api/v1/game/new", "tok-ayse", map[string]string{"difficulty": "hard"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[engine.Result](t, resp)
	assert.True(t, res.OK)
	assert.Equal(t, engine.CmdNewGame, res.Command)
	assert.Equal(t, "ayse", srv.Owner())

	status := decodeBody[engine.StatusView](t, get(t, ts, "/api/v1/status", ""))
	assert.Equal(t, rules.Hard, status.Difficulty)
}

func TestNewGame_OpenPlay(t *testing.T) {
	srv, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) { s.Sessions = nil })

	resp := post(t, ts, "/api/v1/game/new", "", map[string]string{"difficulty": "easy"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, anonymousUser, srv.Owner())
}

func TestUser(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	out := decodeBody[map[string]any](t, get(t, ts, "/api/user", ""))
	assert.Equal(t, false, out["loggedIn"])

	out = decodeBody[map[string]any](t, get(t, ts, "/api/user", "tok-ayse"))
	assert.Equal(t, true, out["loggedIn"])
	assert.Equal(t, "ayse", out["username"])

	resp := post(t, ts, "/api/login", "", map[string]string{"username": "ayse", "password": "x"})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestAdminSaveAndLoad(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) {
		s.DB = db
		s.LoadOptions = engine.Options{Rng: entropy.NewSequence(0.99)}
	})

	resp := post(t, ts, "/api/v1/save", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	post(t, ts, "/api/v1/collect", "", nil)
	post(t, ts, "/api/v1/turn", "", nil)

	resp = post(t, ts, "/api/v1/save", "admin-secret", map[string]string{"slot": "manual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), decodeBody[map[string]any](t, resp)["turn"])

	saves := decodeBody[[]persistence.SaveRecord](t, get(t, ts, "/api/v1/saves", ""))
	require.Len(t, saves, 1)
	assert.Equal(t, "manual", saves[0].Slot)

	// Play on, then roll back to the save.
	post(t, ts, "/api/v1/collect", "", nil)
	post(t, ts, "/api/v1/turn", "", nil)

	resp = post(t, ts, "/api/v1/load", "admin-secret", map[string]string{"slot": "manual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decodeBody[engine.Result](t, resp).Turn)

	resp = post(t, ts, "/api/v1/load", "admin-secret", map[string]string{"slot": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, ts, "/api/v1/saves/delete", "", map[string]string{"slot": "manual"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = post(t, ts, "/api/v1/saves/delete", "admin-secret", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = post(t, ts, "/api/v1/saves/delete", "admin-secret", map[string]string{"slot": "manual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]persistence.SaveRecord](t, get(t, ts, "/api/v1/saves", "")))
}

func TestAdmin_DisabledWithoutKey(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) { s.AdminKey = "" })

	resp := post(t, ts, "/api/v1/save", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCommands_RateLimited(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) {
		s.RatePerSecond = 0.01
		s.RateBurst = 1
	})

	resp := post(t, ts, "/api/v1/tutorial/complete", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, ts, "/api/v1/tutorial/complete", "", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Reads are never limited.
	resp = get(t, ts, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) {
		s.CORSOrigins = []string{"https://vakif.example"}
	})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/collect", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://vakif.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://vakif.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)

	srv, ts := newTestServer(t, testSession(rules.Medium), func(s *Server) { s.Hub = hub })
	srv.Eng.Subscribe(hub.Publish)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// Reads are not streamed; the next frame is the command.
	get(t, ts, "/api/v1/status", "")
	post(t, ts, "/api/v1/collect", "", nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, engine.CmdCollect, env.Type)

	var res engine.Result
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Turn)
}

func TestStream_Disabled(t *testing.T) {
	_, ts := newTestServer(t, testSession(rules.Medium), nil)

	resp := get(t, ts, "/api/v1/stream", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// sendJSON is post without testing.T failure paths, for use off the test goroutine.
func sendJSON(url string, body any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var res engine.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

func TestCommandReplies_EncodeWhileEngineRuns(t *testing.T) {
	sess := testSession(rules.Medium)
	sess.Ledger.Money = 100000
	_, ts := newTestServer(t, sess, nil)

	ideas := decodeBody[[]citizens.Idea](t, get(t, ts, "/api/v1/ideas", ""))
	require.NotEmpty(t, ideas)
	idea := ideas[0]

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				code, err := sendJSON(ts.URL+"/api/v1/ideas/vote", map[string]any{"idea_id": idea.ID, "like": true})
				assert.NoError(t, err)
				assert.Equal(t, http.StatusOK, code)
			}
		}()
	}
	for _, empire := range []string{"safavid", "mamluk", "venice", "hungary", "poland"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := sendJSON(ts.URL+"/api/v1/diplomacy/action", map[string]string{"action": "IMPROVE_RELATIONS", "empire": empire})
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, code)
		}()
	}
	wg.Wait()

	ideas = decodeBody[[]citizens.Idea](t, get(t, ts, "/api/v1/ideas", ""))
	for _, i := range ideas {
		if i.ID == idea.ID {
			assert.Equal(t, idea.Likes+100, i.Likes)
		}
	}
}

func TestHandler_SharesRateLimiter(t *testing.T) {
	srv := &Server{RatePerSecond: 1, RateBurst: 1}
	srv.Handler()
	first := srv.limiter
	require.NotNil(t, first)

	srv.Handler()
	assert.Same(t, first, srv.limiter)
}
