// Package api provides the HTTP API for playing the game.
// GET endpoints return render data for the current game.
// POST endpoints submit player commands through the engine queue.
// Starting a game requires a session token; save and load require the
// admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/diplomacy"
	"github.com/talgya/vakif/internal/engine"
	"github.com/talgya/vakif/internal/persistence"
	"github.com/talgya/vakif/internal/rules"
)

// anonymousUser owns games when no session tokens are configured.
const anonymousUser = "misafir"

// Server serves the game over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // nil disables saves and the persistent log
	Hub      *Hub            // nil disables the stream
	Port     int
	AdminKey string // Bearer token for save/load. Empty = disabled.

	// Sessions maps bearer tokens to user names. Empty = open play.
	Sessions    map[string]string
	CORSOrigins []string
	SaveSlot    string

	RatePerSecond  float64
	RateBurst      int
	TrustedProxies []string // peers whose X-Forwarded-For is believed

	// NewGame builds a fresh session for a difficulty.
	NewGame func(d rules.Difficulty) *engine.Session
	// LoadOptions supplies the unsaved collaborators of loaded games.
	LoadOptions engine.Options

	ownerMu sync.Mutex
	owner   string

	limiterOnce sync.Once
	limiter     *RateLimiter
}

// commandLimiter is shared by every handler built from this server.
func (s *Server) commandLimiter() *RateLimiter {
	s.limiterOnce.Do(func() {
		s.limiter = NewRateLimiter(s.RatePerSecond, s.RateBurst, s.TrustedProxies...)
	})
	return s.limiter
}

// Owner returns the user who started the current game.
func (s *Server) Owner() string {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	if s.owner == "" {
		return anonymousUser
	}
	return s.owner
}

// SetOwner records who plays the current game.
func (s *Server) SetOwner(user string) {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	s.owner = user
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	commandLimiter := s.commandLimiter()
	limited := func(h http.HandlerFunc) http.HandlerFunc { return RateLimitMiddleware(commandLimiter, h) }

	mux := http.NewServeMux()

	// Render data.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/city/{id}", s.handleCityDetail)
	mux.HandleFunc("GET /api/v1/needs", s.handleNeeds)
	mux.HandleFunc("GET /api/v1/ideas", s.handleIdeas)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/diplomacy", s.handleDiplomacy)
	mux.HandleFunc("GET /api/v1/log", s.handleLog)
	mux.HandleFunc("GET /api/v1/saves", s.handleSaves)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Auth boundary.
	mux.HandleFunc("GET /api/user", s.handleUser)
	mux.HandleFunc("POST /api/login", handleCredentials)
	mux.HandleFunc("POST /api/register", handleCredentials)
	mux.HandleFunc("POST /api/logout", handleLogout)

	// Player commands.
	mux.HandleFunc("POST /api/v1/game/new", limited(s.playerOnly(s.handleNewGame)))
	mux.HandleFunc("POST /api/v1/collect", limited(s.handleCollect))
	mux.HandleFunc("POST /api/v1/turn", limited(s.handleTurn))
	mux.HandleFunc("POST /api/v1/build", limited(s.handleBuild))
	mux.HandleFunc("POST /api/v1/repair", limited(s.handleRepair))
	mux.HandleFunc("POST /api/v1/needs/fulfill", limited(s.handleFulfill))
	mux.HandleFunc("POST /api/v1/events/choose", limited(s.handleChoose))
	mux.HandleFunc("POST /api/v1/ideas", limited(s.handleAddIdea))
	mux.HandleFunc("POST /api/v1/ideas/vote", limited(s.handleVote))
	mux.HandleFunc("POST /api/v1/diplomacy/action", limited(s.handleDiplomaticAction))
	mux.HandleFunc("POST /api/v1/select", limited(s.handleSelect))
	mux.HandleFunc("POST /api/v1/tutorial/complete", limited(s.handleTutorial))

	// Admin endpoints (require bearer token).
	mux.HandleFunc("POST /api/v1/save", s.adminOnly(s.handleSave))
	mux.HandleFunc("POST /api/v1/load", s.adminOnly(s.handleLoad))
	mux.HandleFunc("POST /api/v1/saves/delete", s.adminOnly(s.handleDeleteSave))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server
// can be shut down by the caller; limiter cleanup stops with ctx.
func (s *Server) Start(ctx context.Context) *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go s.commandLimiter().Run(ctx)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "sessions", len(s.Sessions))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := allowedOrigins(origins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func allowedOrigins(origins []string) map[string]bool {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		allowed[o] = true
	}
	return allowed
}

func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := bearer(r)
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no VAKIF_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// user resolves the session token. With no configured sessions every
// request plays as the anonymous user.
func (s *Server) user(r *http.Request) (string, bool) {
	if len(s.Sessions) == 0 {
		return anonymousUser, true
	}
	token, ok := bearer(r)
	if !ok {
		return "", false
	}
	name, ok := s.Sessions[token]
	return name, ok
}

type userKey struct{}

// playerOnly requires a valid session and passes the user name on.
func (s *Server) playerOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := s.user(r)
		if !ok {
			writeJSONStatus(w, http.StatusUnauthorized, map[string]any{
				"error":   true,
				"message": "Oyuna başlamak için giriş yapmalısınız",
			})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, name)))
	}
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	name, ok := s.user(r)
	if !ok {
		writeJSON(w, map[string]any{"loggedIn": false})
		return
	}
	writeJSON(w, map[string]any{"loggedIn": true, "username": name})
}

// Credentials are issued out of band; the server only knows tokens.
func handleCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, http.StatusNotImplemented, map[string]any{
		"error":   true,
		"message": "Bu sunucuda oturumlar yapılandırılmış anahtarlarla açılır",
	})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"error": false, "message": "Çıkış yapıldı"})
}

// view runs fn on the engine goroutine and writes what it returns.
func (s *Server) view(w http.ResponseWriter, r *http.Request, fn func(*engine.Session) any) {
	var out any
	err := s.Eng.View(r.Context(), func(sess *engine.Session) { out = fn(sess) })
	if err != nil {
		http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.Status() })
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.CitySummaries() })
}

func (s *Server) handleCityDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var v *engine.CityView
	if err := s.Eng.View(r.Context(), func(sess *engine.Session) { v = sess.CityDetail(id) }); err != nil {
		http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
		return
	}
	if v == nil {
		http.Error(w, "city not found", http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleNeeds(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.NeedViews() })
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.IdeaViews() })
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.EventViews() })
}

func (s *Server) handleDiplomacy(w http.ResponseWriter, r *http.Request) {
	s.view(w, r, func(sess *engine.Session) any { return sess.RelationViews() })
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if s.DB == nil {
		s.view(w, r, func(sess *engine.Session) any { return sess.RecentLog(limit) })
		return
	}
	entries, err := s.DB.RecentLog(limit)
	if err != nil {
		slog.Error("read activity log", "error", err)
		http.Error(w, "log unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	saves, err := s.DB.ListSaves()
	if err != nil {
		slog.Error("list saves", "error", err)
		http.Error(w, "saves unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saves)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	allowed := allowedOrigins(s.CORSOrigins)
	s.Hub.serve(w, r, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin] || strings.HasSuffix(origin, "://"+r.Host)
	})
}

// command submits fn and maps the outcome to a status code: rejections
// are 422 with the result body, a finished game is 409.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(*engine.Session) (engine.Result, error)) {
	res, err := s.Eng.Do(r.Context(), fn)
	switch {
	case engine.IsGameOver(err):
		writeJSONStatus(w, http.StatusConflict, res)
	case err != nil:
		slog.Error("command failed", "command", res.Command, "error", err)
		http.Error(w, "command failed", http.StatusInternalServerError)
	case !res.OK:
		writeJSONStatus(w, http.StatusUnprocessableEntity, res)
	default:
		writeJSON(w, res)
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if !decode(w, r, &req) {
		return
	}
	d, err := rules.ParseDifficulty(req.Difficulty)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess := s.NewGame(d)
	user, _ := r.Context().Value(userKey{}).(string)

	res, err := s.Eng.Replace(r.Context(), sess, engine.CmdNewGame)
	if err != nil {
		http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
		return
	}
	s.SetOwner(user)
	if s.DB != nil {
		if err := s.DB.RecordSeed(sess.Seed); err != nil {
			slog.Warn("record seed", "error", err)
		}
	}
	slog.Info("game started", "user", user, "difficulty", d)
	writeJSON(w, res)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*engine.Session).CollectResources)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*engine.Session).AdvanceTurn)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID   string `json:"city_id"`
		Building string `json:"building"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.Build(req.CityID, building.TypeID(req.Building))
	})
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID     string `json:"city_id"`
		BuildingID string `json:"building_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.Repair(req.CityID, req.BuildingID)
	})
}

func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NeedID string `json:"need_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.FulfillNeed(req.NeedID)
	})
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"event_id"`
		Choice  int    `json:"choice"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.ResolveEvent(req.EventID, req.Choice)
	})
}

func (s *Server) handleAddIdea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.AddIdea(req.Text)
	})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IdeaID string `json:"idea_id"`
		Like   bool   `json:"like"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.VoteIdea(req.IdeaID, req.Like)
	})
}

func (s *Server) handleDiplomaticAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Empire string `json:"empire"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.DiplomaticAction(diplomacy.ActionID(req.Action), req.Empire)
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID string `json:"city_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.command(w, r, func(sess *engine.Session) (engine.Result, error) {
		return sess.SelectCity(req.CityID)
	})
}

func (s *Server) handleTutorial(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*engine.Session).CompleteTutorial)
}

type slotRequest struct {
	Slot string `json:"slot"`
}

func (s *Server) slot(req slotRequest) string {
	if req.Slot != "" {
		return req.Slot
	}
	return s.SaveSlot
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req slotRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	slot := s.slot(req)

	var saveErr error
	var turn int
	if err := s.Eng.View(r.Context(), func(sess *engine.Session) {
		turn = sess.Turn
		saveErr = s.DB.SaveSession(slot, s.Owner(), sess)
	}); err != nil {
		http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
		return
	}
	if saveErr != nil {
		slog.Error("save failed", "slot", slot, "error", saveErr)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"slot": slot, "turn": turn, "message": "game saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req slotRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	slot := s.slot(req)

	sess, err := s.DB.LoadSession(slot, s.LoadOptions)
	if errors.Is(err, persistence.ErrNoSave) {
		http.Error(w, "save not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load failed", "slot", slot, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	res, err := s.Eng.Replace(r.Context(), sess, engine.CmdLoad)
	if err != nil {
		http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req slotRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Slot == "" {
		http.Error(w, "slot required", http.StatusBadRequest)
		return
	}
	if err := s.DB.DeleteSave(req.Slot); err != nil {
		slog.Error("delete save failed", "slot", req.Slot, "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	slog.Info("save deleted", "slot", req.Slot)
	writeJSON(w, map[string]any{"slot": req.Slot, "message": "save deleted"})
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
