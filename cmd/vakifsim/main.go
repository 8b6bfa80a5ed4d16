// Command vakifsim serves the waqf city-management game over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/talgya/vakif/internal/api"
	"github.com/talgya/vakif/internal/config"
	"github.com/talgya/vakif/internal/engine"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/persistence"
	"github.com/talgya/vakif/internal/rules"
)

func main() {
	configPath := flag.String("config", os.Getenv("VAKIF_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.FromEnv(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Vakıf: Ottoman waqf management", "difficulty", cfg.Game.Difficulty, "port", cfg.Server.Port)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755)
	db, err := persistence.Open(cfg.Server.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Server.DBPath)

	// ── Randomness ────────────────────────────────────────────────────
	balance := cfg.Balance
	var source entropy.Source
	if client := entropy.NewClient(cfg.Game.RandomOrgKey); client != nil {
		slog.Info("random.org entropy enabled")
		source = client
	}
	newGame := func(d rules.Difficulty) *engine.Session {
		return engine.NewSession(engine.Options{
			Difficulty: d,
			Balance:    &balance,
			Seed:       cfg.Game.Seed,
			Rng:        source,
		})
	}
	loadOpts := engine.Options{Balance: &balance, Rng: source}

	// ── Load or Start Game ────────────────────────────────────────────
	sess, err := db.LoadSession(cfg.Game.SaveSlot, loadOpts)
	switch {
	case err == nil:
		slog.Info("save restored", "slot", cfg.Game.SaveSlot, "turn", sess.Turn, "difficulty", sess.Difficulty)
	case errors.Is(err, persistence.ErrNoSave):
		sess = newGame(cfg.Difficulty())
		slog.Info("no save found, new game started", "seed", sess.Seed, "previous_seed", db.LastSeed())
		if err := db.RecordSeed(sess.Seed); err != nil {
			slog.Warn("record seed", "error", err)
		}
	default:
		slog.Error("failed to load save", "slot", cfg.Game.SaveSlot, "error", err)
		os.Exit(1)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.New(sess)
	hub := api.NewHub()

	apiServer := &api.Server{
		Eng:            eng,
		DB:             db,
		Hub:            hub,
		Port:           cfg.Server.Port,
		AdminKey:       cfg.Server.AdminKey,
		Sessions:       cfg.Server.SessionTokens,
		CORSOrigins:    cfg.Server.CORSOrigins,
		SaveSlot:       cfg.Game.SaveSlot,
		RatePerSecond:  cfg.Server.RatePerSecond,
		RateBurst:      cfg.Server.RateBurst,
		TrustedProxies: cfg.Server.TrustedProxies,
		NewGame:        newGame,
		LoadOptions:    loadOpts,
	}

	// Wire result fan-out and autosave after every turn.
	eng.Subscribe(hub.Publish)
	eng.Subscribe(func(res engine.Result) {
		if err := db.AppendResult(res); err != nil {
			slog.Error("activity log write failed", "command", res.Command, "error", err)
		}
	})
	eng.OnTurn = func(s *engine.Session) {
		if err := db.SaveSession(cfg.Game.SaveSlot, apiServer.Owner(), s); err != nil {
			slog.Error("autosave failed", "turn", s.Turn, "error", err)
		}
	}

	if cfg.Server.AdminKey == "" {
		slog.Warn("VAKIF_ADMIN_KEY not set, save/load endpoints will be disabled")
	}
	if len(cfg.Server.SessionTokens) == 0 {
		slog.Warn("no session tokens configured, anyone may start a game")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	httpServer := apiServer.Start(ctx)

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	eng.Run(ctx)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveSession(cfg.Game.SaveSlot, apiServer.Owner(), eng.Session()); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Game stopped. Progress saved.")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
