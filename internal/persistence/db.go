// Package persistence stores saved games and the activity log in SQLite.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/vakif/internal/engine"
)

// ErrNoSave is returned when a save slot does not exist.
var ErrNoSave = errors.New("save not found")

// DB wraps a SQLite connection for game persistence.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		turn INTEGER NOT NULL,
		game_over INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		command TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_turn ON activity_log(turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRecord describes a save slot without its snapshot.
type SaveRecord struct {
	Slot       string `db:"slot" json:"slot"`
	Owner      string `db:"owner" json:"owner"`
	Difficulty string `db:"difficulty" json:"difficulty"`
	Turn       int    `db:"turn" json:"turn"`
	GameOver   bool   `db:"game_over" json:"game_over"`
	CreatedAt  int64  `db:"created_at" json:"created_at"` // unix seconds
	UpdatedAt  int64  `db:"updated_at" json:"updated_at"`
}

// SaveSession writes a session into a slot, replacing what was there.
// It encodes the session, so call it from the goroutine that owns s.
func (db *DB) SaveSession(slot, owner string, s *engine.Session) error {
	data, err := s.Save()
	if err != nil {
		return err
	}
	now := db.now().Unix()
	_, err = db.conn.Exec(`INSERT INTO saves
		(slot, owner, difficulty, turn, game_over, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			owner = excluded.owner,
			difficulty = excluded.difficulty,
			turn = excluded.turn,
			game_over = excluded.game_over,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		slot, owner, string(s.Difficulty), s.Turn, s.GameOver, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot, "turn", s.Turn, "bytes", len(data))
	return nil
}

// LoadSession restores the session stored in slot.
func (db *DB) LoadSession(slot string, opts engine.Options) (*engine.Session, error) {
	var data string
	err := db.conn.Get(&data, "SELECT snapshot FROM saves WHERE slot = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load slot %s: %w", slot, ErrNoSave)
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	s, err := engine.Load([]byte(data), opts)
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return s, nil
}

// ListSaves returns every save slot, most recently updated first.
func (db *DB) ListSaves() ([]SaveRecord, error) {
	var saves []SaveRecord
	err := db.conn.Select(&saves,
		`SELECT slot, owner, difficulty, turn, game_over, created_at, updated_at
		 FROM saves ORDER BY updated_at DESC, slot`)
	return saves, err
}

// DeleteSave removes a slot. Deleting a missing slot is not an error.
func (db *DB) DeleteSave(slot string) error {
	_, err := db.conn.Exec("DELETE FROM saves WHERE slot = ?", slot)
	return err
}

// AppendResult appends a command's log lines to the activity log.
func (db *DB) AppendResult(res engine.Result) error {
	if len(res.Log) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, line := range res.Log {
		_, err := tx.Exec(
			"INSERT INTO activity_log (turn, command, description, category) VALUES (?, ?, ?, ?)",
			res.Turn, res.Command, line, res.Command,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentLog returns the most recent N activity lines, newest first.
func (db *DB) RecentLog(limit int) ([]engine.LogEntry, error) {
	var entries []engine.LogEntry
	err := db.conn.Select(&entries,
		"SELECT turn, description, category FROM activity_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// SaveMeta stores a key-value pair in game metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}

// RecordSeed remembers the seed of the game last started, so a crashed
// server without a save can still tell which world it was playing.
func (db *DB) RecordSeed(seed int64) error {
	return db.SaveMeta("last_seed", strconv.FormatInt(seed, 10))
}

// LastSeed returns the recorded seed, or 0 when none was recorded.
func (db *DB) LastSeed() int64 {
	v, err := db.GetMeta("last_seed")
	if err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
