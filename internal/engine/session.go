// Package engine owns a running game: the session aggregate, the turn
// scheduler, player commands and the serialized command queue.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/config"
	"github.com/talgya/vakif/internal/diplomacy"
	"github.com/talgya/vakif/internal/economy"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/events"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// Army is the standing army carried in saves.
type Army struct {
	Infantry        int `json:"infantry"`
	Cavalry         int `json:"cavalry"`
	Artillery       int `json:"artillery"`
	Janissaries     int `json:"janissaries"`
	Sipahi          int `json:"sipahi"`
	Morale          int `json:"morale"` // 0–100
	Experience      int `json:"experience"`
	Training        int `json:"training"`
	MaintenanceCost int `json:"maintenance_cost"`
	BattleReadiness int `json:"battle_readiness"`
}

// Disasters tracks natural disaster exposure.
type Disasters struct {
	Active       []string `json:"active"`
	Risk         int      `json:"risk"`
	Preparedness int      `json:"preparedness"`
}

// Flags are the per-turn gates. All reset when a turn advances.
type Flags struct {
	Collected      bool `json:"collected"`
	NeedsGenerated bool `json:"needs_generated"`
	EventChecked   bool `json:"event_checked"`
}

// LogEntry is one line of the player-facing activity log.
type LogEntry struct {
	Turn        int    `json:"turn" db:"turn"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "economy", "building", "event", "turn", etc.
}

// maxLog bounds the in-memory log; persistence keeps the full history.
const maxLog = 500

// Options configure a new or restored session. Zero values pick defaults.
type Options struct {
	Difficulty rules.Difficulty
	Balance    *config.Balance
	Seed       int64          // 0 picks a time-based seed
	Rng        entropy.Source // overrides the seeded source
	Clock      clock.Clock
}

func (o Options) balance() config.Balance {
	if o.Balance == nil {
		return config.DefaultBalance()
	}
	return *o.Balance
}

// Session is a single game: every piece of mutable state a player can
// touch, owned by exactly one goroutine at a time.
type Session struct {
	Difficulty        rules.Difficulty
	Turn              int
	Ledger            *ledger.Ledger
	Cities            []*city.City
	SelectedCityID    string
	Needs             *citizens.Board
	Ideas             *citizens.IdeaBox
	Events            *events.Board
	Diplomacy         *diplomacy.State
	Economy           *economy.Economy
	Army              Army
	Disasters         Disasters
	TutorialCompleted bool
	GameOver          bool
	GameOverReason    string
	Flags             Flags
	Log               []LogEntry
	Seed              int64

	rng     entropy.Source
	clock   clock.Clock
	balance config.Balance
	drifter *economy.Drifter
	pending []string // log lines of the command in progress
}

func defaultArmy() Army {
	return Army{Morale: 100, BattleReadiness: 100}
}

// NewSession starts a game on turn 1 with the starting ledger for the
// difficulty, the full city catalog, a few citizen ideas and the first
// batch of needs.
func NewSession(opts Options) *Session {
	d := opts.Difficulty
	if d == "" {
		d = rules.Medium
	}
	s := &Session{
		Difficulty: d,
		Turn:       1,
		Ledger:     ledger.New(d),
		Cities:     city.Catalog(),
		Events:     &events.Board{},
		Diplomacy:  diplomacy.New(),
		Economy:    economy.New(),
		Army:       defaultArmy(),
		Disasters:  Disasters{Active: []string{}, Preparedness: 100},
	}
	s.wire(opts)
	s.Needs = &citizens.Board{Retention: s.balance.NeedsRetention}
	s.Ideas = citizens.NewIdeaBox(s.clock)
	s.Ideas.Seed(s.balance.StartingIdeas, s.rng)

	s.notef("game", "Oyun %s zorluk seviyesinde başlatıldı. Bir şehir seçin.", difficultyName(d))
	s.generateNeeds()
	s.pending = nil

	slog.Info("new game", "difficulty", d, "seed", s.Seed, "money", s.Ledger.Money)
	return s
}

// wire attaches the unexported collaborators from opts.
func (s *Session) wire(opts Options) {
	s.balance = opts.balance()
	s.clock = opts.Clock
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.Seed == 0 {
		s.Seed = opts.Seed
	}
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
	}
	s.rng = opts.Rng
	if s.rng == nil {
		// A restored game continues from a different stream than it started.
		s.rng = entropy.NewSeeded(s.Seed + int64(s.Turn))
	}
	s.drifter = economy.NewDrifter(s.Seed, s.balance.MarketDriftAmplitude)
	s.Ledger.OnChange(func(reason string, after ledger.Ledger) {
		slog.Debug("ledger changed", "reason", reason, "money", after.Money, "materials", after.Materials,
			"workers", after.Workers, "happiness", after.Happiness, "prestige", after.Prestige)
	})
}

// Balance returns the policy numbers the session plays by.
func (s *Session) Balance() config.Balance { return s.balance }

// Now returns the session clock's time.
func (s *Session) Now() time.Time { return s.clock.Now() }

// City returns the city with the given id, or nil.
func (s *Session) City(id string) *city.City {
	return city.Find(s.Cities, id)
}

// note appends a line to the activity log and to the current command's result.
func (s *Session) note(category, line string) {
	s.Log = append(s.Log, LogEntry{Turn: s.Turn, Description: line, Category: category})
	if len(s.Log) > maxLog {
		s.Log = s.Log[len(s.Log)-maxLog:]
	}
	s.pending = append(s.pending, line)
}

func (s *Session) notef(category, format string, args ...any) {
	s.note(category, fmt.Sprintf(format, args...))
}

// endGame enters the terminal state.
func (s *Session) endGame(reason string) {
	s.GameOver = true
	s.GameOverReason = reason
	s.notef("game", "OYUN SONA ERDİ: %s", reason)
	slog.Warn("game over", "turn", s.Turn, "reason", reason)
}

func difficultyName(d rules.Difficulty) string {
	return rules.Pick(d, "Kolay", "Orta", "Zor")
}
