package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/diplomacy"
	"github.com/talgya/vakif/internal/economy"
	"github.com/talgya/vakif/internal/events"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// Snapshot is the saved form of a session. Every field round-trips.
type Snapshot struct {
	Difficulty        rules.Difficulty   `json:"difficulty"`
	Turn              int                `json:"turn"`
	Resources         ledger.Ledger      `json:"resources"`
	Cities            []*city.City       `json:"cities"`
	SelectedCityID    string             `json:"selected_city_id"`
	Needs             []*citizens.Need   `json:"needs"`
	Ideas             []*citizens.Idea   `json:"ideas"`
	ActiveEvents      []*events.Event    `json:"active_events"`
	EventHistory      []*events.Event    `json:"event_history"`
	TutorialCompleted bool               `json:"tutorial_completed"`
	Army              Army               `json:"army"`
	Diplomacy         *diplomacy.State   `json:"diplomacy"`
	Economy           *economy.Economy   `json:"economy"`
	Disasters         Disasters          `json:"disasters"`
	GameOver          bool               `json:"game_over"`
	GameOverReason    string             `json:"game_over_reason,omitempty"`
	Flags             Flags              `json:"flags"`
	Log               []LogEntry         `json:"log"`
	Seed              int64              `json:"seed"`
	Retention         citizens.Retention `json:"needs_retention"`
	SavedDate         time.Time          `json:"saved_date"`
}

// Save encodes the session. It must run on the goroutine that owns s.
func (s *Session) Save() ([]byte, error) {
	snap := Snapshot{
		Difficulty:        s.Difficulty,
		Turn:              s.Turn,
		Resources:         s.Ledger.Snapshot(),
		Cities:            s.Cities,
		SelectedCityID:    s.SelectedCityID,
		Needs:             s.Needs.Needs,
		Ideas:             s.Ideas.Ideas,
		ActiveEvents:      s.Events.Active,
		EventHistory:      s.Events.History,
		TutorialCompleted: s.TutorialCompleted,
		Army:              s.Army,
		Diplomacy:         s.Diplomacy,
		Economy:           s.Economy,
		Disasters:         s.Disasters,
		GameOver:          s.GameOver,
		GameOverReason:    s.GameOverReason,
		Flags:             s.Flags,
		Log:               s.Log,
		Seed:              s.Seed,
		Retention:         s.Needs.Retention,
		SavedDate:         s.clock.Now().UTC(),
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Load decodes a saved session. opts supplies the collaborators that are
// not saved; a nil Balance keeps the saved needs retention policy.
func Load(data []byte, opts Options) (*Session, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	d, err := rules.ParseDifficulty(string(snap.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Turn < 1 {
		return nil, fmt.Errorf("decode snapshot: invalid turn %d", snap.Turn)
	}
	for i, c := range snap.Cities {
		if c == nil {
			return nil, fmt.Errorf("decode snapshot: empty city at %d", i)
		}
		for _, b := range c.Buildings {
			if b.Type() == nil {
				return nil, fmt.Errorf("decode snapshot: city %s has unknown building type %q", c.ID, b.TypeID)
			}
		}
	}

	resources := snap.Resources
	s := &Session{
		Difficulty:        d,
		Turn:              snap.Turn,
		Ledger:            &resources,
		Cities:            snap.Cities,
		SelectedCityID:    snap.SelectedCityID,
		Events:            &events.Board{Active: snap.ActiveEvents, History: snap.EventHistory},
		Diplomacy:         snap.Diplomacy,
		Economy:           snap.Economy,
		Army:              snap.Army,
		Disasters:         snap.Disasters,
		TutorialCompleted: snap.TutorialCompleted,
		GameOver:          snap.GameOver,
		GameOverReason:    snap.GameOverReason,
		Flags:             snap.Flags,
		Log:               snap.Log,
		Seed:              snap.Seed,
	}
	if len(s.Cities) == 0 {
		s.Cities = city.Catalog()
	}
	if s.Diplomacy == nil {
		s.Diplomacy = diplomacy.New()
	}
	if s.Economy == nil {
		s.Economy = economy.New()
	}
	s.wire(opts)

	retention := snap.Retention
	if opts.Balance != nil || retention.Policy == "" {
		retention = s.balance.NeedsRetention
	}
	s.Needs = &citizens.Board{Needs: snap.Needs, Retention: retention}
	s.Ideas = citizens.NewIdeaBox(s.clock)
	s.Ideas.Ideas = snap.Ideas
	return s, nil
}
