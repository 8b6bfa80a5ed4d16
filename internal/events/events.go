// Package events rolls random events, scales them by difficulty and
// resolves player choices, tracking the escalation counters that can end
// the game.
package events

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// BaseProbability is the per-turn chance of an event on medium difficulty.
const BaseProbability = 0.3

// Probability returns the per-turn event chance for a difficulty.
func Probability(d rules.Difficulty) float64 {
	return BaseProbability + rules.Pick(d, -0.1, 0, 0.2)
}

// Counters are the escalation tallies an event accumulates across choices.
type Counters struct {
	WarNegativeSupport int `json:"war_negative_support"`
	DefenseSupport     int `json:"defense_support_count"`
	Stability          int `json:"stability_count"`
}

// Event is a rolled, difficulty-scaled instance of a template.
type Event struct {
	ID             string     `json:"id"`
	Type           Kind       `json:"type"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Choices        []Choice   `json:"choices"`
	Empire         string     `json:"empire,omitempty"` // visiting empire for foreign_diplomat
	Turn           int        `json:"turn"`
	TimeCreated    time.Time  `json:"time_created"`
	IsActive       bool       `json:"is_active"`
	Counters       Counters   `json:"counters"`
	ResolvedChoice *int       `json:"resolved_choice,omitempty"`
	ResolvedTime   *time.Time `json:"resolved_time,omitempty"`
}

// Roller decides whether an event happens and instantiates it.
type Roller struct {
	Difficulty rules.Difficulty
	Rng        entropy.Source
	Clock      clock.Clock
	Empires    []string // candidates for a visiting diplomat
}

// Roll returns a new active event, or nil when none occurs this turn.
func (r *Roller) Roll(turn int) *Event {
	if !entropy.Chance(r.Rng, Probability(r.Difficulty)) {
		return nil
	}
	t := templates[r.Rng.Intn(len(templates))]
	ev := Instantiate(&t, r.Difficulty)
	ev.Turn = turn
	if r.Clock != nil {
		ev.TimeCreated = r.Clock.Now()
	}
	if t.Kind == ForeignDiplomat && len(r.Empires) > 0 {
		ev.Empire = r.Empires[r.Rng.Intn(len(r.Empires))]
	}
	slog.Info("event rolled", "turn", turn, "type", ev.Type, "empire", ev.Empire)
	return ev
}

// Instantiate copies a template into an active event scaled for d. The
// template itself is never modified.
func Instantiate(t *Template, d rules.Difficulty) *Event {
	choices := make([]Choice, len(t.Choices))
	for i, c := range t.Choices {
		choices[i] = scaleChoice(c, d)
	}
	return &Event{
		ID:          uuid.NewString(),
		Type:        t.Kind,
		Title:       t.Title,
		Description: t.Description,
		Choices:     choices,
		TimeCreated: time.Now(),
		IsActive:    true,
	}
}

// Hard raises costs and weakens every effect's favorable side; easy does
// the reverse.
func scaleChoice(c Choice, d rules.Difficulty) Choice {
	if c.Effects.GameOver != nil {
		doom := *c.Effects.GameOver
		c.Effects.GameOver = &doom
	}
	if d != rules.Easy && d != rules.Hard {
		return c
	}
	c.Cost = c.Cost.Scale(rules.Pick(d, 0.7, 1, 1.3))
	gain := rules.Pick(d, 1.2, 1, 0.8)
	loss := rules.Pick(d, 0.8, 1, 1.2)
	scale := func(v int) int {
		switch {
		case v > 0:
			return ledger.Round(float64(v) * gain)
		case v < 0:
			return ledger.Round(float64(v) * loss)
		}
		return 0
	}
	c.Effects.Happiness = scale(c.Effects.Happiness)
	c.Effects.Prestige = scale(c.Effects.Prestige)
	c.Effects.Money = scale(c.Effects.Money)
	return c
}

// Outcome describes a successful resolution or a defeat.
type Outcome struct {
	Event    *Event       `json:"event"`
	Choice   int          `json:"choice"`
	Applied  ledger.Delta `json:"applied"`
	GameOver bool         `json:"game_over"`
	Message  string       `json:"message,omitempty"`
}

// Board holds active and resolved events.
type Board struct {
	Active  []*Event `json:"active"`
	History []*Event `json:"history"`
}

// Add activates a rolled event.
func (b *Board) Add(ev *Event) {
	if ev != nil {
		b.Active = append(b.Active, ev)
	}
}

// Find returns the active event with the given id.
func (b *Board) Find(id string) *Event {
	for _, ev := range b.Active {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

// Newest returns active events newest first.
func (b *Board) Newest() []*Event {
	out := slices.Clone(b.Active)
	slices.SortStableFunc(out, func(a, c *Event) int { return c.TimeCreated.Compare(a.TimeCreated) })
	return out
}

// Resolve applies a choice. Escalation counters and defeat clauses are
// evaluated before affordability, so counters advance even when the choice
// is then rejected for lack of resources. A defeat applies nothing else.
func (b *Board) Resolve(id string, choice int, l *ledger.Ledger, rng entropy.Source, now time.Time) (Outcome, error) {
	idx := slices.IndexFunc(b.Active, func(ev *Event) bool { return ev.ID == id })
	if idx < 0 {
		return Outcome{}, rules.Reject("Olay bulunamadı")
	}
	ev := b.Active[idx]
	if choice < 0 || choice >= len(ev.Choices) {
		return Outcome{}, rules.Reject("Geçersiz seçim")
	}
	c := ev.Choices[choice]

	if msg, lost := ev.escalate(c.Effects); lost {
		slog.Warn("event escalation ended the game", "event", ev.Type, "counters", fmt.Sprintf("%+v", ev.Counters))
		return Outcome{Event: ev, Choice: choice, GameOver: true, Message: msg}, nil
	}
	if doom := c.Effects.GameOver; doom != nil && entropy.Chance(rng, doom.Chance) {
		slog.Warn("event defeat clause fired", "event", ev.Type, "chance", doom.Chance)
		return Outcome{Event: ev, Choice: choice, GameOver: true, Message: doom.Message}, nil
	}

	if !l.CanAfford(c.Cost) {
		return Outcome{}, rules.Reject("Bu seçim için yeterli kaynağınız yok")
	}
	l.Pay(c.Cost, "event choice")
	l.Apply(c.Effects.Delta, "event effects")

	ev.IsActive = false
	ev.ResolvedChoice = &choice
	ev.ResolvedTime = &now
	b.Active = slices.Delete(b.Active, idx, idx+1)
	b.History = append(b.History, ev)

	slog.Info("event resolved", "event", ev.Type, "choice", choice)
	return Outcome{Event: ev, Choice: choice, Applied: c.Effects.Delta}, nil
}

// Clone returns a deep copy that shares nothing with the board.
func (ev *Event) Clone() *Event {
	if ev == nil {
		return nil
	}
	c := *ev
	c.Choices = slices.Clone(ev.Choices)
	for i := range c.Choices {
		if doom := c.Choices[i].Effects.GameOver; doom != nil {
			d := *doom
			c.Choices[i].Effects.GameOver = &d
		}
	}
	if ev.ResolvedChoice != nil {
		choice := *ev.ResolvedChoice
		c.ResolvedChoice = &choice
	}
	if ev.ResolvedTime != nil {
		t := *ev.ResolvedTime
		c.ResolvedTime = &t
	}
	return &c
}

func (ev *Event) escalate(e Effects) (string, bool) {
	switch ev.Type {
	case War:
		if e.WarSupport < 0 {
			ev.Counters.WarNegativeSupport++
		}
		if ev.Counters.WarNegativeSupport >= 3 {
			return "Sürekli savaştan kaçınmanız sonucu ordumuz zayıfladı ve düşman güçleri şehri ele geçirdi!", true
		}
	case EnemyAttack:
		ev.Counters.DefenseSupport += e.DefenseSupport
		if ev.Counters.DefenseSupport <= -2 {
			return "Savunma hazırlıklarının yetersizliği nedeniyle şehir düşman eline geçti!", true
		}
	case Rebellion:
		ev.Counters.Stability += e.Stability
		if ev.Counters.Stability <= -2 {
			return "İsyanı bastırmakta başarısız oldunuz! Vakıf yönetimi devrildi.", true
		}
	}
	return "", false
}
