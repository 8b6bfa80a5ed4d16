// Package ledger holds the player's resources and the affordability and
// payment primitives every other component goes through.
package ledger

import (
	"math"

	"github.com/talgya/vakif/internal/rules"
)

// Cost is a resource price. Zero fields are absent keys.
type Cost struct {
	Money     int `json:"money,omitempty"`
	Materials int `json:"materials,omitempty"`
	Workers   int `json:"workers,omitempty"`
}

// Scale multiplies every present key by f and rounds.
func (c Cost) Scale(f float64) Cost {
	return Cost{
		Money:     Round(float64(c.Money) * f),
		Materials: Round(float64(c.Materials) * f),
		Workers:   Round(float64(c.Workers) * f),
	}
}

// IsZero reports whether the cost has no present keys.
func (c Cost) IsZero() bool {
	return c.Money == 0 && c.Materials == 0 && c.Workers == 0
}

// Delta is a signed change applied to the ledger by rewards and effects.
type Delta struct {
	Money        int `json:"money,omitempty"`
	Materials    int `json:"materials,omitempty"`
	Workers      int `json:"workers,omitempty"`
	Happiness    int `json:"happiness,omitempty"`
	Prestige     int `json:"prestige,omitempty"`
	Relationship int `json:"relationship,omitempty"`
}

// Ledger is the mutable aggregate of player-held resources.
// Happiness and prestige are 0–100 gauges by convention; the ledger itself
// does not clamp them, callers that need a floor apply it.
type Ledger struct {
	Money        int `json:"money"`
	Materials    int `json:"materials"`
	Workers      int `json:"workers"`
	Happiness    int `json:"happiness"`
	Prestige     int `json:"prestige"`
	Relationship int `json:"relationship"`

	onChange func(reason string, after Ledger)
}

// New returns the starting ledger for a difficulty.
func New(d rules.Difficulty) *Ledger {
	l := &Ledger{Money: 1000, Materials: 500, Workers: 50, Happiness: 50, Prestige: 20}
	switch d {
	case rules.Easy:
		l.Money = Round(float64(l.Money) * 1.5)
		l.Materials = Round(float64(l.Materials) * 1.5)
		l.Workers = Round(float64(l.Workers) * 1.2)
		l.Happiness += 20
	case rules.Hard:
		l.Money = Round(float64(l.Money) * 0.7)
		l.Materials = Round(float64(l.Materials) * 0.7)
		l.Workers = Round(float64(l.Workers) * 0.8)
		l.Happiness -= 10
	}
	return l
}

// OnChange registers the ledger-changed notification. Only one listener is kept.
func (l *Ledger) OnChange(fn func(reason string, after Ledger)) {
	l.onChange = fn
}

func (l *Ledger) notify(reason string) {
	if l.onChange != nil {
		l.onChange(reason, l.Snapshot())
	}
}

// Snapshot returns a copy without the listener.
func (l *Ledger) Snapshot() Ledger {
	return Ledger{
		Money:        l.Money,
		Materials:    l.Materials,
		Workers:      l.Workers,
		Happiness:    l.Happiness,
		Prestige:     l.Prestige,
		Relationship: l.Relationship,
	}
}

// CanAfford is true iff every present cost key is covered.
func (l *Ledger) CanAfford(c Cost) bool {
	return l.Money >= c.Money && l.Materials >= c.Materials && l.Workers >= c.Workers
}

// Pay subtracts c without checking affordability; callers check first.
func (l *Ledger) Pay(c Cost, reason string) {
	l.Money -= c.Money
	l.Materials -= c.Materials
	l.Workers -= c.Workers
	l.notify(reason)
}

// Refund adds c back. Pay followed by Refund restores the ledger.
func (l *Ledger) Refund(c Cost, reason string) {
	l.Money += c.Money
	l.Materials += c.Materials
	l.Workers += c.Workers
	l.notify(reason)
}

// Apply adds every key of d.
func (l *Ledger) Apply(d Delta, reason string) {
	l.Money += d.Money
	l.Materials += d.Materials
	l.Workers += d.Workers
	l.Happiness += d.Happiness
	l.Prestige += d.Prestige
	l.Relationship += d.Relationship
	l.notify(reason)
}

// AdjustHappiness adds n and floors the result at 0.
func (l *Ledger) AdjustHappiness(n int, reason string) {
	l.Happiness = max(0, l.Happiness+n)
	l.notify(reason)
}

// AdjustPrestige adds n and floors the result at 0.
func (l *Ledger) AdjustPrestige(n int, reason string) {
	l.Prestige = max(0, l.Prestige+n)
	l.notify(reason)
}

// Round rounds to the nearest integer; halves go toward +Inf.
func Round(f float64) int {
	return int(math.Floor(f + 0.5))
}
