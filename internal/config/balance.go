package config

import (
	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/rules"
)

// PerDifficulty holds one integer per difficulty level.
type PerDifficulty struct {
	Easy   int `yaml:"easy" json:"easy"`
	Medium int `yaml:"medium" json:"medium"`
	Hard   int `yaml:"hard" json:"hard"`
}

// For picks the value for d.
func (p PerDifficulty) For(d rules.Difficulty) int {
	return rules.Pick(d, p.Easy, p.Medium, p.Hard)
}

// TaxEvasion fires before collection when both gauges are low.
type TaxEvasion struct {
	PrestigeBelow  int     `yaml:"prestige_below" json:"prestige_below"`
	HappinessBelow int     `yaml:"happiness_below" json:"happiness_below"`
	Chance         float64 `yaml:"chance" json:"chance"`
	PrestigeLoss   int     `yaml:"prestige_loss" json:"prestige_loss"`
}

// Balance holds gameplay balance configuration
type Balance struct {
	// Turn upkeep
	MaintenanceFactor float64       `yaml:"maintenance_factor" json:"maintenance_factor"`
	TurnDecay         PerDifficulty `yaml:"turn_decay" json:"turn_decay"`

	// Collection
	PrestigeDriftChance float64       `yaml:"prestige_drift_chance" json:"prestige_drift_chance"`
	CollectionPenalty   PerDifficulty `yaml:"collection_penalty" json:"collection_penalty"`
	TaxEvasion          TaxEvasion    `yaml:"tax_evasion" json:"tax_evasion"`

	// Diplomacy
	DiplomaticDriftChance float64 `yaml:"diplomatic_drift_chance" json:"diplomatic_drift_chance"`

	// Citizens
	NeedsRetention citizens.Retention `yaml:"needs_retention" json:"needs_retention"`
	StartingIdeas  int                `yaml:"starting_ideas" json:"starting_ideas"`
	IdeasPerTurn   [2]int             `yaml:"ideas_per_turn" json:"ideas_per_turn"` // inclusive range

	// Economy
	MarketDriftAmplitude float64 `yaml:"market_drift_amplitude" json:"market_drift_amplitude"`
}

// DefaultBalance returns the standard balance.
func DefaultBalance() Balance {
	return Balance{
		MaintenanceFactor:   1.5,
		TurnDecay:           PerDifficulty{Easy: 3, Medium: 5, Hard: 7},
		PrestigeDriftChance: 0.3,
		CollectionPenalty:   PerDifficulty{Easy: 8, Medium: 12, Hard: 16},
		TaxEvasion: TaxEvasion{
			PrestigeBelow:  20,
			HappinessBelow: 30,
			Chance:         0.4,
			PrestigeLoss:   2,
		},
		DiplomaticDriftChance: 0.3,
		NeedsRetention:        citizens.Retention{Policy: citizens.RetainReplace},
		StartingIdeas:         3,
		IdeasPerTurn:          [2]int{1, 2},
		MarketDriftAmplitude:  5,
	}
}

// Casual returns easier balance for casual players
func Casual() Balance {
	b := DefaultBalance()
	b.MaintenanceFactor = 1.25
	b.PrestigeDriftChance = 0.2
	b.TaxEvasion.Chance = 0.25
	b.MarketDriftAmplitude = 3
	return b
}

// Hard returns harsher balance for experienced players
func Hard() Balance {
	b := DefaultBalance()
	b.MaintenanceFactor = 1.75
	b.PrestigeDriftChance = 0.4
	b.DiplomaticDriftChance = 0.4
	b.TaxEvasion.Chance = 0.5
	b.MarketDriftAmplitude = 8
	return b
}
