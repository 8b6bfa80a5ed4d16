// Package economy provides the empire-wide economic state, the market
// multipliers applied to city yields, and the per-turn collection formula.
package economy

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Trade tracks the empire's foreign trade volume.
type Trade struct {
	Imports int `json:"imports"`
	Exports int `json:"exports"`
	Balance int `json:"balance"`
}

// Economy is the macro state shared by every city.
type Economy struct {
	Inflation    float64            `json:"inflation"` // percent
	Trade        Trade              `json:"trade"`
	MarketPrices map[string]float64 `json:"market_prices"`
}

// Goods quoted on the imperial market, with their base prices in akçe.
var basePrices = map[string]float64{
	"grain":  2,
	"silk":   25,
	"spice":  20,
	"timber": 3,
}

// goodOrder fixes the noise channel of each good.
var goodOrder = []string{"grain", "silk", "spice", "timber"}

// New returns a stable economy at base prices.
func New() *Economy {
	prices := make(map[string]float64, len(basePrices))
	for g, p := range basePrices {
		prices[g] = p
	}
	return &Economy{MarketPrices: prices}
}

// SetTrade records trade volume and recomputes the balance.
func (e *Economy) SetTrade(imports, exports int) {
	e.Trade.Imports = imports
	e.Trade.Exports = exports
	e.Trade.Balance = exports - imports
}

// DemandFactor scales income by city prosperity.
func DemandFactor(prosperity int) float64 {
	return clamp(1+float64(prosperity-50)/100, 0.5, 1.5)
}

// TradeFactor scales income by imperial prestige.
func TradeFactor(prestige int) float64 {
	return clamp(1+float64(prestige-50)/200, 0.7, 1.3)
}

// StabilityFactor scales income and materials by inflation.
func StabilityFactor(inflation float64) float64 {
	return clamp(1-inflation/100, 0.8, 1.2)
}

// SuccessFactor is the share of nominal yield the waqf manages to collect.
func SuccessFactor(happiness, prestige int) float64 {
	return math.Min(1, 0.5+float64(happiness)/200+float64(prestige)/100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Drifter moves inflation and market prices along seeded simplex noise,
// so a saved game replays the same market history.
type Drifter struct {
	noise     opensimplex.Noise
	amplitude float64 // max inflation swing in percent; 0 disables drift
}

// NewDrifter creates a drifter for a game seed.
func NewDrifter(seed int64, amplitude float64) *Drifter {
	return &Drifter{noise: opensimplex.New(seed), amplitude: amplitude}
}

const driftFrequency = 0.15

// Apply sets the economy to its drifted values for turn.
func (d *Drifter) Apply(e *Economy, turn int) {
	if d == nil || d.amplitude == 0 {
		return
	}
	x := float64(turn) * driftFrequency
	e.Inflation = math.Round(d.amplitude*d.noise.Eval2(x, 0)*100) / 100

	if e.MarketPrices == nil {
		e.MarketPrices = make(map[string]float64, len(basePrices))
	}
	swing := d.amplitude / 25 // amplitude 5 gives ±20% prices
	for i, g := range goodOrder {
		n := d.noise.Eval2(x, float64(i+1)*10)
		p := basePrices[g] * (1 + swing*n)
		e.MarketPrices[g] = math.Round(p*100) / 100
	}
}
