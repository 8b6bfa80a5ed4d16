package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

func town(pop, prosperity int) *city.City {
	return &city.City{
		ID: "t", Name: "Kasaba", Population: pop, Prosperity: prosperity,
		Resources: city.Output{Production: 10},
	}
}

func collector(d rules.Difficulty, roll float64) *Collector {
	return &Collector{Difficulty: d, PrestigeDriftChance: 0.3, Rng: entropy.NewSequence(roll)}
}

func TestMultipliers_Clamped(t *testing.T) {
	assert.InDelta(t, 0.5, DemandFactor(-100), 1e-9)
	assert.InDelta(t, 1.0, DemandFactor(50), 1e-9)
	assert.InDelta(t, 1.5, DemandFactor(200), 1e-9)
	assert.InDelta(t, 0.7, TradeFactor(-500), 1e-9)
	assert.InDelta(t, 1.25, TradeFactor(100), 1e-9)
	assert.InDelta(t, 1.2, StabilityFactor(-50), 1e-9)
	assert.InDelta(t, 0.8, StabilityFactor(40), 1e-9)
	assert.InDelta(t, 0.95, StabilityFactor(5), 1e-9)
}

func TestSuccessFactor(t *testing.T) {
	assert.InDelta(t, 1.0, SuccessFactor(100, 50), 1e-9)
	assert.InDelta(t, 0.75, SuccessFactor(50, 0), 1e-9)
	assert.InDelta(t, 0.5, SuccessFactor(0, 0), 1e-9)
}

func TestCollect_SingleCityFormula(t *testing.T) {
	l := &ledger.Ledger{Money: 100, Happiness: 100, Prestige: 50}
	out := collector(rules.Medium, 0.99).Collect([]*city.City{town(100000, 50)}, l, New())

	// eff = 1 × 0.6; waqf 30 + charity 15 − upkeep 10.
	require.Len(t, out.Cities, 1)
	y := out.Cities[0]
	assert.InDelta(t, 45.0, y.Income, 1e-9)
	assert.Equal(t, 10, y.Maintenance)
	assert.InDelta(t, 35.0, y.Net, 1e-9)

	assert.Equal(t, 35, out.Income)
	assert.Equal(t, 12, out.Materials)
	assert.Equal(t, 1, out.Workers)
	assert.Equal(t, 135, l.Money)
	assert.Equal(t, 12, l.Materials)
	assert.Equal(t, 50, l.Prestige)
	assert.False(t, out.PrestigeDrop)
}

func TestCollect_DifficultyLowersYield(t *testing.T) {
	yield := func(d rules.Difficulty) int {
		l := &ledger.Ledger{Happiness: 100, Prestige: 50}
		return collector(d, 0.99).Collect([]*city.City{town(400000, 80)}, l, New()).Income
	}
	assert.Greater(t, yield(rules.Easy), yield(rules.Medium))
	assert.Greater(t, yield(rules.Medium), yield(rules.Hard))
}

func TestCollect_LossClampedToHalfOfMoney(t *testing.T) {
	c := town(100000, 0)
	ft, _ := building.Lookup(building.Fountain)
	for i := 0; i < 9; i++ {
		c.Buildings = append(c.Buildings, building.New("b", ft))
	}
	l := &ledger.Ledger{Money: 100, Happiness: 0, Prestige: 0}

	out := collector(rules.Medium, 0.99).Collect([]*city.City{c}, l, New())
	assert.InDelta(t, -100.0, out.Cities[0].Net, 1e-9)
	assert.Equal(t, -50, out.Income)
	assert.Equal(t, 50, l.Money)
	assert.Contains(t, out.Log[0], "Kasaba")
}

func TestCollect_BuildingIncomeCounts(t *testing.T) {
	plain := town(100000, 50)
	withMarket := town(100000, 50)
	mt, _ := building.Lookup(building.Market)
	mk := building.New("mk", mt)
	mk.Status = building.StatusCompleted
	mk.Condition = 100
	withMarket.Buildings = []*building.Instance{mk}

	run := func(c *city.City) CityYield {
		l := &ledger.Ledger{Happiness: 100, Prestige: 50}
		return collector(rules.Medium, 0.99).Collect([]*city.City{c}, l, New()).Cities[0]
	}
	a, b := run(plain), run(withMarket)
	// One more building raises upkeep by 10; the market yields 80.
	assert.InDelta(t, a.Net+80-10, b.Net, 1e-9)
}

func TestCollect_SkipsMalformedCity(t *testing.T) {
	good := town(100000, 50)
	bad := town(-5, 50)
	bad.ID = "bad"
	l := &ledger.Ledger{Happiness: 100, Prestige: 50}

	out := collector(rules.Medium, 0.99).Collect([]*city.City{bad, nil, good}, l, New())
	assert.Equal(t, []string{"bad", "#1"}, out.Skipped)
	require.Len(t, out.Cities, 1)
	assert.Equal(t, 35, out.Income)
}

func TestCollect_PrestigeDrift(t *testing.T) {
	l := &ledger.Ledger{Happiness: 50, Prestige: 20}
	out := collector(rules.Medium, 0).Collect(nil, l, New())
	assert.True(t, out.PrestigeDrop)
	assert.Equal(t, 19, l.Prestige)

	zero := &ledger.Ledger{Happiness: 50}
	out = collector(rules.Medium, 0).Collect(nil, zero, New())
	assert.False(t, out.PrestigeDrop)
	assert.Zero(t, zero.Prestige)
}

func TestCollect_LowSuccessLogsEfficiency(t *testing.T) {
	l := &ledger.Ledger{Happiness: 20, Prestige: 5}
	out := collector(rules.Medium, 0.99).Collect([]*city.City{town(50000, 50)}, l, New())
	assert.InDelta(t, 0.65, out.SuccessFactor, 1e-9)
	assert.Contains(t, out.Log[0], "%65")
}

func TestCollect_InflationReducesIncome(t *testing.T) {
	run := func(inflation float64) int {
		l := &ledger.Ledger{Happiness: 100, Prestige: 50}
		e := New()
		e.Inflation = inflation
		return collector(rules.Medium, 0.99).Collect([]*city.City{town(400000, 50)}, l, e).Income
	}
	assert.Less(t, run(15), run(0))
}

func TestDrifter_DeterministicAndBounded(t *testing.T) {
	a, b := New(), New()
	NewDrifter(42, 5).Apply(a, 7)
	NewDrifter(42, 5).Apply(b, 7)
	assert.Equal(t, a, b)

	for turn := 0; turn < 50; turn++ {
		e := New()
		NewDrifter(42, 5).Apply(e, turn)
		assert.LessOrEqual(t, e.Inflation, 5.0)
		assert.GreaterOrEqual(t, e.Inflation, -5.0)
		for g, p := range e.MarketPrices {
			assert.InDelta(t, basePrices[g], p, basePrices[g]*0.2+0.01, g)
		}
	}
}

func TestDrifter_ZeroAmplitudeDisabled(t *testing.T) {
	e := New()
	NewDrifter(1, 0).Apply(e, 10)
	assert.Equal(t, New(), e)

	var d *Drifter
	d.Apply(e, 3)
	assert.Zero(t, e.Inflation)
}

func TestSetTrade(t *testing.T) {
	e := New()
	e.SetTrade(300, 450)
	assert.Equal(t, Trade{Imports: 300, Exports: 450, Balance: 150}, e.Trade)
}
