package economy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// CollectionMultiplier is the difficulty share of nominal yield.
func CollectionMultiplier(d rules.Difficulty) float64 {
	return rules.Pick(d, 0.8, 0.6, 0.5)
}

// CityYield is one city's contribution to a collection.
type CityYield struct {
	CityID      string  `json:"city_id"`
	Income      float64 `json:"income"`
	Materials   float64 `json:"materials"`
	Workers     int     `json:"workers"`
	Maintenance int     `json:"maintenance"`
	Net         float64 `json:"net"` // income + building income − maintenance
}

// Collection is the outcome of one resource collection.
type Collection struct {
	Income        int         `json:"income"`
	Materials     int         `json:"materials"`
	Workers       int         `json:"workers"`
	SuccessFactor float64     `json:"success_factor"`
	PrestigeDrop  bool        `json:"prestige_drop"`
	Cities        []CityYield `json:"cities"`
	Skipped       []string    `json:"skipped,omitempty"`
	Log           []string    `json:"log,omitempty"`
}

// Collector computes and credits collections.
type Collector struct {
	Difficulty          rules.Difficulty
	PrestigeDriftChance float64
	Rng                 entropy.Source
}

// Collect credits the ledger with every city's yield. A city whose data
// cannot be evaluated is logged and skipped; the rest still pay out.
func (c *Collector) Collect(cities []*city.City, l *ledger.Ledger, econ *Economy) Collection {
	success := SuccessFactor(l.Happiness, l.Prestige)
	eff := success * CollectionMultiplier(c.Difficulty)
	out := Collection{SuccessFactor: success}

	var income, materials float64
	workers := 0
	for i, ct := range cities {
		y, err := c.cityYield(ct, l, econ, eff)
		if err != nil {
			id := fmt.Sprintf("#%d", i)
			if ct != nil {
				id = ct.ID
			}
			slog.Error("collection skipped city", "city", id, "error", err)
			out.Skipped = append(out.Skipped, id)
			continue
		}
		if l.Prestige > 70 {
			out.Log = append(out.Log, "Vakfınızın yüksek itibarı sayesinde bağışlar arttı!")
		}
		if y.Net < 0 {
			out.Log = append(out.Log, fmt.Sprintf("%s şehrinde yüksek bakım maliyetleri nedeniyle zarar ediyorsunuz.", ct.Name))
		}
		out.Cities = append(out.Cities, y)
		income += y.Net
		materials += y.Materials
		workers += y.Workers
	}

	income = math.Max(income, -float64(l.Money)*0.5)
	materials = math.Max(materials, 0)
	workers = max(workers, 0)

	if success < 0.8 {
		out.Log = append(out.Log, fmt.Sprintf(
			"Düşük itibar ve halk memnuniyeti nedeniyle kaynaklar verimli toplanamıyor. Normalde elde edeceğinizin yaklaşık %%%d kadarını alabildiniz.",
			ledger.Round(success*100)))
	}

	out.Income = ledger.Round(income)
	out.Materials = ledger.Round(materials)
	out.Workers = workers
	l.Apply(ledger.Delta{Money: out.Income, Materials: out.Materials, Workers: out.Workers}, "collection")

	if entropy.Chance(c.Rng, c.PrestigeDriftChance) && l.Prestige > 0 {
		l.AdjustPrestige(-1, "prestige drift")
		out.PrestigeDrop = true
		out.Log = append(out.Log, "Saray nezdinde itibarınızda hafif bir düşüş oldu.")
	}

	out.Log = append(out.Log, fmt.Sprintf("Kaynaklar toplandı: %s Akçe, %s Malzeme, %s İşçi",
		humanize.Comma(int64(out.Income)), humanize.Comma(int64(out.Materials)), humanize.Comma(int64(out.Workers))))
	slog.Info("resources collected",
		"income", out.Income, "materials", out.Materials, "workers", out.Workers,
		"success", fmt.Sprintf("%.2f", success), "skipped", len(out.Skipped))
	return out
}

func (c *Collector) cityYield(ct *city.City, l *ledger.Ledger, econ *Economy, eff float64) (y CityYield, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluate city: %v", r)
		}
	}()
	if ct.Population < 0 {
		return y, fmt.Errorf("negative population %d", ct.Population)
	}

	pop := float64(ct.Population)
	waqf := ledger.Round(pop * 0.001 * float64(ct.Prosperity) / 100 * eff)
	charity := ledger.Round(pop * 0.0005 * float64(l.Prestige) / 100 * eff)
	base := float64(waqf + charity)
	mats := float64(ledger.Round(pop * 0.0002 * float64(ct.Resources.Production) / 10 * eff))
	if l.Prestige > 70 {
		base *= 1.2
	}

	upkeep := ledger.Round(pop * 0.0001 * float64(len(ct.Buildings)+1))
	if l.Prestige > 50 {
		upkeep = ledger.Round(float64(upkeep) * 0.8)
	}

	demand := DemandFactor(ct.Prosperity)
	stability := StabilityFactor(econ.Inflation)
	base *= demand * TradeFactor(l.Prestige) * stability
	mats *= demand * stability

	benefits := ct.AggregateBenefits()
	return CityYield{
		CityID:      ct.ID,
		Income:      base,
		Materials:   mats,
		Workers:     ledger.Round(pop * 0.00001 * eff),
		Maintenance: upkeep,
		Net:         base + benefits[building.Income] - float64(upkeep),
	}, nil
}
