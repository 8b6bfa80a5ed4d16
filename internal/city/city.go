// Package city provides the fixed city catalog and the building lifecycle
// that runs inside each city: construction, upkeep, decay and repair.
package city

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// Position is the map placement used by the presentation layer.
type Position struct {
	Top  int `json:"top"`
	Left int `json:"left"`
}

// Output holds the per-city economic gauges.
type Output struct {
	TaxRate    int `json:"tax_rate"`
	Production int `json:"production"` // 0–20
}

// City is created from the catalog at game start and never destroyed.
type City struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Position     Position             `json:"position"`
	Population   int                  `json:"population"`
	IsCapital    bool                 `json:"is_capital"`
	Description  string               `json:"description"`
	Buildings    []*building.Instance `json:"buildings"`
	Prosperity   int                  `json:"prosperity"`    // 0–100
	DefenseLevel int                  `json:"defense_level"` // 0–100
	Cultural     int                  `json:"cultural"`      // 0–100
	Resources    Output               `json:"resources"`
}

// Building returns the instance with the given id.
func (c *City) Building(id string) *building.Instance {
	for _, b := range c.Buildings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (c *City) hasCompleted(t building.TypeID) bool {
	for _, b := range c.Buildings {
		if b.TypeID == t && b.Status == building.StatusCompleted {
			return true
		}
	}
	return false
}

// CanBuild validates a construction order. A nil error means the order
// would succeed; otherwise a *rules.Rejection carries the reason.
// At most one live instance of a type exists per city.
func (c *City) CanBuild(id building.TypeID, l *ledger.Ledger) error {
	t, ok := building.Lookup(id)
	if !ok {
		return rules.Reject("Geçersiz yapı türü")
	}
	if c.Population < t.Requirements.Population {
		return rules.Reject("Bu yapı için en az %s nüfus gerekli", humanize.Comma(int64(t.Requirements.Population)))
	}
	for _, req := range t.Requirements.Buildings {
		if !c.hasCompleted(req) {
			rt, _ := building.Lookup(req)
			return rules.Reject("Önce %s inşa etmelisiniz", rt.Name)
		}
	}
	if !l.CanAfford(t.Cost) {
		return rules.Reject("Yeterli kaynağınız yok")
	}
	for _, b := range c.Buildings {
		if b.TypeID == id && (b.Status == building.StatusCompleted || b.Status == building.StatusConstruction) {
			return rules.Reject("Bu yapı zaten mevcut veya inşa ediliyor")
		}
	}
	return nil
}

// StartConstruction re-validates, debits the full cost once and appends a
// new instance in construction status.
func (c *City) StartConstruction(id building.TypeID, l *ledger.Ledger, instanceID string) (*building.Instance, error) {
	if err := c.CanBuild(id, l); err != nil {
		return nil, err
	}
	t, _ := building.Lookup(id)
	l.Pay(t.Cost, "construction")

	b := building.New(instanceID, t)
	c.Buildings = append(c.Buildings, b)

	slog.Info("construction started", "city", c.ID, "building", id, "turns", t.ConstructionTime)
	return b, nil
}

// AdvanceConstruction progresses every building under construction by one
// turn and returns the log lines for those that completed.
func (c *City) AdvanceConstruction() []string {
	var lines []string
	for _, b := range c.Buildings {
		if b.Advance() {
			lines = append(lines, fmt.Sprintf("%s şehrinde %s inşaatı tamamlandı.", c.Name, b.Name))
		}
	}
	return lines
}

// MaintenanceReport summarises one upkeep pass over a city.
type MaintenanceReport struct {
	Paid     ledger.Cost `json:"paid"`
	Decayed  []string    `json:"decayed,omitempty"`
	Damaged  []string    `json:"damaged,omitempty"` // crossed into needs_repair
	LogLines []string    `json:"log,omitempty"`
}

// ApplyMaintenance charges upkeep scaled by factor for each completed
// building. Unaffordable upkeep costs the building 5–10 condition instead.
func (c *City) ApplyMaintenance(l *ledger.Ledger, factor float64, rng entropy.Source) MaintenanceReport {
	var rep MaintenanceReport
	for _, b := range c.Buildings {
		if b.Status != building.StatusCompleted {
			continue
		}
		t := b.Type()
		if t == nil {
			continue
		}
		upkeep := ledger.Cost{
			Money:     ledger.Round(float64(t.Maintenance.Money) * factor),
			Materials: ledger.Round(float64(t.Maintenance.Materials) * factor),
		}
		if !l.CanAfford(upkeep) {
			rep.Decayed = append(rep.Decayed, b.ID)
			if b.Decay(entropy.Between(rng, 5, 10)) {
				rep.Damaged = append(rep.Damaged, b.ID)
				rep.LogLines = append(rep.LogLines, fmt.Sprintf("%s şehrindeki %s onarıma ihtiyaç duyuyor.", c.Name, b.Name))
				slog.Warn("building needs repair", "city", c.ID, "building", b.ID, "condition", b.Condition)
			}
			continue
		}
		l.Pay(upkeep, "maintenance")
		rep.Paid.Money += upkeep.Money
		rep.Paid.Materials += upkeep.Materials
		b.Maintain()
	}
	return rep
}

// Repair restores a needs_repair building to full condition for a price
// proportional to its damage.
func (c *City) Repair(buildingID string, l *ledger.Ledger) (ledger.Cost, error) {
	b := c.Building(buildingID)
	if b == nil {
		return ledger.Cost{}, rules.Reject("Yapı bulunamadı")
	}
	if b.Status != building.StatusNeedsRepair {
		return ledger.Cost{}, rules.Reject("Bu yapının onarıma ihtiyacı yok")
	}
	cost := b.RepairCost()
	if !l.CanAfford(cost) {
		return cost, rules.Reject("Onarım için yeterli kaynağınız yok")
	}
	l.Pay(cost, "repair")
	b.Restore()
	slog.Info("building repaired", "city", c.ID, "building", b.ID, "money", cost.Money)
	return cost, nil
}

// Benefits maps every aggregated benefit key to its condition-weighted sum.
type Benefits map[building.BenefitKey]float64

// AggregateBenefits sums completed buildings' benefits weighted by condition.
func (c *City) AggregateBenefits() Benefits {
	out := make(Benefits, len(building.BenefitKeys))
	for _, k := range building.BenefitKeys {
		out[k] = 0
	}
	for _, b := range c.Buildings {
		if b.Status != building.StatusCompleted {
			continue
		}
		t := b.Type()
		if t == nil {
			continue
		}
		weight := float64(b.Condition) / 100
		for k, v := range t.Benefits {
			if _, known := out[k]; known {
				out[k] += float64(v) * weight
			}
		}
	}
	return out
}

// Gauges are the displayed city gauges with building benefits added.
type Gauges struct {
	Prosperity   int `json:"prosperity"`
	DefenseLevel int `json:"defense_level"`
	Cultural     int `json:"cultural"`
	Production   int `json:"production"`
}

// EffectiveGauges adds building benefits to the base gauges without
// mutating the city. Gauges cap at 100, production at 20.
func (c *City) EffectiveGauges() Gauges {
	b := c.AggregateBenefits()
	return Gauges{
		Prosperity:   min(100, c.Prosperity+ledger.Round(b[building.Prosperity])),
		DefenseLevel: min(100, c.DefenseLevel+ledger.Round(b[building.Defense])),
		Cultural:     min(100, c.Cultural+ledger.Round(b[building.Cultural])),
		Production:   min(20, c.Resources.Production+ledger.Round(b[building.Production])),
	}
}

// Grow applies a growth rate to the population and returns the change.
func (c *City) Grow(rate float64) int {
	delta := ledger.Round(float64(c.Population) * rate)
	c.Population = max(0, c.Population+delta)
	return delta
}
