package building

import (
	"fmt"
	"math"

	"github.com/talgya/vakif/internal/ledger"
)

// Status is the lifecycle state of an Instance.
type Status string

const (
	StatusConstruction Status = "construction"
	StatusCompleted    Status = "completed"
	StatusNeedsRepair  Status = "needs_repair"
)

// RepairThreshold is the condition below which a completed building
// needs repair.
const RepairThreshold = 30

// Instance is a building owned by exactly one city.
type Instance struct {
	ID                   string `json:"id"`
	TypeID               TypeID `json:"type_id"`
	Name                 string `json:"name"`
	Status               Status `json:"status"`
	ConstructionProgress int    `json:"construction_progress"`
	ConstructionTotal    int    `json:"construction_total"`
	Condition            int    `json:"condition"` // 0–100
}

// New creates an instance in construction status.
func New(id string, t *Type) *Instance {
	return &Instance{
		ID:                id,
		TypeID:            t.ID,
		Name:              t.Name,
		Status:            StatusConstruction,
		ConstructionTotal: t.ConstructionTime,
		Condition:         100,
	}
}

// Type returns the catalog entry of the instance.
func (b *Instance) Type() *Type {
	t, _ := Lookup(b.TypeID)
	return t
}

// Advance moves construction one turn forward and reports whether the
// building completed on this call.
func (b *Instance) Advance() bool {
	if b.Status != StatusConstruction {
		return false
	}
	b.ConstructionProgress++
	if b.ConstructionProgress >= b.ConstructionTotal {
		b.Status = StatusCompleted
		b.Condition = 100
		return true
	}
	return false
}

// Decay lowers condition by amount, floored at 0, and reports whether the
// building just crossed into needs_repair.
func (b *Instance) Decay(amount int) bool {
	b.Condition = max(0, b.Condition-amount)
	if b.Condition < RepairThreshold && b.Status != StatusNeedsRepair {
		b.Status = StatusNeedsRepair
		return true
	}
	return false
}

// Maintain is the well-kept path: condition improves by one, capped at 100.
func (b *Instance) Maintain() {
	if b.Condition < 100 {
		b.Condition++
	}
}

// RepairCost scales the type's cost by the damage taken.
func (b *Instance) RepairCost() ledger.Cost {
	t := b.Type()
	if t == nil {
		return ledger.Cost{}
	}
	damage := float64(100 - b.Condition)
	return ledger.Cost{
		Money:     int(math.Ceil(float64(t.Cost.Money) * damage * 0.01 * 0.5)),
		Materials: int(math.Ceil(float64(t.Cost.Materials) * damage * 0.01 * 0.5)),
		Workers:   int(math.Ceil(float64(t.Cost.Workers) * damage * 0.01 * 0.3)),
	}
}

// Restore completes a repair.
func (b *Instance) Restore() {
	b.Condition = 100
	b.Status = StatusCompleted
}

// StatusText is the player-facing status line.
func (b *Instance) StatusText() string {
	switch b.Status {
	case StatusConstruction:
		progress := 0
		if b.ConstructionTotal > 0 {
			progress = b.ConstructionProgress * 100 / b.ConstructionTotal
		}
		return fmt.Sprintf("İnşa ediliyor: %%%d", progress)
	case StatusNeedsRepair:
		return "Onarım Gerekli"
	}
	switch {
	case b.Condition > 70:
		return "İyi Durumda"
	case b.Condition > 30:
		return "Orta Durumda"
	}
	return "Kötü Durumda"
}
