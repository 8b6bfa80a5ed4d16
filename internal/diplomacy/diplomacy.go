// Package diplomacy tracks relations with the neighbouring empires and the
// actions and treaties that move them.
package diplomacy

import (
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// ActionID names a diplomatic action.
type ActionID string

const (
	ImproveRelations ActionID = "IMPROVE_RELATIONS"
	TradeAgreement   ActionID = "TRADE_AGREEMENT"
	MilitaryAlliance ActionID = "MILITARY_ALLIANCE"
	RoyalMarriage    ActionID = "ROYAL_MARRIAGE"
)

// Action is a catalog entry. MinRelation is nil when there is no requirement.
type Action struct {
	ID          ActionID      `json:"id"`
	Name        string        `json:"name"`
	Cost        ledger.Cost   `json:"cost"`
	Effect      int           `json:"effect"`
	MinRelation *int          `json:"min_relation,omitempty"`
	Benefits    ledger.Delta  `json:"benefits"`
	Cooldown    time.Duration `json:"cooldown,omitempty"`
	Treaty      bool          `json:"treaty"`
}

func atLeast(n int) *int { return &n }

// Actions lists the diplomatic actions in display order.
var Actions = []Action{
	{ID: ImproveRelations, Name: "İlişkileri Geliştir", Cost: ledger.Cost{Money: 200}, Effect: 10, Cooldown: 30 * 24 * time.Hour},
	{ID: TradeAgreement, Name: "Ticaret Anlaşması", Cost: ledger.Cost{Money: 500}, Effect: 15, MinRelation: atLeast(0),
		Benefits: ledger.Delta{Money: 100}, Treaty: true},
	{ID: MilitaryAlliance, Name: "Askeri İttifak", Cost: ledger.Cost{Money: 1000}, Effect: 25, MinRelation: atLeast(50),
		Benefits: ledger.Delta{Prestige: 10}, Treaty: true},
	{ID: RoyalMarriage, Name: "Hanedanlar Arası Evlilik", Cost: ledger.Cost{Money: 2000}, Effect: 30, MinRelation: atLeast(70),
		Benefits: ledger.Delta{Prestige: 20}},
}

// LookupAction returns the action with the given id.
func LookupAction(id ActionID) (*Action, bool) {
	for i := range Actions {
		if Actions[i].ID == id {
			return &Actions[i], true
		}
	}
	return nil, false
}

// Treaty is a standing agreement with one empire.
type Treaty struct {
	Type      ActionID  `json:"type"`
	EmpireID  string    `json:"empire_id"`
	StartDate time.Time `json:"start_date"`
}

// Name is the display name of the treaty type.
func (t Treaty) Name() string {
	if a, ok := LookupAction(t.Type); ok {
		return a.Name
	}
	return string(t.Type)
}

// Relation is the standing with one empire.
type Relation struct {
	EmpireID         string                 `json:"empire_id"`
	Name             string                 `json:"name"`
	BaseRelation     int                    `json:"base_relation"`
	Relation         int                    `json:"relation"` // -100..100
	TradeValue       int                    `json:"trade_value"`
	MilitaryStrength int                    `json:"military_strength"`
	Treaties         []Treaty               `json:"treaties"`
	LastAction       map[ActionID]time.Time `json:"last_action"`
}

func (r *Relation) hasTreaty(t ActionID) bool {
	for _, tr := range r.Treaties {
		if tr.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slice or map with r.
func (r *Relation) Clone() Relation {
	c := *r
	c.Treaties = slices.Clone(r.Treaties)
	c.LastAction = maps.Clone(r.LastAction)
	return c
}

// State holds every relation in a fixed order.
type State struct {
	Relations []*Relation `json:"relations"`
}

// New returns the starting relations.
func New() *State {
	empires := []Relation{
		{EmpireID: "safavid", Name: "Safevi İmparatorluğu", BaseRelation: -20, TradeValue: 100, MilitaryStrength: 80},
		{EmpireID: "mamluk", Name: "Memlük Sultanlığı", BaseRelation: 0, TradeValue: 120, MilitaryStrength: 70},
		{EmpireID: "venice", Name: "Venedik Cumhuriyeti", BaseRelation: -10, TradeValue: 150, MilitaryStrength: 60},
		{EmpireID: "hungary", Name: "Macar Krallığı", BaseRelation: -30, TradeValue: 80, MilitaryStrength: 65},
		{EmpireID: "poland", Name: "Polonya-Litvanya Birliği", BaseRelation: 0, TradeValue: 90, MilitaryStrength: 75},
	}
	s := &State{Relations: make([]*Relation, 0, len(empires))}
	for _, e := range empires {
		e.Relation = e.BaseRelation
		e.Treaties = []Treaty{}
		e.LastAction = map[ActionID]time.Time{}
		s.Relations = append(s.Relations, &e)
	}
	return s
}

// Empire returns the relation for id.
func (s *State) Empire(id string) *Relation {
	for _, r := range s.Relations {
		if r.EmpireID == id {
			return r
		}
	}
	return nil
}

// EmpireIDs lists the empires in order.
func (s *State) EmpireIDs() []string {
	ids := make([]string, 0, len(s.Relations))
	for _, r := range s.Relations {
		ids = append(ids, r.EmpireID)
	}
	return ids
}

// Treaties lists every standing treaty.
func (s *State) Treaties() []Treaty {
	var out []Treaty
	for _, r := range s.Relations {
		out = append(out, r.Treaties...)
	}
	return out
}

// ChangeRelation shifts a relation, clamped to [-100, 100]. It reports
// false for an unknown empire.
func (s *State) ChangeRelation(id string, amount int) (int, bool) {
	r := s.Empire(id)
	if r == nil {
		return 0, false
	}
	r.Relation = max(-100, min(100, r.Relation+amount))
	return r.Relation, true
}

// CanDo validates an action against one empire.
func (s *State) CanDo(id ActionID, empireID string, l *ledger.Ledger, now time.Time) error {
	a, ok := LookupAction(id)
	r := s.Empire(empireID)
	if !ok || r == nil {
		return rules.Reject("Geçersiz eylem veya imparatorluk")
	}
	if !l.CanAfford(a.Cost) {
		return rules.Reject("Yetersiz Akçe")
	}
	if a.MinRelation != nil && r.Relation < *a.MinRelation {
		return rules.Reject("En az %d ilişki puanı gerekli", *a.MinRelation)
	}
	if last, done := r.LastAction[id]; done && a.Cooldown > 0 {
		if wait := a.Cooldown - now.Sub(last); wait > 0 {
			days := int(math.Ceil(wait.Hours() / 24))
			return rules.Reject("%d gün beklemelisiniz", days)
		}
	}
	if a.Treaty && r.hasTreaty(id) {
		return rules.Reject("Bu imparatorlukla zaten %s var", a.Name)
	}
	return nil
}

// Do performs an action: pays, moves the relation, credits the one-off
// benefits and records the treaty.
func (s *State) Do(id ActionID, empireID string, l *ledger.Ledger, now time.Time) (string, error) {
	if err := s.CanDo(id, empireID, l, now); err != nil {
		return "", err
	}
	a, _ := LookupAction(id)
	r := s.Empire(empireID)

	l.Pay(a.Cost, "diplomacy")
	s.ChangeRelation(empireID, a.Effect)
	l.Apply(a.Benefits, "diplomatic benefits")

	if r.LastAction == nil {
		r.LastAction = map[ActionID]time.Time{}
	}
	r.LastAction[id] = now
	if a.Treaty {
		r.Treaties = append(r.Treaties, Treaty{Type: id, EmpireID: empireID, StartDate: now})
	}

	slog.Info("diplomatic action", "action", id, "empire", empireID, "relation", r.Relation)
	return a.Name + " başarıyla gerçekleştirildi", nil
}

// Drift moves each relation by a random amount in [-5, 5] with the given
// chance. It returns the applied shifts by empire.
func (s *State) Drift(rng entropy.Source, chance float64) map[string]int {
	shifts := map[string]int{}
	for _, r := range s.Relations {
		if !entropy.Chance(rng, chance) {
			continue
		}
		delta := entropy.Between(rng, -5, 5)
		s.ChangeRelation(r.EmpireID, delta)
		shifts[r.EmpireID] = delta
	}
	return shifts
}

// TreatyBenefits are the recurring per-turn gains from standing treaties.
type TreatyBenefits struct {
	Money  int `json:"money"`
	Morale int `json:"morale"`
}

// Benefits sums the per-turn treaty benefits.
func (s *State) Benefits() TreatyBenefits {
	var b TreatyBenefits
	for _, t := range s.Treaties() {
		switch t.Type {
		case TradeAgreement:
			b.Money += 50
		case MilitaryAlliance:
			b.Morale += 2
		}
	}
	return b
}

// Class buckets a relation value for display.
func Class(relation int) string {
	switch {
	case relation >= 75:
		return "excellent"
	case relation >= 50:
		return "good"
	case relation >= 25:
		return "positive"
	case relation >= 0:
		return "neutral"
	case relation >= -25:
		return "poor"
	case relation >= -50:
		return "bad"
	default:
		return "hostile"
	}
}

// TradeVolume estimates foreign trade: empires at neutral or better sell to
// us, and a trade agreement doubles what we sell to that empire.
func (s *State) TradeVolume() (imports, exports int) {
	for _, r := range s.Relations {
		if r.Relation >= 0 {
			imports += r.TradeValue
		}
		if r.hasTreaty(TradeAgreement) {
			exports += 2 * r.TradeValue
		}
	}
	return imports, exports
}
