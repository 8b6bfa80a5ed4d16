// Package citizens generates the prioritized needs citizens raise each turn
// and keeps the public board of citizen ideas.
package citizens

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// NeedType is the closed set of need templates.
type NeedType string

const (
	Water          NeedType = "water"
	Health         NeedType = "health"
	Education      NeedType = "education"
	Security       NeedType = "security"
	Food           NeedType = "food"
	Infrastructure NeedType = "infrastructure"
	Religion       NeedType = "religion"
	Entertainment  NeedType = "entertainment"
)

// Priority of a need. Each template fixes the priority per description.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case High:
		return 0
	case Medium:
		return 1
	default:
		return 2
	}
}

func (p Priority) rewardMultiplier() float64 {
	switch p {
	case High:
		return 1.2
	case Low:
		return 0.8
	default:
		return 1
	}
}

// Label is the display tag for the priority.
func (p Priority) Label() string {
	switch p {
	case High:
		return "Acil"
	case Medium:
		return "Önemli"
	default:
		return "Normal"
	}
}

type variant struct {
	description string
	priority    Priority
}

type template struct {
	typ      NeedType
	title    string
	variants []variant
	cost     ledger.Cost
	reward   ledger.Delta // happiness and prestige only
}

var templates = []template{
	{Water, "Temiz Su İhtiyacı", []variant{
		{"Şehirdeki çeşmeler yetersiz, halk su sıkıntısı çekiyor.", High},
		{"Kuraklık nedeniyle su kaynakları azaldı, yeni çeşmeler gerekli.", Medium},
		{"Mevcut su kanalları eskidi, onarım ve yeni su yapıları lazım.", High},
	}, ledger.Cost{Money: 200, Materials: 150, Workers: 10}, ledger.Delta{Happiness: 10, Prestige: 3}},
	{Health, "Sağlık Hizmetleri", []variant{
		{"Yaygın hastalıklar için yeni darüşşifalar gerekli.", High},
		{"Hekim sayısı yetersiz, yeni tıp medreselerine ihtiyaç var.", Medium},
		{"Salgın hastalıklarla mücadele için sağlık önlemleri alınmalı.", High},
	}, ledger.Cost{Money: 400, Materials: 250, Workers: 20}, ledger.Delta{Happiness: 15, Prestige: 5}},
	{Education, "Eğitim İmkanları", []variant{
		{"Çocuklar için yeni mektepler açılması isteniyor.", Medium},
		{"İlim tahsili için medrese ihtiyacı artıyor.", High},
		{"İmparatorluğun geleceği için eğitimli insanlara ihtiyaç var.", Medium},
	}, ledger.Cost{Money: 350, Materials: 200, Workers: 15}, ledger.Delta{Happiness: 10, Prestige: 8}},
	{Security, "Güvenlik Sorunu", []variant{
		{"Eşkıyalar yolları tehdit ediyor, güvenlik güçleri gerekli.", High},
		{"Şehirde hırsızlık olayları arttı, daha fazla nizam gerekiyor.", Medium},
		{"Sınır güvenliği için asker ve kale takviyesi şart.", High},
	}, ledger.Cost{Money: 500, Materials: 300, Workers: 25}, ledger.Delta{Happiness: 12, Prestige: 10}},
	{Food, "Yiyecek Sıkıntısı", []variant{
		{"Kıtlık tehlikesi var, gıda stoklarının artırılması gerekli.", High},
		{"Fakirler için aşevleri açılmalı.", Medium},
		{"Çiftçilere destek verilmeli, tarım alanları genişletilmeli.", High},
	}, ledger.Cost{Money: 300, Materials: 150, Workers: 20}, ledger.Delta{Happiness: 20, Prestige: 5}},
	{Infrastructure, "Altyapı Sorunları", []variant{
		{"Yollar bozuk, ticaret zorlaşıyor. Onarım gerekli.", Medium},
		{"Köprüler yıpranmış, tamir edilmeli.", Low},
		{"Şehir çarşıları genişletilmeli, yeni bedesten lazım.", Medium},
	}, ledger.Cost{Money: 450, Materials: 350, Workers: 30}, ledger.Delta{Happiness: 8, Prestige: 7}},
	{Religion, "Dini İhtiyaçlar", []variant{
		{"Yeni bir cami inşa edilmesi talep ediliyor.", Medium},
		{"Ramazan ayı için özel hazırlıklar yapılmalı.", Low},
		{"Dini bayramlar için şehirde kutlama düzenlenmeli.", Medium},
	}, ledger.Cost{Money: 600, Materials: 400, Workers: 35}, ledger.Delta{Happiness: 15, Prestige: 12}},
	{Entertainment, "Sosyal Etkinlikler", []variant{
		{"Halk eğlence istiyor, şenlikler düzenlenmeli.", Low},
		{"Sanat ve müzik gösterileri için destek verilmeli.", Low},
		{"Kahvehaneler ve sosyal alanlar artırılmalı.", Medium},
	}, ledger.Cost{Money: 250, Materials: 100, Workers: 15}, ledger.Delta{Happiness: 25, Prestige: 3}},
}

// Need is a citizen request with a price and a reward.
type Need struct {
	ID          string       `json:"id"`
	Type        NeedType     `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	City        string       `json:"city"`
	CityID      string       `json:"city_id"`
	Priority    Priority     `json:"priority"`
	Cost        ledger.Cost  `json:"cost"`
	Rewards     ledger.Delta `json:"rewards"`
	Turn        int          `json:"turn"`
	TimeCreated time.Time    `json:"time_created"`
}

// Generator draws needs for a difficulty.
type Generator struct {
	Difficulty rules.Difficulty
	Rng        entropy.Source
	Clock      clock.Clock
	NewID      func() string // defaults to uuid
}

// CountRange is the inclusive range of needs drawn per generation.
func CountRange(d rules.Difficulty) (lo, hi int) {
	switch d {
	case rules.Easy:
		return 2, 4
	case rules.Hard:
		return 5, 8
	default:
		return 3, 6
	}
}

// Generate draws a fresh batch of needs spread over cities.
func (g *Generator) Generate(cities []*city.City, turn int) []*Need {
	if len(cities) == 0 {
		return nil
	}
	lo, hi := CountRange(g.Difficulty)
	n := entropy.Between(g.Rng, lo, hi)
	out := make([]*Need, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.one(cities, turn))
	}
	slog.Debug("needs generated", "turn", turn, "count", n)
	return out
}

func (g *Generator) one(cities []*city.City, turn int) *Need {
	t := templates[g.Rng.Intn(len(templates))]
	c := cities[g.Rng.Intn(len(cities))]
	v := t.variants[g.Rng.Intn(len(t.variants))]

	cost := t.cost.Scale(rules.Pick(g.Difficulty, 0.8, 1.0, 1.3))
	mult := v.priority.rewardMultiplier() * rules.Pick(g.Difficulty, 1.2, 1.0, 0.8)
	rewards := ledger.Delta{
		Happiness: ledger.Round(float64(t.reward.Happiness) * mult),
		Prestige:  ledger.Round(float64(t.reward.Prestige) * mult),
	}
	if entropy.Between(g.Rng, 1, 3) == 1 {
		rewards.Money = ledger.Round(float64(cost.Money) * 1.5)
	}

	return &Need{
		ID:          g.id(),
		Type:        t.typ,
		Title:       t.title,
		Description: v.description,
		City:        c.Name,
		CityID:      c.ID,
		Priority:    v.priority,
		Cost:        cost,
		Rewards:     rewards,
		Turn:        turn,
		TimeCreated: g.now(),
	}
}

func (g *Generator) id() string {
	if g.NewID != nil {
		return g.NewID()
	}
	return uuid.NewString()
}

func (g *Generator) now() time.Time {
	if g.Clock == nil {
		return time.Now()
	}
	return g.Clock.Now()
}

// Retention decides what happens to unfulfilled needs at regeneration.
type Retention struct {
	Policy string `yaml:"policy" json:"policy"`
	MaxAge int    `yaml:"max_age" json:"max_age"` // turns, for RetainMaxAge
}

const (
	RetainReplace    = "replace"
	RetainAccumulate = "accumulate"
	RetainMaxAge     = "max_age"
)

// Validate checks the policy name and age.
func (r Retention) Validate() error {
	switch r.Policy {
	case "", RetainReplace, RetainAccumulate:
		return nil
	case RetainMaxAge:
		if r.MaxAge < 1 {
			return fmt.Errorf("needs retention max_age must be at least 1, got %d", r.MaxAge)
		}
		return nil
	default:
		return fmt.Errorf("unknown needs retention policy %q", r.Policy)
	}
}

// Board holds the active needs.
type Board struct {
	Needs     []*Need   `json:"needs"`
	Retention Retention `json:"retention"`
}

// Regenerate merges a fresh batch into the board according to the
// retention policy and returns how many old needs were dropped.
func (b *Board) Regenerate(fresh []*Need, turn int) int {
	var kept []*Need
	switch b.Retention.Policy {
	case RetainAccumulate:
		kept = b.Needs
	case RetainMaxAge:
		for _, n := range b.Needs {
			if turn-n.Turn < b.Retention.MaxAge {
				kept = append(kept, n)
			}
		}
	}
	dropped := len(b.Needs) - len(kept)
	b.Needs = append(kept, fresh...)
	return dropped
}

// Find returns the active need with the given id.
func (b *Board) Find(id string) *Need {
	for _, n := range b.Needs {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Fulfill pays for a need, credits its rewards and removes it.
func (b *Board) Fulfill(id string, l *ledger.Ledger) (*Need, error) {
	idx := slices.IndexFunc(b.Needs, func(n *Need) bool { return n.ID == id })
	if idx < 0 {
		return nil, rules.Reject("İhtiyaç bulunamadı")
	}
	n := b.Needs[idx]
	if !l.CanAfford(n.Cost) {
		return nil, rules.Reject("Bu ihtiyacı karşılamak için yeterli kaynağınız yok")
	}
	l.Pay(n.Cost, "need")
	l.Apply(n.Rewards, "need reward")
	b.Needs = slices.Delete(b.Needs, idx, idx+1)
	slog.Info("need fulfilled", "need", n.Type, "city", n.CityID, "priority", n.Priority)
	return n, nil
}

// ByPriority returns the needs high priority first, keeping arrival order
// within a priority.
func (b *Board) ByPriority() []*Need {
	out := slices.Clone(b.Needs)
	slices.SortStableFunc(out, func(a, c *Need) int { return a.Priority.rank() - c.Priority.rank() })
	return out
}
