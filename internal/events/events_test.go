package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

var now = time.Date(1520, 9, 30, 12, 0, 0, 0, time.UTC)

// noDoom never fires a probabilistic defeat clause.
var noDoom = entropy.NewSequence(0.99)

func active(t *testing.T, kind Kind, d rules.Difficulty) (*Board, *Event) {
	t.Helper()
	tpl, ok := Lookup(kind)
	require.True(t, ok)
	ev := Instantiate(tpl, d)
	b := &Board{}
	b.Add(ev)
	return b, ev
}

func choiceIndex(t *testing.T, ev *Event, text string) int {
	t.Helper()
	for i, c := range ev.Choices {
		if c.Text == text {
			return i
		}
	}
	t.Fatalf("no choice %q in %s", text, ev.Type)
	return -1
}

func TestRegistry_TwelveUniqueKinds(t *testing.T) {
	assert.Len(t, Catalog(), 12)
	for _, tpl := range Catalog() {
		got, ok := Lookup(tpl.Kind)
		require.True(t, ok)
		assert.Equal(t, tpl.Title, got.Title)
	}
	_, ok := Lookup("locusts")
	assert.False(t, ok)
}

func TestBuildRegistry_RejectsDuplicates(t *testing.T) {
	defer func() { require.NoError(t, buildRegistry(templates)) }()
	dup := []Template{templates[4], templates[4]}
	assert.ErrorContains(t, buildRegistry(dup), "duplicate")
	assert.ErrorContains(t, buildRegistry([]Template{{Kind: "empty"}}), "no choices")
}

func TestProbability(t *testing.T) {
	assert.InDelta(t, 0.2, Probability(rules.Easy), 1e-9)
	assert.InDelta(t, 0.3, Probability(rules.Medium), 1e-9)
	assert.InDelta(t, 0.5, Probability(rules.Hard), 1e-9)
}

func TestRoll(t *testing.T) {
	clk := clock.NewFake(now)

	ev := (&Roller{Difficulty: rules.Medium, Rng: entropy.NewSequence(0.2, 0), Clock: clk}).Roll(3)
	require.NotNil(t, ev)
	assert.Equal(t, Drought, ev.Type)
	assert.Equal(t, 3, ev.Turn)
	assert.Equal(t, now, ev.TimeCreated)
	assert.True(t, ev.IsActive)

	assert.Nil(t, (&Roller{Difficulty: rules.Medium, Rng: entropy.NewSequence(0.35)}).Roll(1))
	hard := (&Roller{Difficulty: rules.Hard, Rng: entropy.NewSequence(0.35)}).Roll(1)
	require.NotNil(t, hard)
	assert.Equal(t, Rebellion, hard.Type)
	assert.Nil(t, (&Roller{Difficulty: rules.Easy, Rng: entropy.NewSequence(0.25)}).Roll(1))
}

func TestRoll_DiplomatNamesEmpire(t *testing.T) {
	r := &Roller{
		Difficulty: rules.Medium,
		Rng:        entropy.NewSequence(0.1, 0.75, 0.5),
		Empires:    []string{"safavid", "mamluk", "venice", "hungary", "poland"},
	}
	ev := r.Roll(1)
	require.NotNil(t, ev)
	assert.Equal(t, ForeignDiplomat, ev.Type)
	assert.Equal(t, "venice", ev.Empire)
}

func TestInstantiate_HardScalingCopiesTemplate(t *testing.T) {
	_, ev := active(t, Rebellion, rules.Hard)
	c := ev.Choices[choiceIndex(t, ev, "Askeri güç kullan")]
	assert.Equal(t, ledger.Cost{Workers: 26}, c.Cost)
	assert.Equal(t, -24, c.Effects.Happiness)
	assert.Equal(t, -12, c.Effects.Prestige)
	assert.Equal(t, -1, c.Effects.Stability)

	reform := ev.Choices[0]
	assert.Equal(t, ledger.Cost{Money: 390}, reform.Cost)
	assert.Equal(t, 16, reform.Effects.Happiness)

	tpl, _ := Lookup(Rebellion)
	assert.Equal(t, 300, tpl.Choices[0].Cost.Money)
	assert.Equal(t, 20, tpl.Choices[0].Effects.Happiness)

	// The defeat clause is copied too.
	c.Effects.GameOver.Chance = 1
	assert.InDelta(t, 0.35, tpl.Choices[1].Effects.GameOver.Chance, 1e-9)
}

func TestInstantiate_EasyScaling(t *testing.T) {
	_, ev := active(t, Festival, rules.Easy)
	assert.Equal(t, ledger.Cost{Money: 280, Materials: 70}, ev.Choices[0].Cost)
	assert.Equal(t, 24, ev.Choices[0].Effects.Happiness)
	assert.Equal(t, 12, ev.Choices[0].Effects.Prestige)
	assert.Equal(t, -4, ev.Choices[2].Effects.Happiness)
}

func TestResolve_AppliesCostAndEffects(t *testing.T) {
	b, ev := active(t, Trade, rules.Medium)
	l := &ledger.Ledger{Money: 100, Materials: 250, Prestige: 10}

	out, err := b.Resolve(ev.ID, 0, l, noDoom, now)
	require.NoError(t, err)
	assert.False(t, out.GameOver)
	assert.Equal(t, 600, l.Money)
	assert.Equal(t, 50, l.Materials)
	assert.Equal(t, 15, l.Prestige)

	assert.Empty(t, b.Active)
	require.Len(t, b.History, 1)
	assert.False(t, b.History[0].IsActive)
	assert.Equal(t, 0, *b.History[0].ResolvedChoice)
	assert.Equal(t, now, *b.History[0].ResolvedTime)
}

func TestResolve_RelationshipEffect(t *testing.T) {
	b, ev := active(t, ForeignDiplomat, rules.Medium)
	l := &ledger.Ledger{Money: 500}
	out, err := b.Resolve(ev.ID, 0, l, noDoom, now)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Applied.Relationship)
	assert.Equal(t, 10, l.Relationship)
}

func TestResolve_Rejections(t *testing.T) {
	b, ev := active(t, MarketCrash, rules.Medium)
	l := &ledger.Ledger{Money: 10}

	_, err := b.Resolve("missing", 0, l, noDoom, now)
	reason, ok := rules.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "Olay bulunamadı", reason)

	_, err = b.Resolve(ev.ID, 5, l, noDoom, now)
	_, ok = rules.IsRejection(err)
	assert.True(t, ok)

	_, err = b.Resolve(ev.ID, 0, l, noDoom, now)
	reason, ok = rules.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "Bu seçim için yeterli kaynağınız yok", reason)
	assert.Equal(t, 10, l.Money)
	assert.Len(t, b.Active, 1)
}

func TestResolve_RebellionEscalation(t *testing.T) {
	b, ev := active(t, Rebellion, rules.Medium)
	l := &ledger.Ledger{Money: 1000, Materials: 1000, Workers: 5, Happiness: 50, Prestige: 30}
	before := l.Snapshot()
	force := choiceIndex(t, ev, "Askeri güç kullan")

	// Too few workers: the counter still moves, the choice is rejected.
	_, err := b.Resolve(ev.ID, force, l, noDoom, now)
	_, rejected := rules.IsRejection(err)
	require.True(t, rejected)
	assert.Equal(t, -1, ev.Counters.Stability)
	assert.Same(t, ev, b.Find(ev.ID))

	out, err := b.Resolve(ev.ID, force, l, noDoom, now)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Equal(t, -2, ev.Counters.Stability)
	assert.Contains(t, out.Message, "İsyanı bastırmakta başarısız")
	assert.Equal(t, before, l.Snapshot())
}

func TestResolve_DefenseEscalation(t *testing.T) {
	b, ev := active(t, EnemyAttack, rules.Medium)
	l := &ledger.Ledger{}
	diplomacy := choiceIndex(t, ev, "Diplomatik çözüm ara (500 Akçe)")

	_, err := b.Resolve(ev.ID, diplomacy, l, noDoom, now)
	require.Error(t, err)
	out, err := b.Resolve(ev.ID, diplomacy, l, noDoom, now)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Equal(t, -2, ev.Counters.DefenseSupport)
}

func TestResolve_DefeatClauseFires(t *testing.T) {
	b, ev := active(t, War, rules.Medium)
	l := &ledger.Ledger{Money: 1000, Prestige: 50}
	oppose := choiceIndex(t, ev, "Savaşa karşı olduğunu bildir")

	out, err := b.Resolve(ev.ID, oppose, l, entropy.NewSequence(0.1), now)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Contains(t, out.Message, "şehrimizi fethetti")
	assert.Equal(t, 50, l.Prestige)
}

func TestResolve_WarCountsNegativeSupport(t *testing.T) {
	b, ev := active(t, War, rules.Medium)
	l := &ledger.Ledger{Prestige: 50, Happiness: 20}
	oppose := choiceIndex(t, ev, "Savaşa karşı olduğunu bildir")

	out, err := b.Resolve(ev.ID, oppose, l, noDoom, now)
	require.NoError(t, err)
	assert.False(t, out.GameOver)
	assert.Equal(t, 1, ev.Counters.WarNegativeSupport)
	assert.Equal(t, 35, l.Prestige)
	assert.Equal(t, 30, l.Happiness)

	ev.Counters.WarNegativeSupport = 2
	msg, lost := ev.escalate(ev.Choices[oppose].Effects)
	assert.True(t, lost)
	assert.NotEmpty(t, msg)

	// Support does not count against the tally.
	ev.Counters.WarNegativeSupport = 0
	_, lost = ev.escalate(ev.Choices[0].Effects)
	assert.False(t, lost)
	assert.Zero(t, ev.Counters.WarNegativeSupport)
}

func TestBoard_Newest(t *testing.T) {
	old := &Event{ID: "old", TimeCreated: now}
	fresh := &Event{ID: "new", TimeCreated: now.Add(time.Hour)}
	b := &Board{}
	b.Add(old)
	b.Add(fresh)
	b.Add(nil)
	assert.Equal(t, "new", b.Newest()[0].ID)
	assert.Len(t, b.Active, 2)
}
