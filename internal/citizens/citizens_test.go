package citizens

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

var epoch = time.Date(1520, 9, 30, 12, 0, 0, 0, time.UTC)

func generator(d rules.Difficulty, values ...float64) *Generator {
	n := 0
	return &Generator{
		Difficulty: d,
		Rng:        entropy.NewSequence(values...),
		Clock:      clock.NewFake(epoch),
		NewID: func() string {
			n++
			return fmt.Sprintf("need-%d", n)
		},
	}
}

func TestGenerate_MediumLowestRolls(t *testing.T) {
	needs := generator(rules.Medium, 0).Generate(city.Catalog(), 4)
	require.Len(t, needs, 3)

	n := needs[0]
	assert.Equal(t, "need-1", n.ID)
	assert.Equal(t, Water, n.Type)
	assert.Equal(t, "İstanbul", n.City)
	assert.Equal(t, "istanbul", n.CityID)
	assert.Equal(t, High, n.Priority)
	assert.Equal(t, ledger.Cost{Money: 200, Materials: 150, Workers: 10}, n.Cost)
	assert.Equal(t, ledger.Delta{Happiness: 12, Prestige: 4, Money: 300}, n.Rewards)
	assert.Equal(t, 4, n.Turn)
	assert.Equal(t, epoch, n.TimeCreated)
}

func TestGenerate_HardHighestRolls(t *testing.T) {
	needs := generator(rules.Hard, 0.99).Generate(city.Catalog(), 1)
	require.Len(t, needs, 8)

	n := needs[0]
	assert.Equal(t, Entertainment, n.Type)
	assert.Equal(t, "sivas", n.CityID)
	assert.Equal(t, Medium, n.Priority)
	assert.Equal(t, ledger.Cost{Money: 325, Materials: 130, Workers: 20}, n.Cost)
	assert.Equal(t, ledger.Delta{Happiness: 20, Prestige: 2}, n.Rewards)
}

func TestGenerate_EasyScaling(t *testing.T) {
	needs := generator(rules.Easy, 0).Generate(city.Catalog(), 1)
	require.Len(t, needs, 2)
	assert.Equal(t, ledger.Cost{Money: 160, Materials: 120, Workers: 8}, needs[0].Cost)
	assert.Equal(t, ledger.Delta{Happiness: 14, Prestige: 4, Money: 240}, needs[0].Rewards)
}

func TestGenerate_CountWithinRange(t *testing.T) {
	for _, d := range []rules.Difficulty{rules.Easy, rules.Medium, rules.Hard} {
		lo, hi := CountRange(d)
		g := &Generator{Difficulty: d, Rng: entropy.NewSeeded(7)}
		for i := 0; i < 50; i++ {
			n := len(g.Generate(city.Catalog(), i))
			assert.GreaterOrEqual(t, n, lo)
			assert.LessOrEqual(t, n, hi)
		}
	}
	assert.Empty(t, generator(rules.Medium, 0).Generate(nil, 1))
}

func TestBoard_FulfillDebitsAndCredits(t *testing.T) {
	b := &Board{}
	b.Regenerate(generator(rules.Medium, 0).Generate(city.Catalog(), 1), 1)
	l := &ledger.Ledger{Money: 1000, Materials: 1000, Workers: 100, Happiness: 40, Prestige: 10}

	n, err := b.Fulfill("need-2", l)
	require.NoError(t, err)
	assert.Equal(t, "need-2", n.ID)
	assert.Equal(t, 1000-200+300, l.Money)
	assert.Equal(t, 850, l.Materials)
	assert.Equal(t, 90, l.Workers)
	assert.Equal(t, 52, l.Happiness)
	assert.Equal(t, 14, l.Prestige)
	assert.Len(t, b.Needs, 2)
	assert.Nil(t, b.Find("need-2"))

	_, err = b.Fulfill("need-2", l)
	_, rejected := rules.IsRejection(err)
	assert.True(t, rejected)
}

func TestBoard_FulfillUnaffordableLeavesState(t *testing.T) {
	b := &Board{}
	b.Regenerate(generator(rules.Medium, 0).Generate(city.Catalog(), 1), 1)
	l := &ledger.Ledger{Money: 10}

	_, err := b.Fulfill("need-1", l)
	reason, ok := rules.IsRejection(err)
	require.True(t, ok)
	assert.Contains(t, reason, "yeterli kaynağınız yok")
	assert.Equal(t, 10, l.Money)
	assert.Len(t, b.Needs, 3)
}

func TestBoard_RetentionPolicies(t *testing.T) {
	batch := func(turn int) []*Need {
		return []*Need{{ID: fmt.Sprintf("t%d", turn), Turn: turn}}
	}

	replace := &Board{}
	replace.Regenerate(batch(1), 1)
	assert.Equal(t, 1, replace.Regenerate(batch(2), 2))
	assert.Len(t, replace.Needs, 1)

	acc := &Board{Retention: Retention{Policy: RetainAccumulate}}
	for turn := 1; turn <= 4; turn++ {
		acc.Regenerate(batch(turn), turn)
	}
	assert.Len(t, acc.Needs, 4)

	aged := &Board{Retention: Retention{Policy: RetainMaxAge, MaxAge: 2}}
	for turn := 1; turn <= 4; turn++ {
		aged.Regenerate(batch(turn), turn)
	}
	var ids []string
	for _, n := range aged.Needs {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"t3", "t4"}, ids)
}

func TestRetention_Validate(t *testing.T) {
	assert.NoError(t, Retention{}.Validate())
	assert.NoError(t, Retention{Policy: RetainMaxAge, MaxAge: 3}.Validate())
	assert.Error(t, Retention{Policy: RetainMaxAge}.Validate())
	assert.Error(t, Retention{Policy: "forever"}.Validate())
}

func TestBoard_ByPriority(t *testing.T) {
	b := &Board{Needs: []*Need{
		{ID: "a", Priority: Low},
		{ID: "b", Priority: High},
		{ID: "c", Priority: Medium},
		{ID: "d", Priority: High},
	}}
	var ids []string
	for _, n := range b.ByPriority() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
	assert.Equal(t, "a", b.Needs[0].ID)
	assert.Equal(t, "Acil", High.Label())
}

func TestIdeaBox_SeedAddVote(t *testing.T) {
	clk := clock.NewFake(epoch)
	box := NewIdeaBox(clk)
	seeded := box.Seed(3, entropy.NewSequence(0.5))
	require.Len(t, seeded, 3)
	for _, idea := range seeded {
		assert.Contains(t, predefinedIdeas, idea.Text)
		assert.Contains(t, personas, idea.From)
		assert.True(t, idea.TimeCreated.Before(epoch))
	}

	clk.Advance(time.Minute)
	mine, err := box.Add("Her şehre bir kütüphane açılmalı.")
	require.NoError(t, err)
	assert.Equal(t, AnonymousAuthor, mine.From)
	assert.Zero(t, mine.Likes)

	_, err = box.Add("")
	assert.Error(t, err)

	voted, err := box.Vote(mine.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, voted.Likes)
	_, err = box.Vote(mine.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Dislikes)

	_, err = box.Vote("missing", true)
	reason, ok := rules.IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "Fikir bulunamadı", reason)

	assert.Equal(t, mine.ID, box.Newest()[0].ID)
	assert.Len(t, box.Ideas, 4)
}
