package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/economy"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/events"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// CollectResources gathers every city's yield once per turn. Collecting
// taxes tires the people: happiness drops afterwards by a per-difficulty
// amount.
func (s *Session) CollectResources() (Result, error) {
	return s.run(CmdCollect, frozen, func(r *Result) error {
		if s.Flags.Collected {
			return rules.Reject("Bu turda zaten kaynak topladınız. Bir sonraki tura geçmek için \"Sonraki Tur\" düğmesini kullanın.")
		}
		l := s.Ledger

		// Evasion lands first, so its prestige loss already lowers this
		// collection's success factor.
		te := s.balance.TaxEvasion
		if l.Prestige < te.PrestigeBelow && l.Happiness < te.HappinessBelow && entropy.Chance(s.rng, te.Chance) {
			l.AdjustPrestige(-te.PrestigeLoss, "tax evasion")
			s.note("economy", "Halk arasında vergi kaçırma yaygınlaşıyor! Düşük itibarınız ve halk memnuniyetsizliği nedeniyle vergi gelirleri azaldı.")
		}

		col := (&economy.Collector{
			Difficulty:          s.Difficulty,
			PrestigeDriftChance: s.balance.PrestigeDriftChance,
			Rng:                 s.rng,
		}).Collect(s.Cities, l, s.Economy)
		for _, line := range col.Log {
			s.note("economy", line)
		}

		penalty := s.balance.CollectionPenalty.For(s.Difficulty)
		before := l.Happiness
		l.AdjustHappiness(-penalty, "collection fatigue")
		s.notef("economy", "Vergi yükü nedeniyle halkın mutluluğu %d puan düştü. (%d → %d)", penalty, before, l.Happiness)
		if l.Happiness < 20 {
			s.notef("warning", "Halk huzursuzlanıyor! Mutluluk seviyesi kritik derecede düşük (%d). Acil önlem alın.", l.Happiness)
		}

		s.Flags.Collected = true
		r.Data = col
		return nil
	})
}

// AdvanceTurn runs the turn scheduler. Order matters: diplomacy, counter
// and flags, construction, maintenance, happiness decay, the terminal
// check, growth, then needs, events and the slower drifts. A defeat at the
// terminal check stops the turn there.
func (s *Session) AdvanceTurn() (Result, error) {
	return s.run(CmdTurn, frozen, func(r *Result) error {
		if !s.Flags.Collected {
			return rules.Reject("Kaynakları toplamadan tur geçemezsiniz!")
		}
		l := s.Ledger

		s.diplomaticTurn()

		s.Turn++
		s.Flags = Flags{}

		for _, c := range s.Cities {
			for _, line := range c.AdvanceConstruction() {
				s.note("building", line)
			}
		}

		var upkeep ledger.Cost
		for _, c := range s.Cities {
			rep := c.ApplyMaintenance(l, s.balance.MaintenanceFactor, s.rng)
			upkeep.Money += rep.Paid.Money
			upkeep.Materials += rep.Paid.Materials
			for _, line := range rep.LogLines {
				s.note("building", line)
			}
		}
		if !upkeep.IsZero() {
			s.notef("economy", "Yapı bakım giderleri: %s Akçe, %s Malzeme",
				humanize.Comma(int64(upkeep.Money)), humanize.Comma(int64(upkeep.Materials)))
		}

		decay := s.balance.TurnDecay.For(s.Difficulty)
		l.AdjustHappiness(-decay, "turn decay")
		s.notef("turn", "Halk arasında zaman geçtikçe %d birim mutluluk kaybı oldu.", decay)

		if l.Happiness <= 0 {
			s.endGame("Halk tamamen mutsuz! Vakıf yönetiminde başarısız oldunuz.")
			return nil
		}
		if l.Happiness < 10 {
			s.notef("warning", "DİKKAT: Halk mutluluğu çok düşük (%d)! Acil önlem alınmazsa isyan çıkabilir!", l.Happiness)
		}

		s.growPopulation()

		s.generateNeeds()
		s.checkForEvents()

		s.drifter.Apply(s.Economy, s.Turn)
		s.Economy.SetTrade(s.Diplomacy.TradeVolume())

		lo, hi := s.balance.IdeasPerTurn[0], s.balance.IdeasPerTurn[1]
		if n := entropy.Between(s.rng, lo, hi); n > 0 {
			s.Ideas.Seed(n, s.rng)
			s.notef("ideas", "Halktan %d yeni fikir geldi.", n)
		}

		s.notef("turn", "Tur %d başladı.", s.Turn)
		slog.Info("turn advanced", "turn", s.Turn, "money", l.Money, "happiness", l.Happiness, "prestige", l.Prestige)
		return nil
	})
}

// diplomaticTurn drifts relations and pays out standing treaties.
func (s *Session) diplomaticTurn() {
	shifts := s.Diplomacy.Drift(s.rng, s.balance.DiplomaticDriftChance)
	for _, id := range s.Diplomacy.EmpireIDs() {
		delta, ok := shifts[id]
		if !ok || delta == 0 {
			continue
		}
		rel := s.Diplomacy.Empire(id)
		s.notef("diplomacy", "%s ile ilişkiler %+d değişti (%d).", rel.Name, delta, rel.Relation)
	}

	b := s.Diplomacy.Benefits()
	if b.Money > 0 {
		s.Ledger.Apply(ledger.Delta{Money: b.Money}, "treaty income")
		s.notef("diplomacy", "Ticaret anlaşmalarından %s Akçe gelir elde edildi.", humanize.Comma(int64(b.Money)))
	}
	if b.Morale > 0 {
		s.Army.Morale = min(100, s.Army.Morale+b.Morale)
	}
}

// growthRate maps global happiness to a per-turn population change.
func growthRate(happiness int) float64 {
	switch {
	case happiness > 80:
		return 0.02
	case happiness > 50:
		return 0.01
	case happiness > 20:
		return 0.005
	default:
		return -0.01
	}
}

func (s *Session) growPopulation() {
	rate := growthRate(s.Ledger.Happiness)
	for _, c := range s.Cities {
		if rate < 0 {
			s.notef("population", "%s şehrinden halk göç ediyor!", c.Name)
		}
		delta := c.Grow(rate)
		if delta == 0 {
			continue
		}
		sign := ""
		if delta > 0 {
			sign = "+"
		}
		s.notef("population", "%s şehrinin nüfusu: %s%s kişi (Toplam: %s)",
			c.Name, sign, humanize.Comma(int64(delta)), humanize.Comma(int64(c.Population)))
	}
}

// generateNeeds draws this turn's needs at most once.
func (s *Session) generateNeeds() {
	if s.Flags.NeedsGenerated {
		return
	}
	gen := &citizens.Generator{Difficulty: s.Difficulty, Rng: s.rng, Clock: s.clock}
	fresh := gen.Generate(s.Cities, s.Turn)
	dropped := s.Needs.Regenerate(fresh, s.Turn)
	s.Flags.NeedsGenerated = true
	s.notef("needs", "Halktan %d yeni ihtiyaç bildirildi.", len(fresh))
	if dropped > 0 {
		slog.Debug("unfulfilled needs dropped", "turn", s.Turn, "count", dropped, "policy", s.Needs.Retention.Policy)
	}
}

// checkForEvents rolls for this turn's event at most once.
func (s *Session) checkForEvents() {
	if s.Flags.EventChecked {
		return
	}
	roller := &events.Roller{
		Difficulty: s.Difficulty,
		Rng:        s.rng,
		Clock:      s.clock,
		Empires:    s.Diplomacy.EmpireIDs(),
	}
	if ev := roller.Roll(s.Turn); ev != nil {
		s.Events.Add(ev)
		s.notef("event", "Yeni olay: %s", ev.Title)
	}
	s.Flags.EventChecked = true
}
