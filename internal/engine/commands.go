package engine

import (
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/diplomacy"
	"github.com/talgya/vakif/internal/rules"
)

func (s *Session) cityOrReject(id string) (*city.City, error) {
	c := s.City(id)
	if c == nil {
		return nil, rules.Reject("Şehir bulunamadı")
	}
	return c, nil
}

// Build starts construction of a building type in a city.
func (s *Session) Build(cityID string, typeID building.TypeID) (Result, error) {
	return s.run(CmdBuild, frozen, func(r *Result) error {
		c, err := s.cityOrReject(cityID)
		if err != nil {
			return err
		}
		b, err := c.StartConstruction(typeID, s.Ledger, uuid.NewString())
		if err != nil {
			return err
		}
		s.notef("building", "%s şehrinde %s inşaatı başladı. (%d tur)", c.Name, b.Name, b.ConstructionTotal)
		r.Data = *b
		return nil
	})
}

// Repair restores a damaged building.
func (s *Session) Repair(cityID, buildingID string) (Result, error) {
	return s.run(CmdRepair, frozen, func(r *Result) error {
		c, err := s.cityOrReject(cityID)
		if err != nil {
			return err
		}
		cost, err := c.Repair(buildingID, s.Ledger)
		if err != nil {
			return err
		}
		b := c.Building(buildingID)
		s.notef("building", "%s şehrindeki %s onarıldı. (%s Akçe)", c.Name, b.Name, humanize.Comma(int64(cost.Money)))
		r.Data = *b
		return nil
	})
}

// FulfillNeed pays for a citizen need and collects its rewards.
func (s *Session) FulfillNeed(needID string) (Result, error) {
	return s.run(CmdFulfill, frozen, func(r *Result) error {
		n, err := s.Needs.Fulfill(needID, s.Ledger)
		if err != nil {
			return err
		}
		s.notef("needs", "%s ihtiyacı karşılandı.", n.Title)
		r.Data = *n
		return nil
	})
}

// ResolveEvent applies the chosen option of an active event. An event
// that ends the game is reported as a successful command with GameOver set.
func (s *Session) ResolveEvent(eventID string, choice int) (Result, error) {
	return s.run(CmdChoose, frozen, func(r *Result) error {
		out, err := s.Events.Resolve(eventID, choice, s.Ledger, s.rng, s.clock.Now())
		if err != nil {
			return err
		}
		out.Event = out.Event.Clone()
		r.Data = out
		if out.GameOver {
			s.endGame(out.Message)
			return nil
		}
		ev := out.Event
		if ev.Empire != "" && out.Applied.Relationship != 0 {
			if rel, ok := s.Diplomacy.ChangeRelation(ev.Empire, out.Applied.Relationship); ok {
				slog.Info("event moved relation", "empire", ev.Empire, "relation", rel)
			}
		}
		s.notef("event", "%s: %s", ev.Title, ev.Choices[choice].Text)
		return nil
	})
}

// AddIdea posts an anonymous citizen idea.
func (s *Session) AddIdea(text string) (Result, error) {
	return s.run(CmdAddIdea, frozen, func(r *Result) error {
		idea, err := s.Ideas.Add(strings.TrimSpace(text))
		if err != nil {
			return err
		}
		s.note("ideas", "Yeni bir fikir paylaşıldı.")
		r.Data = *idea
		return nil
	})
}

// VoteIdea likes or dislikes an idea.
func (s *Session) VoteIdea(ideaID string, like bool) (Result, error) {
	return s.run(CmdVote, frozen, func(r *Result) error {
		idea, err := s.Ideas.Vote(ideaID, like)
		if err != nil {
			return err
		}
		r.Data = *idea
		return nil
	})
}

// DiplomaticAction performs an action towards an empire.
func (s *Session) DiplomaticAction(action diplomacy.ActionID, empireID string) (Result, error) {
	return s.run(CmdDiplomacy, frozen, func(r *Result) error {
		msg, err := s.Diplomacy.Do(action, empireID, s.Ledger, s.clock.Now())
		if err != nil {
			return err
		}
		rel := s.Diplomacy.Empire(empireID)
		s.notef("diplomacy", "%s: %s", rel.Name, msg)
		r.Data = rel.Clone()
		return nil
	})
}

// SelectCity changes the city shown to the player. Allowed after defeat.
func (s *Session) SelectCity(cityID string) (Result, error) {
	return s.run(CmdSelect, always, func(r *Result) error {
		c, err := s.cityOrReject(cityID)
		if err != nil {
			return err
		}
		s.SelectedCityID = c.ID
		r.Data = c.ID
		return nil
	})
}

// CompleteTutorial marks the tutorial as seen.
func (s *Session) CompleteTutorial() (Result, error) {
	return s.run(CmdTutorial, always, func(r *Result) error {
		s.TutorialCompleted = true
		return nil
	})
}
