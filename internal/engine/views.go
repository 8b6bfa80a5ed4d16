package engine

import (
	"github.com/talgya/vakif/internal/building"
	"github.com/talgya/vakif/internal/citizens"
	"github.com/talgya/vakif/internal/city"
	"github.com/talgya/vakif/internal/diplomacy"
	"github.com/talgya/vakif/internal/economy"
	"github.com/talgya/vakif/internal/events"
	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// Views are plain render data for the presentation layer. They are built
// on the engine goroutine and never alias session state that is later
// mutated, so they can be encoded after the command queue moves on.

// StatusView is the top bar of the game.
type StatusView struct {
	Turn              int              `json:"turn"`
	Difficulty        rules.Difficulty `json:"difficulty"`
	Resources         ledger.Ledger    `json:"resources"`
	Economy           economy.Economy  `json:"economy"`
	Army              Army             `json:"army"`
	Disasters         Disasters        `json:"disasters"`
	SelectedCityID    string           `json:"selected_city_id,omitempty"`
	Collected         bool             `json:"collected"`
	TutorialCompleted bool             `json:"tutorial_completed"`
	GameOver          bool             `json:"game_over"`
	GameOverReason    string           `json:"game_over_reason,omitempty"`
	ActiveEvents      int              `json:"active_events"`
	OpenNeeds         int              `json:"open_needs"`
}

// Status builds the status view.
func (s *Session) Status() StatusView {
	econ := *s.Economy
	econ.MarketPrices = make(map[string]float64, len(s.Economy.MarketPrices))
	for k, v := range s.Economy.MarketPrices {
		econ.MarketPrices[k] = v
	}
	return StatusView{
		Turn:              s.Turn,
		Difficulty:        s.Difficulty,
		Resources:         s.Ledger.Snapshot(),
		Economy:           econ,
		Army:              s.Army,
		Disasters:         Disasters{Active: append([]string{}, s.Disasters.Active...), Risk: s.Disasters.Risk, Preparedness: s.Disasters.Preparedness},
		SelectedCityID:    s.SelectedCityID,
		Collected:         s.Flags.Collected,
		TutorialCompleted: s.TutorialCompleted,
		GameOver:          s.GameOver,
		GameOverReason:    s.GameOverReason,
		ActiveEvents:      len(s.Events.Active),
		OpenNeeds:         len(s.Needs.Needs),
	}
}

// CitySummary is one marker on the map.
type CitySummary struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Position   city.Position `json:"position"`
	Population int           `json:"population"`
	IsCapital  bool          `json:"is_capital"`
	Buildings  int           `json:"buildings"`
	Damaged    int           `json:"damaged"`
	Selected   bool          `json:"selected"`
}

// CitySummaries lists every city for the map.
func (s *Session) CitySummaries() []CitySummary {
	out := make([]CitySummary, 0, len(s.Cities))
	for _, c := range s.Cities {
		damaged := 0
		for _, b := range c.Buildings {
			if b.Status == building.StatusNeedsRepair {
				damaged++
			}
		}
		out = append(out, CitySummary{
			ID:         c.ID,
			Name:       c.Name,
			Position:   c.Position,
			Population: c.Population,
			IsCapital:  c.IsCapital,
			Buildings:  len(c.Buildings),
			Damaged:    damaged,
			Selected:   c.ID == s.SelectedCityID,
		})
	}
	return out
}

// BuildingView is a building in a city panel.
type BuildingView struct {
	building.Instance
	StatusText      string       `json:"status_text"`
	RepairCost      *ledger.Cost `json:"repair_cost,omitempty"`
	CanAffordRepair bool         `json:"can_afford_repair"`
}

// BuildOption is a catalog entry with its availability in a city.
type BuildOption struct {
	Type     *building.Type `json:"type"`
	CanBuild bool           `json:"can_build"`
	Reason   string         `json:"reason,omitempty"`
}

// CityView is the detail panel of a city.
type CityView struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Population   int            `json:"population"`
	IsCapital    bool           `json:"is_capital"`
	TaxRate      int            `json:"tax_rate"`
	Gauges       city.Gauges    `json:"gauges"`
	Benefits     city.Benefits  `json:"benefits"`
	Buildings    []BuildingView `json:"buildings"`
	BuildOptions []BuildOption  `json:"build_options"`
}

// CityDetail builds the detail view of a city, or nil for an unknown id.
func (s *Session) CityDetail(id string) *CityView {
	c := s.City(id)
	if c == nil {
		return nil
	}
	v := &CityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Population:  c.Population,
		IsCapital:   c.IsCapital,
		TaxRate:     c.Resources.TaxRate,
		Gauges:      c.EffectiveGauges(),
		Benefits:    c.AggregateBenefits(),
	}
	for _, b := range c.Buildings {
		bv := BuildingView{Instance: *b, StatusText: b.StatusText()}
		if b.Status == building.StatusNeedsRepair {
			cost := b.RepairCost()
			bv.RepairCost = &cost
			bv.CanAffordRepair = s.Ledger.CanAfford(cost)
		}
		v.Buildings = append(v.Buildings, bv)
	}
	for _, t := range building.Catalog() {
		opt := BuildOption{Type: t, CanBuild: true}
		if err := c.CanBuild(t.ID, s.Ledger); err != nil {
			opt.CanBuild = false
			opt.Reason, _ = rules.IsRejection(err)
		}
		v.BuildOptions = append(v.BuildOptions, opt)
	}
	return v
}

// NeedView is a need card.
type NeedView struct {
	citizens.Need
	PriorityLabel string `json:"priority_label"`
	CanAfford     bool   `json:"can_afford"`
}

// NeedViews lists open needs, most urgent first.
func (s *Session) NeedViews() []NeedView {
	var out []NeedView
	for _, n := range s.Needs.ByPriority() {
		out = append(out, NeedView{Need: *n, PriorityLabel: n.Priority.Label(), CanAfford: s.Ledger.CanAfford(n.Cost)})
	}
	return out
}

// ChoiceView is one option of an event card.
type ChoiceView struct {
	events.Choice
	Index     int  `json:"index"`
	CanAfford bool `json:"can_afford"`
}

// EventView is an active event card.
type EventView struct {
	ID          string       `json:"id"`
	Type        events.Kind  `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Empire      string       `json:"empire,omitempty"`
	Turn        int          `json:"turn"`
	Choices     []ChoiceView `json:"choices"`
}

// EventViews lists active events, newest first.
func (s *Session) EventViews() []EventView {
	var out []EventView
	for _, ev := range s.Events.Newest() {
		v := EventView{ID: ev.ID, Type: ev.Type, Title: ev.Title, Description: ev.Description, Empire: ev.Empire, Turn: ev.Turn}
		for i, c := range ev.Choices {
			v.Choices = append(v.Choices, ChoiceView{Choice: c, Index: i, CanAfford: s.Ledger.CanAfford(c.Cost)})
		}
		out = append(out, v)
	}
	return out
}

// IdeaViews lists ideas newest first.
func (s *Session) IdeaViews() []citizens.Idea {
	var out []citizens.Idea
	for _, idea := range s.Ideas.Newest() {
		out = append(out, *idea)
	}
	return out
}

// ActionView is a diplomatic action button.
type ActionView struct {
	ID        diplomacy.ActionID `json:"id"`
	Name      string             `json:"name"`
	Cost      ledger.Cost        `json:"cost"`
	Available bool               `json:"available"`
	Reason    string             `json:"reason,omitempty"`
}

// RelationView is an empire row on the diplomacy screen.
type RelationView struct {
	EmpireID         string             `json:"empire_id"`
	Name             string             `json:"name"`
	Relation         int                `json:"relation"`
	Class            string             `json:"class"`
	TradeValue       int                `json:"trade_value"`
	MilitaryStrength int                `json:"military_strength"`
	Treaties         []diplomacy.Treaty `json:"treaties"`
	Actions          []ActionView       `json:"actions"`
}

// RelationViews lists every empire with its available actions.
func (s *Session) RelationViews() []RelationView {
	now := s.clock.Now()
	var out []RelationView
	for _, r := range s.Diplomacy.Relations {
		v := RelationView{
			EmpireID:         r.EmpireID,
			Name:             r.Name,
			Relation:         r.Relation,
			Class:            diplomacy.Class(r.Relation),
			TradeValue:       r.TradeValue,
			MilitaryStrength: r.MilitaryStrength,
			Treaties:         append([]diplomacy.Treaty{}, r.Treaties...),
		}
		for _, a := range diplomacy.Actions {
			av := ActionView{ID: a.ID, Name: a.Name, Cost: a.Cost, Available: true}
			if err := s.Diplomacy.CanDo(a.ID, r.EmpireID, s.Ledger, now); err != nil {
				av.Available = false
				av.Reason, _ = rules.IsRejection(err)
			}
			v.Actions = append(v.Actions, av)
		}
		out = append(out, v)
	}
	return out
}

// RecentLog returns up to n of the latest log entries, oldest first.
func (s *Session) RecentLog(n int) []LogEntry {
	if n <= 0 || n > len(s.Log) {
		n = len(s.Log)
	}
	return append([]LogEntry{}, s.Log[len(s.Log)-n:]...)
}
