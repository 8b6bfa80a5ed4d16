// Package building defines the immutable building catalog and the per-city
// building instances that move through construction, upkeep and repair.
package building

import (
	"fmt"

	"github.com/talgya/vakif/internal/ledger"
)

// TypeID identifies a catalog entry. The set is closed; see Catalog.
type TypeID string

const (
	Barracks     TypeID = "barracks"
	Embassy      TypeID = "embassy"
	Granary      TypeID = "granary"
	Mosque       TypeID = "mosque"
	Medrese      TypeID = "medrese"
	Caravanserai TypeID = "caravanserai"
	Hammam       TypeID = "hammam"
	Market       TypeID = "market"
	Fountain     TypeID = "fountain"
	Hospital     TypeID = "hospital"
	Imaret       TypeID = "imaret"
	Library      TypeID = "library"
	Fortress     TypeID = "fortress"
	WaqfComplex  TypeID = "waqf_complex"
)

// Category groups building types for display.
type Category string

const (
	CatMilitary       Category = "military"
	CatDiplomacy      Category = "diplomacy"
	CatEconomy        Category = "economy"
	CatReligious      Category = "religious"
	CatEducation      Category = "education"
	CatSocial         Category = "social"
	CatInfrastructure Category = "infrastructure"
	CatHealthcare     Category = "healthcare"
	CatWaqf           Category = "waqf"
)

// BenefitKey names a gauge a completed building contributes to.
type BenefitKey string

const (
	Income       BenefitKey = "income"
	Happiness    BenefitKey = "happiness"
	Health       BenefitKey = "health"
	Cultural     BenefitKey = "cultural"
	Defense      BenefitKey = "defense"
	Prestige     BenefitKey = "prestige"
	Social       BenefitKey = "social"
	ArmyTraining BenefitKey = "army_training"
	Diplomacy    BenefitKey = "diplomacy"
	FoodSecurity BenefitKey = "food_security"
	Prosperity   BenefitKey = "prosperity"
	Production   BenefitKey = "production"
)

// BenefitKeys is the fixed set aggregated over a city. Anything else a
// type declares is descriptive only.
var BenefitKeys = []BenefitKey{
	Income, Happiness, Health, Cultural, Defense, Prestige,
	Social, ArmyTraining, Diplomacy, FoodSecurity, Prosperity, Production,
}

// Upkeep is the per-turn maintenance price of a completed building.
type Upkeep struct {
	Money     int `json:"money"`
	Materials int `json:"materials"`
}

// Requirements gate construction.
type Requirements struct {
	Population int      `json:"population"`
	Buildings  []TypeID `json:"buildings,omitempty"`
}

// Type is an immutable catalog entry.
type Type struct {
	ID               TypeID             `json:"id"`
	Name             string             `json:"name"`
	Category         Category           `json:"category"`
	Description      string             `json:"description"`
	Cost             ledger.Cost        `json:"cost"`
	Maintenance      Upkeep             `json:"maintenance"`
	Benefits         map[BenefitKey]int `json:"benefits"`
	Requirements     Requirements       `json:"requirements"`
	ConstructionTime int                `json:"construction_time"` // turns
}

var catalog = []Type{
	{
		ID: Barracks, Name: "Kışla", Category: CatMilitary,
		Description:      "Asker eğitim merkezi. Ordu gücünü ve deneyimini artırır.",
		Cost:             ledger.Cost{Money: 800, Materials: 600, Workers: 40},
		Maintenance:      Upkeep{Money: 100, Materials: 30},
		Benefits:         map[BenefitKey]int{ArmyTraining: 20, "morale": 10},
		Requirements:     Requirements{Population: 20000},
		ConstructionTime: 6,
	},
	{
		ID: Embassy, Name: "Elçilik", Category: CatDiplomacy,
		Description:      "Diplomatik ilişkileri geliştirir ve yeni anlaşmalar yapılmasını sağlar.",
		Cost:             ledger.Cost{Money: 600, Materials: 400, Workers: 25},
		Maintenance:      Upkeep{Money: 80, Materials: 20},
		Benefits:         map[BenefitKey]int{Diplomacy: 15, Prestige: 10},
		Requirements:     Requirements{Population: 25000},
		ConstructionTime: 5,
	},
	{
		ID: Granary, Name: "Tahıl Ambarı", Category: CatEconomy,
		Description:      "Gıda depolama ve dağıtım merkezi. Kıtlık riskini azaltır.",
		Cost:             ledger.Cost{Money: 400, Materials: 300, Workers: 20},
		Maintenance:      Upkeep{Money: 40, Materials: 15},
		Benefits:         map[BenefitKey]int{FoodSecurity: 20, Happiness: 5},
		Requirements:     Requirements{Population: 15000},
		ConstructionTime: 4,
	},
	{
		ID: Mosque, Name: "Cami", Category: CatReligious,
		Description: "Hem ibadet yeri hem de sosyal hizmet merkezi olarak hizmet verir. Halkın moralini artırır.",
		Cost:        ledger.Cost{Money: 700, Materials: 450, Workers: 25},
		Maintenance: Upkeep{Money: 70, Materials: 15},
		Benefits: map[BenefitKey]int{
			Happiness: 15, Cultural: 10, "education": 8, "religious_harmony": 12,
			"social_stability": 10, "local_economy": 5, "research": 3, "technological_advancement": 2,
		},
		Requirements:     Requirements{Population: 5000},
		ConstructionTime: 4,
	},
	{
		ID: Medrese, Name: "Medrese", Category: CatEducation,
		Description:      "Dini ve bilimsel eğitim veren okul. Kültürel gelişimi artırır.",
		Cost:             ledger.Cost{Money: 550, Materials: 350, Workers: 20},
		Maintenance:      Upkeep{Money: 55, Materials: 10},
		Benefits:         map[BenefitKey]int{Happiness: 10, Cultural: 20},
		Requirements:     Requirements{Population: 8000, Buildings: []TypeID{Mosque}},
		ConstructionTime: 3,
	},
	{
		ID: Caravanserai, Name: "Kervansaray", Category: CatEconomy,
		Description:      "Yolcular ve ticaret kervanları için konaklama yeri. Ticari geliri artırır.",
		Cost:             ledger.Cost{Money: 800, Materials: 550, Workers: 35},
		Maintenance:      Upkeep{Money: 80, Materials: 20},
		Benefits:         map[BenefitKey]int{Income: 100, Happiness: 5},
		Requirements:     Requirements{Population: 10000},
		ConstructionTime: 5,
	},
	{
		ID: Hammam, Name: "Hamam", Category: CatSocial,
		Description:      "Halk hamamı. Sağlık ve sosyal etkileşimi artırır.",
		Cost:             ledger.Cost{Money: 300, Materials: 200, Workers: 15},
		Maintenance:      Upkeep{Money: 30, Materials: 10},
		Benefits:         map[BenefitKey]int{Happiness: 12, Health: 15},
		Requirements:     Requirements{Population: 7000},
		ConstructionTime: 3,
	},
	{
		ID: Market, Name: "Bedesten", Category: CatEconomy,
		Description:      "Kapalı çarşı. Ticari aktiviteyi ve geliri artırır.",
		Cost:             ledger.Cost{Money: 400, Materials: 250, Workers: 20},
		Maintenance:      Upkeep{Money: 40, Materials: 10},
		Benefits:         map[BenefitKey]int{Income: 80, Happiness: 8},
		Requirements:     Requirements{Population: 15000},
		ConstructionTime: 4,
	},
	{
		ID: Fountain, Name: "Çeşme", Category: CatInfrastructure,
		Description:      "Su çeşmesi. Temel su ihtiyacını karşılar.",
		Cost:             ledger.Cost{Money: 150, Materials: 100, Workers: 10},
		Maintenance:      Upkeep{Money: 15, Materials: 5},
		Benefits:         map[BenefitKey]int{Happiness: 5, Health: 10},
		Requirements:     Requirements{Population: 3000},
		ConstructionTime: 2,
	},
	{
		ID: Hospital, Name: "Darüşşifa", Category: CatHealthcare,
		Description:      "Hastane. Halkın sağlığını iyileştirir.",
		Cost:             ledger.Cost{Money: 700, Materials: 450, Workers: 30},
		Maintenance:      Upkeep{Money: 70, Materials: 20},
		Benefits:         map[BenefitKey]int{Happiness: 10, Health: 25},
		Requirements:     Requirements{Population: 20000, Buildings: []TypeID{Medrese}},
		ConstructionTime: 6,
	},
	{
		ID: Imaret, Name: "İmaret", Category: CatSocial,
		Description:      "Yoksullara yemek dağıtan aşevi. Toplumsal refahı artırır.",
		Cost:             ledger.Cost{Money: 350, Materials: 200, Workers: 15},
		Maintenance:      Upkeep{Money: 60, Materials: 30},
		Benefits:         map[BenefitKey]int{Happiness: 20, Social: 15},
		Requirements:     Requirements{Population: 12000, Buildings: []TypeID{Mosque}},
		ConstructionTime: 3,
	},
	{
		ID: Library, Name: "Kütüphane", Category: CatEducation,
		Description:      "Kitapların toplandığı ve korunduğu kütüphane. Eğitim ve kültürel gelişimi destekler.",
		Cost:             ledger.Cost{Money: 450, Materials: 300, Workers: 15},
		Maintenance:      Upkeep{Money: 30, Materials: 10},
		Benefits:         map[BenefitKey]int{Cultural: 25, Happiness: 5},
		Requirements:     Requirements{Population: 15000, Buildings: []TypeID{Medrese}},
		ConstructionTime: 4,
	},
	{
		ID: Fortress, Name: "Kale", Category: CatMilitary,
		Description:      "Savunma yapısı. Şehrin güvenliğini artırır.",
		Cost:             ledger.Cost{Money: 800, Materials: 600, Workers: 40},
		Maintenance:      Upkeep{Money: 80, Materials: 20},
		Benefits:         map[BenefitKey]int{Defense: 30, Prestige: 10},
		Requirements:     Requirements{Population: 25000},
		ConstructionTime: 8,
	},
	{
		ID: WaqfComplex, Name: "Külliye", Category: CatWaqf,
		Description: "Cami, medrese, imaret ve darüşşifayı içeren büyük vakıf kompleksi.",
		Cost:        ledger.Cost{Money: 2000, Materials: 1500, Workers: 100},
		Maintenance: Upkeep{Money: 200, Materials: 50},
		Benefits: map[BenefitKey]int{
			Happiness: 30, Cultural: 25, Prestige: 20, Income: 250, Health: 15, "education": 20,
		},
		Requirements:     Requirements{Population: 50000, Buildings: []TypeID{Mosque, Medrese}},
		ConstructionTime: 12,
	},
}

var index map[TypeID]*Type

func init() {
	if err := buildIndex(catalog); err != nil {
		panic(err)
	}
}

// buildIndex registers every type and checks that prerequisites refer to
// known types and form a DAG.
func buildIndex(types []Type) error {
	idx := make(map[TypeID]*Type, len(types))
	for i := range types {
		t := &types[i]
		if _, dup := idx[t.ID]; dup {
			return fmt.Errorf("building catalog: duplicate type %q", t.ID)
		}
		if t.ConstructionTime <= 0 {
			return fmt.Errorf("building catalog: %q has no construction time", t.ID)
		}
		idx[t.ID] = t
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[TypeID]int, len(idx))
	var visit func(id TypeID) error
	visit = func(id TypeID) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("building catalog: prerequisite cycle through %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, req := range idx[id].Requirements.Buildings {
			if _, ok := idx[req]; !ok {
				return fmt.Errorf("building catalog: %q requires unknown type %q", id, req)
			}
			if err := visit(req); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for i := range types {
		if err := visit(types[i].ID); err != nil {
			return err
		}
	}

	index = idx
	return nil
}

// Lookup returns the catalog entry for id.
func Lookup(id TypeID) (*Type, bool) {
	t, ok := index[id]
	return t, ok
}

// Catalog returns every type in display order.
func Catalog() []*Type {
	out := make([]*Type, len(catalog))
	for i := range catalog {
		out[i] = &catalog[i]
	}
	return out
}
