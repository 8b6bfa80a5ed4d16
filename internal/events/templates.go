package events

import (
	"fmt"

	"github.com/talgya/vakif/internal/ledger"
)

// Kind identifies an event template.
type Kind string

const (
	Drought         Kind = "drought"
	Plague          Kind = "plague"
	War             Kind = "war"
	EnemyAttack     Kind = "enemy_attack"
	Rebellion       Kind = "rebellion"
	Festival        Kind = "festival"
	Trade           Kind = "trade"
	RoyalVisit      Kind = "royal_visit"
	Discovery       Kind = "discovery"
	ForeignDiplomat Kind = "foreign_diplomat"
	GoodHarvest     Kind = "good_harvest"
	MarketCrash     Kind = "market_crash"
)

// Doom is a probabilistic defeat attached to a choice.
type Doom struct {
	Chance  float64 `json:"chance"`
	Message string  `json:"message"`
}

// Effects are what a resolved choice adds to the ledger, plus the signed
// escalation contributions tracked per event.
type Effects struct {
	ledger.Delta
	WarSupport     int   `json:"war_support,omitempty"`
	DefenseSupport int   `json:"defense_support,omitempty"`
	Stability      int   `json:"stability,omitempty"`
	GameOver       *Doom `json:"game_over,omitempty"`
}

// Choice is one option offered by an event.
type Choice struct {
	Text    string      `json:"text"`
	Cost    ledger.Cost `json:"cost"`
	Effects Effects     `json:"effects"`
}

// Template is an immutable catalog entry. Rolled events copy it.
type Template struct {
	Kind        Kind
	Title       string
	Description string
	Choices     []Choice
}

func effects(d ledger.Delta) Effects { return Effects{Delta: d} }

// templates holds one canonical definition per kind. For enemy_attack and
// rebellion the definitions carrying escalation and defeat clauses win.
var templates = []Template{
	{Drought, "Kuraklık", "Uzun süredir yağmur yağmıyor ve kuraklık tarımı etkiliyor. Halk susuzluk çekiyor.", []Choice{
		{"Su kanalları inşa et (300 Akçe, 200 Malzeme)", ledger.Cost{Money: 300, Materials: 200}, effects(ledger.Delta{Happiness: 10})},
		{"Halkı sabretmeye davet et", ledger.Cost{}, effects(ledger.Delta{Happiness: -15})},
		{"Başka bölgelerden su getirt (500 Akçe)", ledger.Cost{Money: 500}, effects(ledger.Delta{Happiness: 5})},
	}},
	{Plague, "Salgın Hastalık", "Şehirde bir salgın hastalık başladı. Halk arasında korku ve panik var.", []Choice{
		{"Hekim sayısını artır (400 Akçe, 10 İşçi)", ledger.Cost{Money: 400, Workers: 10}, effects(ledger.Delta{Happiness: 5})},
		{"Şehri karantinaya al", ledger.Cost{}, effects(ledger.Delta{Happiness: -10, Money: -200})},
		{"Dua ve sadaka ile ilahi yardım iste", ledger.Cost{Money: 200}, effects(ledger.Delta{Happiness: -5})},
	}},
	{War, "Savaş Hazırlıkları", "İmparatorluk yeni bir sefere hazırlanıyor. Ordu için kaynak ve destek gerekli.", []Choice{
		{"Tam destek sağla (500 Akçe, 300 Malzeme, 30 İşçi)", ledger.Cost{Money: 500, Materials: 300, Workers: 30},
			Effects{Delta: ledger.Delta{Prestige: 20, Happiness: -5}, WarSupport: 2}},
		{"Kısmi destek ver (250 Akçe, 150 Malzeme)", ledger.Cost{Money: 250, Materials: 150},
			Effects{Delta: ledger.Delta{Prestige: 5}, WarSupport: 1}},
		{"Savaşa karşı olduğunu bildir", ledger.Cost{},
			Effects{Delta: ledger.Delta{Prestige: -15, Happiness: 10}, WarSupport: -1, GameOver: &Doom{
				Chance:  0.4,
				Message: "Düşman orduları zayıf savunmamızı fark etti ve şehrimizi fethetti! Vakıf yönetiminde başarısız oldunuz.",
			}}},
	}},
	{EnemyAttack, "Düşman Saldırısı", "Düşman ordusu sınırlarımıza dayandı! Savunma hazırlıkları yapılmalı.", []Choice{
		{"Tüm orduyu seferber et (1000 Akçe, 50 İşçi)", ledger.Cost{Money: 1000, Workers: 50},
			Effects{Delta: ledger.Delta{Prestige: 20, Happiness: -10}, DefenseSupport: 2}},
		{"Diplomatik çözüm ara (500 Akçe)", ledger.Cost{Money: 500},
			Effects{Delta: ledger.Delta{Prestige: -5, Happiness: 5}, DefenseSupport: -1, GameOver: &Doom{
				Chance:  0.3,
				Message: "Diplomatik çözüm başarısız oldu ve savunmamız yetersiz kaldı. Şehir düştü!",
			}}},
	}},
	{Rebellion, "Halk Ayaklanması", "Vergilerin yüksekliği ve çeşitli sorunlar nedeniyle halk arasında huzursuzluk başladı.", []Choice{
		{"Şikayetleri dinle ve reformlar yap (300 Akçe)", ledger.Cost{Money: 300},
			Effects{Delta: ledger.Delta{Happiness: 20, Prestige: 5}, Stability: 2}},
		{"Askeri güç kullan", ledger.Cost{Workers: 20},
			Effects{Delta: ledger.Delta{Happiness: -20, Prestige: -10}, Stability: -1, GameOver: &Doom{
				Chance:  0.35,
				Message: "Halk ayaklanması kontrolden çıktı! Vakıf yönetimi devrildi.",
			}}},
		{"Vergileri geçici olarak düşür (200 Akçe kaybı)", ledger.Cost{},
			Effects{Delta: ledger.Delta{Money: -200, Happiness: 15}, Stability: 1}},
	}},
	{Festival, "Şehir Festivali", "Padişahın doğum günü veya önemli bir zafer için kutlama yapılabilir.", []Choice{
		{"Büyük bir şenlik düzenle (400 Akçe, 100 Malzeme)", ledger.Cost{Money: 400, Materials: 100}, effects(ledger.Delta{Happiness: 20, Prestige: 10})},
		{"Mütevazı bir kutlama yap (150 Akçe)", ledger.Cost{Money: 150}, effects(ledger.Delta{Happiness: 10, Prestige: 5})},
		{"Kutlama yapma, kaynakları koru", ledger.Cost{}, effects(ledger.Delta{Happiness: -5, Prestige: -5})},
	}},
	{Trade, "Ticaret Fırsatı", "Yabancı tüccarlar şehrinize geldi ve özel bir ticaret anlaşması teklif ediyor.", []Choice{
		{"Anlaşmayı kabul et (200 Malzeme)", ledger.Cost{Materials: 200}, effects(ledger.Delta{Money: 500, Prestige: 5})},
		{"Daha iyi şartlar için pazarlık et", ledger.Cost{}, effects(ledger.Delta{Money: 300})},
		{"Teklifi reddet, yerli tüccarları koru", ledger.Cost{}, effects(ledger.Delta{Happiness: 5, Prestige: -5})},
	}},
	{RoyalVisit, "Padişah Ziyareti", "Padişah şehrinizi ziyaret etmeyi planlıyor. Büyük bir onur ama aynı zamanda büyük hazırlıklar gerektiriyor.", []Choice{
		{"İhtişamlı bir karşılama hazırla (600 Akçe, 300 Malzeme)", ledger.Cost{Money: 600, Materials: 300}, effects(ledger.Delta{Prestige: 25, Happiness: 15})},
		{"Saygılı ama mütevazı bir karşılama (300 Akçe, 150 Malzeme)", ledger.Cost{Money: 300, Materials: 150}, effects(ledger.Delta{Prestige: 10, Happiness: 5})},
		{"Ziyareti ertelemeyi rica et", ledger.Cost{}, effects(ledger.Delta{Prestige: -20})},
	}},
	{Discovery, "Tarihi Keşif", "Şehrinizde yapılan kazılarda tarihi bir eser bulundu. Bu keşif büyük ilgi çekiyor.", []Choice{
		{"Müze inşa et ve eseri sergile (500 Akçe, 300 Malzeme)", ledger.Cost{Money: 500, Materials: 300}, effects(ledger.Delta{Prestige: 15, Happiness: 10})},
		{"Eseri sarayın hazinesine gönder", ledger.Cost{}, effects(ledger.Delta{Prestige: 5, Happiness: -5})},
		{"Eseri yüksek fiyata sat (300 Akçe kazanç)", ledger.Cost{}, effects(ledger.Delta{Money: 300, Prestige: -10})},
	}},
	{ForeignDiplomat, "Yabancı Diplomat", "Önemli bir yabancı ülkeden bir diplomat şehrinizi ziyaret ediyor. Diplomatik ilişkileriniz oyununuzun gidişatını etkileyebilir.", []Choice{
		{"Şerefine büyük bir ziyafet düzenle (400 Akçe)", ledger.Cost{Money: 400}, effects(ledger.Delta{Prestige: 15, Happiness: 5, Relationship: 10})},
		{"Resmi bir karşılama yeterli", ledger.Cost{Money: 100}, effects(ledger.Delta{Prestige: 5, Relationship: 5})},
		{"Diplomatı görmezden gel", ledger.Cost{}, effects(ledger.Delta{Prestige: -15, Relationship: -10})},
	}},
	{GoodHarvest, "Bereketli Hasat", "Bu yıl hasat beklenenden çok daha iyi oldu. Bolluğun nasıl değerlendirileceğine karar vermelisiniz.", []Choice{
		{"Fakirlere dağıt", ledger.Cost{}, effects(ledger.Delta{Happiness: 25, Prestige: 10})},
		{"Depola ve sat (500 Akçe kazanç)", ledger.Cost{}, effects(ledger.Delta{Money: 500, Happiness: -5})},
		{"Gelecek için stokla (200 Malzeme kazanç)", ledger.Cost{}, effects(ledger.Delta{Materials: 200, Happiness: 5})},
	}},
	{MarketCrash, "Pazar Çöküşü", "Ticaret yollarındaki sorunlar nedeniyle ekonomi sarsıldı!", []Choice{
		{"Piyasaya para pompa (800 Akçe)", ledger.Cost{Money: 800}, effects(ledger.Delta{Happiness: 15, Prestige: 5})},
		{"Yeni ticaret rotaları bul", ledger.Cost{Materials: 300}, effects(ledger.Delta{Money: 1000, Prestige: 10})},
	}},
}

var byKind map[Kind]*Template

func init() {
	if err := buildRegistry(templates); err != nil {
		panic(err)
	}
}

func buildRegistry(ts []Template) error {
	idx := make(map[Kind]*Template, len(ts))
	for i := range ts {
		t := &ts[i]
		if _, dup := idx[t.Kind]; dup {
			return fmt.Errorf("duplicate event template %q", t.Kind)
		}
		if len(t.Choices) == 0 {
			return fmt.Errorf("event template %q has no choices", t.Kind)
		}
		idx[t.Kind] = t
	}
	byKind = idx
	return nil
}

// Lookup returns the template for a kind.
func Lookup(k Kind) (*Template, bool) {
	t, ok := byKind[k]
	return t, ok
}

// Catalog returns the templates in roll order.
func Catalog() []Template {
	return templates
}
