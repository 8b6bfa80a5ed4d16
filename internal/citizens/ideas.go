package citizens

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/vakif/internal/clock"
	"github.com/talgya/vakif/internal/entropy"
	"github.com/talgya/vakif/internal/rules"
)

// AnonymousAuthor signs ideas submitted by the player.
const AnonymousAuthor = "Anonim Vatandaş"

var predefinedIdeas = []string{
	"İmparatorluk genelinde su kanalları ve çeşmeler inşa etmeliyiz, halk temiz suya erişim sağlamalı.",
	"Her mahallede ücretsiz aşevi açılmalı, fakirlere yemek dağıtılmalı.",
	"Medreseler artırılmalı, eğitim yaygınlaştırılmalı.",
	"Yeni vakıf kütüphaneleri kurulmalı, ilim yayılmalı.",
	"Kervan yolları üzerinde daha fazla kervansaray yapılmalı.",
	"Bozuk yollar tamir edilmeli, ticaret kolaylaştırılmalı.",
	"Çocuklar için daha fazla mektep açılmalı, geleceğimiz için şart.",
	"Esnaf loncaları desteklenmeli, zanaatkarlar teşvik edilmeli.",
	"Şehir surları güçlendirilmeli, güvenlik artırılmalı.",
	"Çarşı ve pazarlar genişletilmeli, ticaret canlandırılmalı.",
	"Darüşşifalar inşa edilmeli, tıp eğitimi ve sağlık hizmetleri yaygınlaştırılmalı.",
	"Çiftçilere alet ve tohum yardımı yapılmalı, tarım desteklenmeli.",
	"Köprüler inşa edilmeli, nehirler aşılabilir olmalı.",
	"Bayındırlık projeleri hızlandırılmalı, şehirlerimiz daha yaşanılır olmalı.",
	"İmarethaneler genişletilmeli, yolcular misafir edilmeli.",
	"İpek Yolu ticareti canlandırılmalı, gümrük kolaylıkları sağlanmalı.",
	"Esnaflar için yeni bedesten inşa edilmeli.",
	"Yeni cami ve mescitler inşa edilmeli, ibadet yerleri artırılmalı.",
	"Sanat ve zanaat eğitimi için okullar açılmalı.",
	"Dini bayramlarda fakirlere daha çok yardım yapılmalı.",
	"Şehir içi güvenlik artırılmalı, asayişi sağlayacak kolluk kuvvetleri çoğaltılmalı.",
	"Vakıf çalışanları için daha iyi şartlar sağlanmalı.",
	"Şehir içi yeşil alanlar artırılmalı, bahçeler düzenlenmeli.",
	"Hamamlar ve temizlik yerleri çoğaltılmalı, halk sağlığı korunmalı.",
	"İmparatorluk ordusuna daha fazla destek verilmeli.",
	"Mahkemeler adil olmalı, kadılar denetlenmeli.",
	"Taşra ile başkent arasındaki iletişim güçlendirilmeli.",
	"Köylülerden alınan vergiler azaltılmalı, üretim teşvik edilmeli.",
	"Sel felaketlerine karşı önlem alınmalı, setler inşa edilmeli.",
	"Kuraklık tehlikesine karşı su depoları yapılmalı.",
	"İmparatorluk içinde farklı inançlara saygı gösterilmeli.",
	"Baharat Yolu üzerindeki ticaret güvenliği artırılmalı.",
	"Gemi yapımı teşvik edilmeli, deniz ticareti geliştirilmeli.",
	"İlim adamları daha fazla desteklenmeli, kitap yazımı teşvik edilmeli.",
	"Dini eğitim veren kurumlar denetlenmeli, kalite artırılmalı.",
	"Dullar ve yetimler için vakıf evleri inşa edilmeli.",
	"Meyve ağaçları dikilmeli, bahçecilik teşvik edilmeli.",
	"İçme suyu kaynakları korunmalı, kirlilik önlenmeli.",
	"Yabancı elçilere daha iyi konaklama imkanları sunulmalı.",
	"Esnaf ve zanaatkarların ürettiği mallar kalite kontrolünden geçirilmeli.",
}

var personas = []string{
	"İstanbullu Tüccar", "Bursalı Zanaatkar", "Edirneli Çiftçi",
	"Konyalı Alim", "İzmirli Esnaf", "Trabzonlu Balıkçı",
	"Şamlı Tacir", "Bağdatlı Sanatkar", "Selanikli Zeytin Üreticisi",
	"Kahireli Baharat Tüccarı", "Saraybosna'dan Bir Vakıf Görevlisi",
	"Sofya'dan Bir Kadı", "Konya'dan Bir Mevlevi Derviş",
	"Üsküdar'dan Bir İmam", "Beyoğlu'ndan Bir Meyhaneci",
}

// Idea is a suggestion posted by a citizen. Ideas carry no mechanics
// beyond their vote tallies.
type Idea struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	From        string    `json:"from"`
	Likes       int       `json:"likes"`
	Dislikes    int       `json:"dislikes"`
	TimeCreated time.Time `json:"time_created"`
}

// IdeaBox is the public idea board.
type IdeaBox struct {
	Ideas []*Idea `json:"ideas"`

	clock clock.Clock
}

// NewIdeaBox returns an empty board stamped by clk.
func NewIdeaBox(clk clock.Clock) *IdeaBox {
	return &IdeaBox{Ideas: []*Idea{}, clock: clk}
}

func (b *IdeaBox) now() time.Time {
	if b.clock == nil {
		return time.Now()
	}
	return b.clock.Now()
}

// Seed posts n random ideas from the predefined list, backdated a little
// so they read as earlier submissions.
func (b *IdeaBox) Seed(n int, rng entropy.Source) []*Idea {
	added := make([]*Idea, 0, n)
	for i := 0; i < n; i++ {
		age := time.Duration(entropy.Between(rng, 1000, 1000000)) * time.Millisecond
		idea := &Idea{
			ID:          uuid.NewString(),
			Text:        predefinedIdeas[rng.Intn(len(predefinedIdeas))],
			From:        personas[rng.Intn(len(personas))],
			Likes:       entropy.Between(rng, 0, 5),
			Dislikes:    entropy.Between(rng, 0, 2),
			TimeCreated: b.now().Add(-age),
		}
		b.Ideas = append(b.Ideas, idea)
		added = append(added, idea)
	}
	return added
}

// Add posts a player idea.
func (b *IdeaBox) Add(text string) (*Idea, error) {
	if text == "" {
		return nil, rules.Reject("Fikir metni boş olamaz")
	}
	idea := &Idea{
		ID:          uuid.NewString(),
		Text:        text,
		From:        AnonymousAuthor,
		TimeCreated: b.now(),
	}
	b.Ideas = append(b.Ideas, idea)
	return idea, nil
}

// Vote records a like or dislike. Unknown ids are rejected.
func (b *IdeaBox) Vote(id string, like bool) (*Idea, error) {
	for _, idea := range b.Ideas {
		if idea.ID != id {
			continue
		}
		if like {
			idea.Likes++
		} else {
			idea.Dislikes++
		}
		return idea, nil
	}
	return nil, rules.Reject("Fikir bulunamadı")
}

// Newest returns the ideas newest first.
func (b *IdeaBox) Newest() []*Idea {
	out := slices.Clone(b.Ideas)
	slices.SortStableFunc(out, func(a, c *Idea) int { return c.TimeCreated.Compare(a.TimeCreated) })
	return out
}
