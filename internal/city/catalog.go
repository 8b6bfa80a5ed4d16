package city

import "github.com/talgya/vakif/internal/building"

type seed struct {
	id, name, desc                string
	top, left                     int
	pop                           int
	capital                       bool
	prosperity, defense, cultural int
	tax, production               int
}

var seeds = []seed{
	{"istanbul", "İstanbul", "Osmanlı İmparatorluğu'nun başkenti ve en büyük şehri. 1453'te fethedildi.", 85, 370, 400000, true, 80, 90, 95, 10, 15},
	{"edirne", "Edirne", "İmparatorluğun eski başkenti. Önemli bir kültür ve ticaret merkezi.", 65, 320, 150000, false, 75, 70, 85, 8, 10},
	{"bursa", "Bursa", "İmparatorluğun ilk başkenti. İpek yolunun önemli bir durağı.", 135, 350, 120000, false, 70, 60, 80, 7, 12},
	{"izmir", "İzmir", "Önemli bir liman şehri. Ticaret ve denizcilik merkezi.", 210, 285, 100000, false, 85, 65, 75, 9, 13},
	{"konya", "Konya", "Anadolu'nun merkezi. Selçuklu mirası ve kültürel zenginliğiyle ünlü.", 205, 403, 80000, false, 65, 60, 90, 6, 8},
	{"trabzon", "Trabzon", "Karadeniz'in incisi. Önemli bir ticaret merkezi.", 95, 510, 50000, false, 60, 55, 70, 6, 7},
	{"ankara", "Ankara", "Anadolu'nun merkezi. Tiftik keçisi ve yünüyle ünlü.", 145, 405, 60000, false, 55, 50, 60, 5, 6},
	{"diyarbakir", "Diyarbakır", "Güneydoğunun kalesi. Tarihi surları ve kültürel zenginliğiyle önemli.", 195, 490, 40000, false, 50, 65, 65, 4, 5},
	{"selanik", "Selanik", "Balkanların incisi. Osmanlı'nın Avrupa'ya açılan kapısı.", 120, 260, 90000, false, 75, 60, 80, 8, 9},
	{"saraybosna", "Saraybosna", "Balkanların kalbi. Kültürlerin buluşma noktası.", 90, 180, 35000, false, 60, 55, 75, 5, 6},
	{"sofya", "Sofya", "Balkanların stratejik şehri. Ticaret yollarının kavşağında.", 80, 240, 30000, false, 55, 50, 65, 4, 5},
	{"bagdat", "Bağdat", "Mezopotamya'nın incisi. Bilim ve kültür merkezi.", 280, 505, 110000, false, 70, 60, 90, 7, 8},
	{"kahire", "Kahire", "Mısır'ın kalbi. Nil'in hediyesi ve kültür merkezi.", 340, 380, 300000, false, 85, 75, 95, 10, 12},
	{"sivas", "Sivas", "Anadolu'nun doğu kapısı. Ticaret yollarının kavşağında.", 155, 460, 45000, false, 50, 55, 60, 5, 6},
}

// Catalog returns fresh copies of the fourteen playable cities.
func Catalog() []*City {
	out := make([]*City, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, &City{
			ID:           s.id,
			Name:         s.name,
			Description:  s.desc,
			Position:     Position{Top: s.top, Left: s.left},
			Population:   s.pop,
			IsCapital:    s.capital,
			Buildings:    []*building.Instance{},
			Prosperity:   s.prosperity,
			DefenseLevel: s.defense,
			Cultural:     s.cultural,
			Resources:    Output{TaxRate: s.tax, Production: s.production},
		})
	}
	return out
}

// Find returns the city with the given id.
func Find(cities []*City, id string) *City {
	for _, c := range cities {
		if c.ID == id {
			return c
		}
	}
	return nil
}
