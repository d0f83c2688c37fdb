package normalize

import (
	"testing"

	"fiyatradar/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		product       string
		wantUnit      string
		wantValue     float64
		wantGramaj    float64
		wantCountable bool
		wantNone      bool
	}{
		{name: "gram", product: "Dana Kıyma 500 g", wantUnit: "g", wantValue: 500, wantGramaj: 500},
		{name: "kilogram", product: "Baldo Pirinç 2,5 kg", wantUnit: "kg", wantValue: 2.5, wantGramaj: 2500},
		{name: "litre", product: "Pınar Süt 1 Lt", wantUnit: "lt", wantValue: 1, wantGramaj: 1000},
		{name: "mililitre", product: "Şampuan 400 ml", wantUnit: "ml", wantValue: 400, wantGramaj: 400},
		{name: "apostrophe count", product: "Yumurta 30'lu", wantUnit: "adet", wantValue: 30, wantCountable: true},
		{name: "adet", product: "Limon 3 adet", wantUnit: "adet", wantValue: 3, wantCountable: true},
		{name: "rulo", product: "Tuvalet Kağıdı 32 Rulo", wantUnit: "rulo", wantValue: 32, wantCountable: true},
		{name: "tablet", product: "Bulaşık Deterjanı 100 Tablet", wantUnit: "tablet", wantValue: 100, wantCountable: true},
		{name: "yikama", product: "Sıvı Deterjan 53 Yıkama", wantUnit: "yıkama", wantValue: 53, wantCountable: true},
		{name: "no unit", product: "Ekmek", wantNone: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := model.Product{ProductName: tc.product}
			Normalize(&p)
			if tc.wantNone {
				if p.HasUnitInfo {
					t.Fatalf("expected no unit info, got %s=%v", p.UnitType, p.UnitValue)
				}
				return
			}
			if !p.HasUnitInfo {
				t.Fatal("expected unit info")
			}
			if p.UnitType != tc.wantUnit {
				t.Fatalf("unit = %q, want %q", p.UnitType, tc.wantUnit)
			}
			if p.UnitValue == nil || *p.UnitValue != tc.wantValue {
				t.Fatalf("value = %v, want %v", p.UnitValue, tc.wantValue)
			}
			if p.IsCountable != tc.wantCountable {
				t.Fatalf("countable = %v, want %v", p.IsCountable, tc.wantCountable)
			}
			if tc.wantCountable {
				if p.Gramaj != nil {
					t.Fatalf("countable product must have nil gramaj, got %v", *p.Gramaj)
				}
			} else if p.Gramaj == nil || *p.Gramaj != tc.wantGramaj {
				t.Fatalf("gramaj = %v, want %v", p.Gramaj, tc.wantGramaj)
			}
		})
	}
}

func TestCalcUnitPrice(t *testing.T) {
	t.Run("per 100 grams", func(t *testing.T) {
		p := model.Product{ProductName: "Peynir 500 g", Price: 15}
		Normalize(&p)
		CalcUnitPrice(&p)
		if p.UnitPrice == nil || *p.UnitPrice != 3 {
			t.Fatalf("unit price = %v, want 3.00", p.UnitPrice)
		}
	})
	t.Run("per piece", func(t *testing.T) {
		p := model.Product{ProductName: "Tuvalet Kağıdı 32 Rulo", Price: 64}
		Normalize(&p)
		CalcUnitPrice(&p)
		if p.UnitPrice == nil || *p.UnitPrice != 2 {
			t.Fatalf("unit price = %v, want 2.00", p.UnitPrice)
		}
	})
	t.Run("no unit info", func(t *testing.T) {
		p := model.Product{ProductName: "Ekmek", Price: 10}
		Normalize(&p)
		CalcUnitPrice(&p)
		if p.UnitPrice != nil {
			t.Fatalf("unit price = %v, want nil", *p.UnitPrice)
		}
	})
}

func TestFilterInvalid(t *testing.T) {
	products := []model.Product{
		{ProductName: "Süt 1 Lt", Price: 27.5},
		{ProductName: "", Price: 10},
		{ProductName: "Yoğurt 1 kg", Price: 0},
		{ProductName: "Peynir", Price: -3},
	}
	got := FilterInvalid(products)
	if len(got) != 1 || got[0].ProductName != "Süt 1 Lt" {
		t.Fatalf("got %d products, want only the valid one", len(got))
	}
}

func TestDedupFuzzy(t *testing.T) {
	t.Run("same market collapses", func(t *testing.T) {
		products := []model.Product{
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt", Price: 27.5},
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt ", Price: 27.9},
		}
		got := DedupFuzzy(products)
		if len(got) != 1 {
			t.Fatalf("got %d products, want 1", len(got))
		}
		if got[0].Price != 27.5 {
			t.Fatal("first occurrence must be kept")
		}
	})
	t.Run("cross market kept", func(t *testing.T) {
		products := []model.Product{
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt", Price: 27.5},
			{MarketName: "Migros", ProductName: "Pınar Süt 1Lt", Price: 27.5},
		}
		if got := DedupFuzzy(products); len(got) != 2 {
			t.Fatalf("got %d products, want 2", len(got))
		}
	})
	t.Run("price gap kept", func(t *testing.T) {
		products := []model.Product{
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt", Price: 20},
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt", Price: 30},
		}
		if got := DedupFuzzy(products); len(got) != 2 {
			t.Fatalf("got %d products, want 2", len(got))
		}
	})
	t.Run("different names kept", func(t *testing.T) {
		products := []model.Product{
			{MarketName: "A101", ProductName: "Pınar Süt 1Lt", Price: 27.5},
			{MarketName: "A101", ProductName: "Torku Süt 1Lt", Price: 27.5},
		}
		if got := DedupFuzzy(products); len(got) != 2 {
			t.Fatalf("got %d products, want 2", len(got))
		}
	})
}

func TestRank(t *testing.T) {
	products := []model.Product{
		{ProductName: "Ekmek", Price: 5},
		{ProductName: "Süt 1 Lt", Price: 30, HasUnitInfo: true, UnitPrice: model.Float(3)},
		{ProductName: "Süt 500 ml", Price: 20, HasUnitInfo: true, UnitPrice: model.Float(4)},
		{ProductName: "Ayran", Price: 8},
	}
	Rank(products)

	// birim bilgisi olanlar önce, birim fiyat artan
	wantOrder := []string{"Süt 1 Lt", "Süt 500 ml", "Ekmek", "Ayran"}
	for i, want := range wantOrder {
		if products[i].ProductName != want {
			t.Fatalf("position %d = %q, want %q", i, products[i].ProductName, want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("abc", "abc"); got != 1 {
		t.Fatalf("identical strings = %v, want 1", got)
	}
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings = %v, want 0", got)
	}
	if got := Ratio("", ""); got != 1 {
		t.Fatalf("empty strings = %v, want 1", got)
	}
	// tek karakter farkı uzun isimlerde %95 üstünde kalmalı
	a := "pınar süt 1lt tam yağlı uht şişe"
	b := "pınar süt 1lt tam yağlı uht şişem"
	if got := Ratio(a, b); got < 0.95 {
		t.Fatalf("near-identical ratio = %v, want >= 0.95", got)
	}
	if got := Ratio("pınar süt", "torku ayran"); got >= 0.95 {
		t.Fatalf("distinct ratio = %v, want < 0.95", got)
	}
}
