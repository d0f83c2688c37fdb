package filter

import (
	"context"
	"errors"
	"testing"

	"fiyatradar/internal/model"
)

func TestBlacklistFilter(t *testing.T) {
	products := []model.Product{
		{ProductName: "Pınar Süt 1 Lt", Price: 30},
		{ProductName: "Köpek Maması 1kg", Price: 150},
		{ProductName: "Tavuk Çorbası", Price: 12},
	}
	got := blacklistFilter("süt", products)
	if len(got) != 1 || got[0].ProductName != "Pınar Süt 1 Lt" {
		t.Fatalf("got %d products, want only the milk", len(got))
	}
}

func TestBlacklistWaivedByQuery(t *testing.T) {
	products := []model.Product{
		{ProductName: "Proplan Kedi Maması", Price: 200},
	}
	got := blacklistFilter("kedi maması", products)
	if len(got) != 1 {
		t.Fatal("blacklist terms present in the query must be waived")
	}
}

func TestDynamicKeywordFilter(t *testing.T) {
	t.Run("chicken rule", func(t *testing.T) {
		products := []model.Product{
			{ProductName: "Piliç Göğsü 500g", Price: 90},
			{ProductName: "Banvit Tavuk But", Price: 75},
			{ProductName: "Dana Kıyma 500g", Price: 250},
		}
		got := dynamicKeywordFilter("tavuk", products)
		if len(got) != 2 {
			t.Fatalf("got %d products, want 2", len(got))
		}
	})
	t.Run("specific rule wins over generic", func(t *testing.T) {
		// "tavuk göğsü" kuralı "tavuk"tan önce eşleşmeli: bonfile geçer
		products := []model.Product{
			{ProductName: "Piliç Bonfile 400g", Price: 80},
		}
		got := dynamicKeywordFilter("tavuk göğsü", products)
		if len(got) != 1 {
			t.Fatal("bonfile must pass the tavuk göğsü rule")
		}
	})
	t.Run("broken encoding matches", func(t *testing.T) {
		products := []model.Product{
			{ProductName: "Mis SÃ¼t 1 Lt", Price: 25},
		}
		got := dynamicKeywordFilter("süt", products)
		if len(got) != 1 {
			t.Fatal("mojibake name must still match after folding")
		}
	})
	t.Run("fallback query words", func(t *testing.T) {
		products := []model.Product{
			{ProductName: "Duru Bulgur 1 kg", Price: 45},
			{ProductName: "Nohut 1 kg", Price: 60},
		}
		got := dynamicKeywordFilter("bulgur", products)
		if len(got) != 1 || got[0].ProductName != "Duru Bulgur 1 kg" {
			t.Fatalf("got %d products, want only bulgur", len(got))
		}
	})
}

func TestDeduplicate(t *testing.T) {
	products := []model.Product{
		{MarketName: "A101", ProductName: "Süt 1 Lt", Price: 25},
		{MarketName: "a101", ProductName: "süt 1 lt ", Price: 26},
		{MarketName: "Migros", ProductName: "Süt 1 Lt", Price: 27},
	}
	got := deduplicate(products)
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2", len(got))
	}
}

func TestNormalizeUnitPrice(t *testing.T) {
	products := []model.Product{
		{ProductName: "Peynir 500 g", Price: 100, Gramaj: model.Float(500)},
		{ProductName: "Ekmek", Price: 10},
	}
	got := normalizeUnitPrice(products)

	if got[0].UnitPrice == nil || *got[0].UnitPrice != 20 {
		t.Fatalf("unit price = %v, want 20 TL/100g", got[0].UnitPrice)
	}
	if got[0].NormalizedPricePerKg == nil || *got[0].NormalizedPricePerKg != 200 {
		t.Fatalf("per-kg = %v, want 200", got[0].NormalizedPricePerKg)
	}
	if got[1].NormalizedPricePerKg != nil {
		t.Fatal("unitless product must have nil per-kg price")
	}
}

type stubReranker struct {
	result []model.Product
	err    error
	called bool
}

func (s *stubReranker) Rerank(_ context.Context, _ string, products []model.Product) ([]model.Product, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return products, nil
}

func TestRerankFailOpen(t *testing.T) {
	stub := &stubReranker{err: errors.New("kota doldu")}
	svc := New(stub)

	products := []model.Product{
		{MarketName: "A101", ProductName: "Pınar Süt 1 Lt", Price: 25, Gramaj: model.Float(1000)},
		{MarketName: "Migros", ProductName: "Torku Süt 1 Lt", Price: 30, Gramaj: model.Float(1000)},
	}
	got := svc.FilterAndRank(context.Background(), "süt", products)
	if !stub.called {
		t.Fatal("reranker must be invoked")
	}
	if len(got) != 2 {
		t.Fatalf("fail-open must keep the local list, got %d products", len(got))
	}
	if got[0].ProductName != "Pınar Süt 1 Lt" {
		t.Fatal("cheapest per unit must stay first on fallback")
	}
}

func TestFinalSortByUnitPrice(t *testing.T) {
	svc := New(nil)
	products := []model.Product{
		{MarketName: "Migros", ProductName: "Süt 500 ml", Price: 20, Gramaj: model.Float(500)},
		{MarketName: "A101", ProductName: "Süt 1 Lt", Price: 30, Gramaj: model.Float(1000)},
		{MarketName: "SOK", ProductName: "Süt Şişe", Price: 15},
	}
	got := svc.FilterAndRank(context.Background(), "süt", products)

	// 1 Lt: 3 TL/100ml < 500 ml: 4 TL/100ml < birimsiz şişe en sonda
	wantOrder := []string{"Süt 1 Lt", "Süt 500 ml", "Süt Şişe"}
	for i, want := range wantOrder {
		if got[i].ProductName != want {
			t.Fatalf("position %d = %q, want %q", i, got[i].ProductName, want)
		}
	}
}
