package scraper

import (
	"testing"

	"fiyatradar/internal/cache"
)

const sokSamplePayload = `{"initialSearchResult":{"results":[
	{"id":101,"product":{"name":"SÃ¼taÅŸ SÃ¼t 1 Lt","images":[{"host":"cdn.sokmarket.com.tr","path":"images/101.jpg"}]},
	 "prices":{"discounted":{"value":2750},"value":3000}},
	{"id":102,"product":{"name":"Tavuk Ã‡orbasÄ±"},"prices":{"value":1200}},
	{"id":103,"product":{"name":"Ekmek"},"prices":{"value":0}}
]}}`

func TestParseRSCPayloadStrategies(t *testing.T) {
	t.Run("next data script", func(t *testing.T) {
		html := `<html><script id="__NEXT_DATA__" type="application/json">` + sokSamplePayload + `</script></html>`
		data := parseRSCPayload(html)
		if data == nil {
			t.Fatal("expected payload from __NEXT_DATA__ script")
		}
		if _, ok := data[sokMarker]; !ok {
			t.Fatal("missing marker key")
		}
	})
	t.Run("whole body json", func(t *testing.T) {
		if parseRSCPayload(sokSamplePayload) == nil {
			t.Fatal("expected payload from raw JSON body")
		}
	})
	t.Run("marker embedded in noise", func(t *testing.T) {
		text := `self.__next_f.push([1,"çöp"]) ` + sokSamplePayload + ` trailing`
		data := parseRSCPayload(text)
		if data == nil {
			t.Fatal("expected payload via marker scan")
		}
		items := sokProductList(data)
		if len(items) != 3 {
			t.Fatalf("got %d items, want 3", len(items))
		}
	})
	t.Run("no payload", func(t *testing.T) {
		if parseRSCPayload("<html><body>boş sayfa</body></html>") != nil {
			t.Fatal("expected nil for a page without product data")
		}
	})
}

func TestSokProductListEnvelopes(t *testing.T) {
	direct := map[string]any{sokMarker: map[string]any{"results": []any{1}}}
	if items := sokProductList(direct); len(items) != 1 {
		t.Fatal("direct envelope not handled")
	}
	nextData := map[string]any{
		"props": map[string]any{"pageProps": map[string]any{
			sokMarker: map[string]any{"results": []any{1, 2}},
		}},
	}
	if items := sokProductList(nextData); len(items) != 2 {
		t.Fatal("pageProps envelope not handled")
	}
	bare := map[string]any{"results": []any{1, 2, 3}}
	if items := sokProductList(bare); len(items) != 3 {
		t.Fatal("bare envelope not handled")
	}
}

func TestSokParseItem(t *testing.T) {
	s := NewSok(cache.NewMemory(), nil)

	t.Run("repairs encoding and converts kurus", func(t *testing.T) {
		item := map[string]any{
			"id": float64(101),
			"product": map[string]any{
				"name": "SÃ¼t 1 Lt",
				"images": []any{map[string]any{
					"host": "cdn.sokmarket.com.tr",
					"path": "images/101.jpg",
				}},
			},
			"prices": map[string]any{
				"discounted": map[string]any{"value": float64(2750)},
				"value":      float64(3000),
			},
		}
		p, ok := s.parseItem(item)
		if !ok {
			t.Fatal("expected product")
		}
		if p.ProductName != "Süt 1 Lt" {
			t.Fatalf("name = %q", p.ProductName)
		}
		if p.Price != 27.5 {
			t.Fatalf("price = %v, want 27.50 (kuruş conversion, discounted wins)", p.Price)
		}
		if p.ImageURL != "https://cdn.sokmarket.com.tr/images/101.jpg" {
			t.Fatalf("image = %q", p.ImageURL)
		}
		if p.ProductID != "101" {
			t.Fatalf("id = %q", p.ProductID)
		}
		if p.Gramaj == nil || *p.Gramaj != 1000 {
			t.Fatalf("gramaj = %v, want 1000", p.Gramaj)
		}
	})

	t.Run("blacklisted keyword", func(t *testing.T) {
		item := map[string]any{
			"product": map[string]any{"name": "Hazır Tavuk Çorbası"},
			"prices":  map[string]any{"value": float64(1200)},
		}
		if _, ok := s.parseItem(item); ok {
			t.Fatal("çorba must be excluded")
		}
	})

	t.Run("excluded category", func(t *testing.T) {
		item := map[string]any{
			"product": map[string]any{"name": "Kuru Ödül Bisküvisi"},
			"prices":  map[string]any{"value": float64(500)},
			"sku": map[string]any{
				"breadCrumbs": []any{map[string]any{"code": "evcil-dostlar"}},
			},
		}
		if _, ok := s.parseItem(item); ok {
			t.Fatal("evcil-dostlar category must be excluded")
		}
	})

	t.Run("zero price", func(t *testing.T) {
		item := map[string]any{
			"product": map[string]any{"name": "Ekmek Çeşitleri"},
			"prices":  map[string]any{"value": float64(0)},
		}
		if _, ok := s.parseItem(item); ok {
			t.Fatal("zero price must be rejected")
		}
	})
}
