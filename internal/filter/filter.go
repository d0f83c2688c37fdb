// Package filter runs the relevance pipeline over aggregated results:
// blacklist, dynamic keyword check, dedup, per-kg normalized price and
// an optional AI re-rank.
package filter

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"

	"fiyatradar/internal/model"
	"fiyatradar/internal/observability"
	"fiyatradar/internal/scraper"
)

// Ürün adında geçiyorsa ve sorgu içermiyorsa → ele
var blacklistKeywords = []string{
	"ped", "noodle", "çorba", "bulyon", "sos", "deterjan",
	"şampuan", "sabun", "peçete", "tuvalet", "mendil", "parfüm",
	"diş macunu", "krem", "losyon", "deodorant", "çamaşır",
	"bulaşık", "fumesi", "baharat", "kedi", "köpek", "mama",
}

type dynamicRule struct {
	trigger  string
	required []string
}

// Sorgu → ürün adında geçmesi zorunlu kelimeler. Sıra önemli: "tavuk
// göğsü" kuralı "tavuk"tan önce denenmeli.
var dynamicRules = []dynamicRule{
	{"tavuk göğsü", []string{"piliç", "tavuk", "bonfile", "göğüs", "gogus", "göğsü"}},
	{"tavuk", []string{"piliç", "tavuk", "chicken"}},
	{"bonfile", []string{"bonfile", "piliç", "tavuk", "göğüs"}},
	{"süt", []string{"süt", "milk"}},
	{"yoğurt", []string{"yoğurt", "yogurt"}},
	{"peynir", []string{"peynir", "cheese"}},
	{"yumurta", []string{"yumurta", "egg"}},
	{"pirinç", []string{"pirinç", "baldo", "basmati"}},
	{"makarna", []string{"makarna", "spagetti", "penne", "pasta"}},
	{"un", []string{"un ", " un", "ekmeklik un", "çok amaçlı"}},
	{"şeker", []string{"şeker", "toz şeker"}},
	{"zeytinyağı", []string{"zeytinyağ", "sızma"}},
	{"ayçiçek yağı", []string{"ayçiçek", "ayçiçeği"}},
	{"kıyma", []string{"kıyma", "dana", "kuzu"}},
	{"dana eti", []string{"dana", "biftek", "antrikot", "kuşbaşı"}},
}

// Reranker reorders a filtered result list for a query. A failing
// reranker never fails the pipeline, the local order is kept.
type Reranker interface {
	Rerank(ctx context.Context, query string, products []model.Product) ([]model.Product, error)
}

// Service runs the relevance pipeline. reranker may be nil.
type Service struct {
	reranker Reranker
}

func New(reranker Reranker) *Service {
	return &Service{reranker: reranker}
}

// FilterAndRank runs the full pipeline and returns the products ordered
// cheapest first by unit price, then per-kg price, then total price.
func (s *Service) FilterAndRank(ctx context.Context, query string, products []model.Product) []model.Product {
	countIn := len(products)

	products = blacklistFilter(query, products)
	products = dynamicKeywordFilter(query, products)
	products = deduplicate(products)
	products = normalizeUnitPrice(products)

	log.Printf("[filter] '%s': %d → %d ürün (yerel filtre)", query, countIn, len(products))

	products = s.rerank(ctx, query, products)

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		ua, ub := orInf(a.UnitPrice), orInf(b.UnitPrice)
		if ua != ub {
			return ua < ub
		}
		na, nb := orInf(a.NormalizedPricePerKg), orInf(b.NormalizedPricePerKg)
		if na != nb {
			return na < nb
		}
		return a.Price < b.Price
	})
	return products
}

func blacklistFilter(query string, products []model.Product) []model.Product {
	queryLower := strings.ToLower(query)
	result := products[:0]
	for _, p := range products {
		name := strings.ToLower(p.ProductName)
		blocked := false
		for _, kw := range blacklistKeywords {
			if strings.Contains(name, kw) && !strings.Contains(queryLower, kw) {
				blocked = true
				break
			}
		}
		if !blocked {
			result = append(result, p)
		}
	}
	return result
}

// dynamicKeywordFilter keeps products containing at least one required
// word for the matched rule. Names are also checked in ASCII-folded form
// so broken-encoding names ("sã¼t") still match. Without a rule, any
// query word of three or more characters must appear.
func dynamicKeywordFilter(query string, products []model.Product) []model.Product {
	queryLower := strings.ToLower(query)

	var required []string
	for _, rule := range dynamicRules {
		if strings.Contains(queryLower, rule.trigger) {
			required = rule.required
			break
		}
	}

	if required == nil {
		var queryWords []string
		for _, w := range strings.Fields(queryLower) {
			if len([]rune(w)) >= 3 {
				queryWords = append(queryWords, w)
			}
		}
		if len(queryWords) == 0 {
			return products
		}
		result := products[:0]
		for _, p := range products {
			name := strings.ToLower(p.ProductName)
			for _, w := range queryWords {
				if strings.Contains(name, w) {
					result = append(result, p)
					break
				}
			}
		}
		return result
	}

	// Zorunlu kelimelerin ASCII katlanmış hallerini de ekle: süt → sut
	expanded := append([]string{}, required...)
	for _, rw := range required {
		if folded := scraper.FoldASCII(rw); folded != rw {
			expanded = append(expanded, folded)
		}
	}

	result := products[:0]
	for _, p := range products {
		name := strings.ToLower(p.ProductName)
		// Onarım küçük harfe çevirmeden önce yapılmalı; mojibake tablosu
		// büyük harfli ikilileri tanır.
		folded := scraper.FoldASCII(scraper.RepairEncoding(p.ProductName))
		for _, rw := range expanded {
			if strings.Contains(name, rw) || strings.Contains(folded, rw) {
				result = append(result, p)
				break
			}
		}
	}
	return result
}

func deduplicate(products []model.Product) []model.Product {
	seen := map[[2]string]bool{}
	unique := products[:0]
	for _, p := range products {
		key := [2]string{
			strings.ToLower(strings.TrimSpace(p.ProductName)),
			strings.ToLower(p.MarketName),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}
	return unique
}

// normalizeUnitPrice fills UnitPrice from gramaj when the normalizer
// left it empty and always recomputes NormalizedPricePerKg, so a 500 g
// product's price doubled gives its per-kg price.
func normalizeUnitPrice(products []model.Product) []model.Product {
	for i := range products {
		p := &products[i]
		hasGramaj := p.Gramaj != nil && *p.Gramaj > 0 && p.Price > 0
		if p.UnitPrice == nil && hasGramaj {
			p.UnitPrice = model.Float(round2(p.Price / *p.Gramaj * 100))
		}
		if hasGramaj {
			p.NormalizedPricePerKg = model.Float(round2(p.Price / *p.Gramaj * 1000))
		} else {
			p.NormalizedPricePerKg = nil
		}
	}
	return products
}

// rerank is fail-open: any reranker error or empty answer keeps the
// local order.
func (s *Service) rerank(ctx context.Context, query string, products []model.Product) []model.Product {
	if s.reranker == nil || len(products) == 0 {
		return products
	}
	reranked, err := s.reranker.Rerank(ctx, query, products)
	if err != nil || len(reranked) == 0 {
		observability.RerankFallbacksTotal.Inc()
		if err != nil {
			log.Printf("[filter] AI re-rank başarısız (fallback): %v", err)
		}
		return products
	}
	log.Printf("[filter] AI re-rank: %d → %d ürün", len(products), len(reranked))
	return reranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}
