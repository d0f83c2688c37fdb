// Package normalize turns raw scraped products into comparable ones:
// it extracts unit info from product names, computes per-unit prices,
// drops invalid rows, collapses near-duplicate listings and ranks the
// rest cheapest first.
package normalize

import (
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"fiyatradar/internal/model"
	"fiyatradar/internal/observability"
)

type unitPattern struct {
	name      string
	re        *regexp.Regexp
	factor    float64
	countable bool
}

// Sıra önemli: kg > g > lt > ml > adet > rulo > tablet > yıkama.
// İlk eşleşme kazanır, bu yüzden "1 kg" asla "g" olarak okunmaz.
//
// Sayılabilir kalıpta "'lı/'li/'lu/'lü" sonrasına \b konmaz: RE2'de \b
// ASCII tabanlıdır ve ı/ü harflerinden sonra çalışmaz.
var unitPatterns = []unitPattern{
	{"kg", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kg|kilogram|kilo)\b`), 1000, false},
	{"g", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:gr?|gram|g)\b`), 1, false},
	{"lt", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:lt|l|litre|liter)\b`), 1000, false},
	{"ml", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:ml|mililitre|milliliter)\b`), 1, false},
	{"adet", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:['’]?l[iıuü]|(?:adet|ad|pcs|piece|paket|pkt)\b)`), 1, true},
	{"rulo", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:rulo|roll)\b`), 1, true},
	{"tablet", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:tablet|tb|tab)\b`), 1, true},
	{"yıkama", regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:yıkama|yikama|wash)\b`), 1, true},
}

const (
	similarityThreshold = 0.95
	priceTolerance      = 0.05
)

// Normalize extracts the quantity and unit from the product name and
// fills UnitType, UnitValue, Gramaj, IsCountable and HasUnitInfo.
// Countable units (adet, rulo, tablet, yıkama) carry no gramaj.
func Normalize(p *model.Product) {
	if p.ProductName == "" {
		return
	}
	text := strings.ToLower(strings.ReplaceAll(p.ProductName, ",", "."))

	for _, u := range unitPatterns {
		m := u.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, ok := parseFloat(strings.ReplaceAll(m[1], ",", "."))
		if !ok {
			continue
		}
		p.UnitType = u.name
		p.UnitValue = model.Float(value)
		p.IsCountable = u.countable
		if u.countable {
			p.Gramaj = nil
		} else {
			p.Gramaj = model.Float(value * u.factor)
		}
		break
	}
	p.HasUnitInfo = p.UnitType != "" && p.UnitType != "unknown" && p.UnitValue != nil
}

// CalcUnitPrice fills UnitPrice: price per piece for countable units,
// price per 100 g/ml otherwise. Left nil when no unit was detected.
func CalcUnitPrice(p *model.Product) {
	p.UnitPrice = nil
	if p.Price <= 0 {
		return
	}
	switch {
	case p.IsCountable && p.UnitValue != nil && *p.UnitValue > 0:
		p.UnitPrice = model.Float(round2(p.Price / *p.UnitValue))
	case p.Gramaj != nil && *p.Gramaj > 0:
		p.UnitPrice = model.Float(round2(p.Price / *p.Gramaj * 100))
	}
}

// FilterInvalid drops rows with an empty name or a non-positive price.
func FilterInvalid(products []model.Product) []model.Product {
	valid := products[:0]
	dropped := 0
	for _, p := range products {
		if strings.TrimSpace(p.ProductName) == "" || p.Price <= 0 {
			dropped++
			observability.InvalidProductsTotal.Inc()
			continue
		}
		valid = append(valid, p)
	}
	if dropped > 0 {
		log.Printf("[normalize] %d geçersiz ürün filtrelendi (%d → %d)", dropped, len(products), len(valid))
	}
	return valid
}

// DedupFuzzy removes near-duplicate listings within the same market: a
// later product is a duplicate when its name is at least 95% similar to
// an earlier one and the prices differ by at most 5%. Cross-market pairs
// are never collapsed, those are the comparison the caller wants.
func DedupFuzzy(products []model.Product) []model.Product {
	if len(products) < 2 {
		return products
	}

	byMarket := map[string][]int{}
	for i, p := range products {
		byMarket[p.MarketName] = append(byMarket[p.MarketName], i)
	}

	drop := map[int]bool{}
	dropped := 0
	for _, idxs := range byMarket {
		for a := 0; a < len(idxs); a++ {
			if drop[idxs[a]] {
				continue
			}
			p1 := products[idxs[a]]
			name1 := strings.ToLower(strings.TrimSpace(p1.ProductName))
			for b := a + 1; b < len(idxs); b++ {
				if drop[idxs[b]] {
					continue
				}
				p2 := products[idxs[b]]
				name2 := strings.ToLower(strings.TrimSpace(p2.ProductName))
				if Ratio(name1, name2) < similarityThreshold {
					continue
				}
				if !pricesSimilar(p1.Price, p2.Price) {
					continue
				}
				drop[idxs[b]] = true
				dropped++
				observability.FuzzyDuplicatesTotal.Inc()
			}
		}
	}
	if dropped == 0 {
		return products
	}

	unique := make([]model.Product, 0, len(products)-dropped)
	for i, p := range products {
		if !drop[i] {
			unique = append(unique, p)
		}
	}
	log.Printf("[normalize] %d mükerrer ürün temizlendi (%d → %d)", dropped, len(products), len(unique))
	return unique
}

func pricesSimilar(p1, p2 float64) bool {
	if p1 > 0 && p2 > 0 {
		return math.Abs(p1-p2)/math.Max(p1, p2) <= priceTolerance
	}
	return p1 == p2
}

// Rank orders products cheapest first: rows with unit info come before
// rows without, sorted by unit price then total price then name; the
// unitless tail is sorted by total price then name.
func Rank(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.HasUnitInfo != b.HasUnitInfo {
			return a.HasUnitInfo
		}
		if a.HasUnitInfo {
			ua, ub := floatOrInf(a.UnitPrice), floatOrInf(b.UnitPrice)
			if ua != ub {
				return ua < ub
			}
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ProductName < b.ProductName
	})
}

// Process runs the full pipeline in order: normalization, unit price
// calculation, invalid filtering, fuzzy dedup, ranking.
func Process(products []model.Product) []model.Product {
	for i := range products {
		Normalize(&products[i])
		CalcUnitPrice(&products[i])
	}
	products = FilterInvalid(products)
	products = DedupFuzzy(products)
	Rank(products)
	return products
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatOrInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
