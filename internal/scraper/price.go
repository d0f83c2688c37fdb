package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"fiyatradar/internal/model"
)

// Kuruş detection: several sources report the price either in lira or in
// kuruş (×100) without labeling it.
const (
	priceThreshold = 1000.0
	priceDivisor   = 100.0
)

// SafePrice converts a raw numeric price into lira. A value above 1000 is
// taken to be kuruş and divided by 100; anything else is accepted as lira.
// The same heuristic also resolves stale kuruş values left in the cache,
// so it must be applied to cached data too.
func SafePrice(raw float64) float64 {
	if raw > priceThreshold {
		return round2(raw / priceDivisor)
	}
	return round2(raw)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SafePrices re-applies the kuruş heuristic to a cached result list, so
// kuruş-scaled entries written by older code self-heal on read.
func SafePrices(items []model.Product) []model.Product {
	for i := range items {
		items[i].Price = SafePrice(items[i].Price)
	}
	return items
}

var nonPriceChars = regexp.MustCompile(`[^\d.]`)

// ParsePriceText converts Turkish price text into a float.
// "14.900,00₺" → 14900.00, "1.175 TL" → 1175, "37,50" → 37.5.
func ParsePriceText(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "TL", "")
	s = strings.ReplaceAll(s, "₺", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// nokta binlik, virgül ondalık
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// inlinePrice matches a price glued to or following a name: "279,00TL",
// "37,50 TL".
var inlinePrice = regexp.MustCompile(`(?i)(\d{1,6}[.,]\d{1,2})\s*TL`)

// ExtractInlinePrice pulls the first "sayı,sayı TL" fragment out of text.
func ExtractInlinePrice(s string) (string, bool) {
	m := inlinePrice.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var (
	trailingPrice = regexp.MustCompile(`(?i)\d+[.,]\d+\s*TL\s*$`)
	gluedPrice    = regexp.MustCompile(`(?i)([A-ZÇĞIİÖŞÜa-zçğıöşü])(\d+[.,]\d+)\s*TL`)
)

// StripInlinePrice removes a glued price fragment from a product name
// ("TK JERSEY SÜT279,00TL" → "TK JERSEY SÜT").
func StripInlinePrice(name string) string {
	name = trailingPrice.ReplaceAllString(name, "")
	name = gluedPrice.ReplaceAllString(name, "$1")
	return strings.TrimSpace(name)
}
