package scraper

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	karekodAlcoholURL   = "https://www.karekod.org/blog/alkol-fiyatlari/"
	karekodCigaretteURL = "https://www.karekod.org/blog/sigara-fiyatlari-2026/"
)

// Türkçe renk → İngilizce karşılığı; sorgular her iki dille eşleşsin diye
var tekelColorMap = map[string]string{
	"gri":     "grey",
	"mavi":    "blue",
	"beyaz":   "white",
	"siyah":   "black",
	"kırmızı": "red",
	"sarı":    "yellow",
	"yeşil":   "green",
	"turuncu": "orange",
	"mor":     "purple",
	"pembe":   "pink",
}

var (
	// "Parliament Night Blue / Aqua Blue / Reserve: 100 TL" benzeri satırlar
	tekelTextPrices = []*regexp.Regexp{
		regexp.MustCompile(`(?im)([A-Z][A-Za-z\s]+(?:/[A-Za-z\s]+)*)\s*[:–]\s*(\d+(?:\.\d+)?)\s*TL`),
		regexp.MustCompile(`(?im)([A-Z][A-Za-z\s()]+(?:/[A-Za-z\s()]+)*)\s*[:–]\s*(\d+(?:\.\d+)?)\s*TL`),
	}
	tekelTobaccoQty   = regexp.MustCompile(`(?i)\d+\s*(?:GR|gram|kg|kilogram|sarmalık)`)
	tekelVolumeTokens = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d+['’]?lik`),
		regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:cl|ml|lt|l)`),
		regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*litre`),
	}
	tekelHeadingNoise = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(Sigara Fiyatları|Fiyat Listesi|Fiyatı|Fiyat|Philip Morris|JTI|BAT|Imperial Tobacco)\s*`),
		regexp.MustCompile(`(?i)\s*(Sigara Fiyatları|Fiyat Listesi|Fiyatı|Fiyat)$`),
		regexp.MustCompile(`(?i)Sigara\s+Fiyatları`),
		regexp.MustCompile(`(?i)Fiyat\s+Listesi`),
		regexp.MustCompile(`(?i)^(Philip Morris|JTI|BAT|Imperial Tobacco|T&T|KT&G|VTN Tobacco)\s+`),
	}
)

// Tekel serves alcohol and cigarette prices scraped from karekod.org blog
// pages. The pages are price catalogs, so they are fetched whole, cached
// for 12 hours and searched in memory.
type Tekel struct {
	base
	http *transport.Client
}

func NewTekel(store cache.Store, client *transport.Client) *Tekel {
	return &Tekel{
		base: base{market: "Tekel", cache: store, ttl: CatalogTTL},
		http: client,
	}
}

func (s *Tekel) Name() string { return s.market }

func (s *Tekel) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	queryLower := strings.ToLower(query)

	if cached, ok := s.cachedSearch(ctx, "search", queryLower); ok {
		return cached, nil
	}

	alcohol, err := s.catalog(ctx, "alcohol", karekodAlcoholURL)
	if err != nil {
		log.Printf("[Tekel] alkol kataloğu: %v", err)
	}
	cigarettes, err := s.catalog(ctx, "cigarette", karekodCigaretteURL)
	if err != nil {
		log.Printf("[Tekel] sigara kataloğu: %v", err)
	}
	all := append(alcohol, cigarettes...)
	if len(all) == 0 {
		return nil, fmt.Errorf("tekel katalog boş")
	}

	queries := expandColorQueries(queryLower)
	var results []model.Product
	seen := map[string]bool{}
	for _, p := range all {
		nameLower := strings.ToLower(p.ProductName)
		if !matchesAnyQuery(nameLower, queries) {
			continue
		}
		key := fmt.Sprintf("%s|%.2f", p.ProductName, p.Price)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, p)
	}

	if len(results) > 0 {
		s.storeSearch(ctx, "search", queryLower, results)
	}
	log.Printf("[Tekel] '%s' araması: %d ürün", query, len(results))
	return results, nil
}

// expandColorQueries adds English color variants so "tekel 2001 gri" also
// matches "Tekel 2001 Grey" in the catalog.
func expandColorQueries(queryLower string) []string {
	queries := []string{queryLower}
	for tr, en := range tekelColorMap {
		if strings.Contains(queryLower, tr) {
			queries = append(queries,
				strings.ReplaceAll(queryLower, tr, en),
				strings.ReplaceAll(queryLower, tr, tr+" "+en))
		}
	}
	return queries
}

// matchesAnyQuery accepts a product when any query variant matches: a
// multi-word variant requires every word, a single word plain substring.
func matchesAnyQuery(nameLower string, queries []string) bool {
	for _, q := range queries {
		words := strings.Fields(q)
		if len(words) > 1 {
			ok := true
			for _, w := range words {
				if !strings.Contains(nameLower, w) {
					ok = false
					break
				}
			}
			if ok {
				return true
			}
		} else if strings.Contains(nameLower, q) {
			return true
		}
	}
	return false
}

// catalog returns one blog page's full price list, from cache when fresh.
func (s *Tekel) catalog(ctx context.Context, kind, pageURL string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, kind, "prices"); ok {
		return cached, nil
	}

	headers := transport.DesktopHeaders("", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	body, err := s.http.Get(ctx, pageURL, headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("tekel HTML parse: %w", err)
	}

	results := append(s.parseTableRows(doc), s.parseTextPrices(doc.Text())...)

	// Aynı isim+fiyat çiftlerini tekilleştir
	seen := map[string]bool{}
	unique := results[:0]
	for _, p := range results {
		key := fmt.Sprintf("%s|%.2f", strings.ToLower(p.ProductName), p.Price)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, p)
	}

	if len(unique) > 0 {
		s.storeSearch(ctx, kind, "prices", unique)
	}
	log.Printf("[Tekel] %s kataloğu: %d ürün", kind, len(unique))
	return unique, nil
}

// parseTableRows extracts "Ürün | Miktar | Fiyat" or "Ürün | Fiyat" table
// rows. Rows whose quantity column is in grams are loose tobacco, not
// cigarette packs, and get skipped.
func (s *Tekel) parseTableRows(doc *goquery.Document) []model.Product {
	var results []model.Product
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}
		switch strings.ToLower(name) {
		case "ürün", "product", "miktar", "fiyat", "price":
			return
		}

		priceCell := 1
		if cells.Length() >= 3 {
			qty := strings.ToUpper(strings.TrimSpace(cells.Eq(1).Text()))
			for _, unit := range []string{"GR", "GRAM", "KG", "KILO"} {
				if strings.Contains(qty, unit) {
					return
				}
			}
			priceCell = cells.Length() - 1
		}

		price, ok := ParsePriceText(strings.TrimSpace(cells.Eq(priceCell).Text()))
		if !ok || price <= 0 {
			return
		}
		if cleaned := stripVolume(name); cleaned != "" {
			name = cleaned
		}
		results = append(results, model.Product{
			MarketName:  s.market,
			ProductName: name,
			Price:       math.Round(price*100) / 100,
			Currency:    "TRY",
		})
	})
	return results
}

// parseTextPrices handles free-text price lines outside the tables, e.g.
// "Parliament Night Blue / Aqua Blue / Reserve: 100 TL". Slash-separated
// variants become separate products at the same price.
func (s *Tekel) parseTextPrices(text string) []model.Product {
	var results []model.Product
	seen := map[string]bool{}

	for _, pattern := range tekelTextPrices {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			rawName := strings.TrimSpace(m[1])
			if tekelTobaccoQty.MatchString(rawName) {
				continue
			}
			if len(rawName) < 5 || len(rawName) > 100 {
				continue
			}
			price, ok := ParsePriceText(m[2])
			if !ok || price <= 0 {
				continue
			}

			name := whitespace.ReplaceAllString(rawName, " ")
			for _, noise := range tekelHeadingNoise {
				name = strings.TrimSpace(noise.ReplaceAllString(name, ""))
			}
			if len(name) < 3 {
				continue
			}
			if cleaned := stripVolume(name); cleaned != "" {
				name = cleaned
			}

			for _, variant := range strings.Split(name, "/") {
				variant = strings.TrimSpace(variant)
				if len(variant) <= 3 {
					continue
				}
				key := fmt.Sprintf("%s|%.2f", strings.ToLower(variant), price)
				if seen[key] {
					continue
				}
				seen[key] = true
				results = append(results, model.Product{
					MarketName:  s.market,
					ProductName: variant,
					Price:       math.Round(price*100) / 100,
					Currency:    "TRY",
				})
			}
		}
	}
	return results
}

// stripVolume drops pack-size tokens ("70'lik", "50 cl", "750 ml") from a
// catalog name so variants collapse onto the same product.
func stripVolume(name string) string {
	cleaned := name
	for _, pattern := range tekelVolumeTokens {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
}

func (s *Tekel) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	return firstMatch(ctx, s, id)
}

func (s *Tekel) Close() error { return nil }
