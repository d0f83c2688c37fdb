package scraper

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	bimBaseURL    = "https://www.bim.com.tr"
	bimMaxResults = 20

	// okatalog.com mirrors the aktüel archive per category; last resort
	// when the homepage yields nothing.
	okatalogBaseURL  = "https://www.okatalog.com"
	okatalogMaxItems = 15
	okatalogMaxCards = 30
)

var okatalogCategories = []string{
	"/temel-gida-aktuel-urun-fiyatlari-bim",
	"/sut-urunleri-aktuel-urun-fiyatlari-bim",
	"/atistirmalik-aktuel-urun-fiyatlari-bim",
	"/icecek-aktuel-urun-fiyatlari-bim",
	"/et-urunleri-aktuel-urun-fiyatlari-bim",
	"/temizlik-aktuel-urun-fiyatlari-bim",
}

// Bim scrapes the aktüel product cards on bim.com.tr. The markup changes
// often, so an empty selector result falls back to a raw-text regex scan
// and, last, to the okatalog.com archive.
type Bim struct {
	base
	http *transport.Client
}

func NewBim(store cache.Store, client *transport.Client) *Bim {
	return &Bim{
		base: base{market: "BIM", cache: store, ttl: DefaultTTL},
		http: client,
	}
}

func (s *Bim) Name() string { return s.market }

func (s *Bim) Search(ctx context.Context, query string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, "search", query); ok {
		return cached, nil
	}

	headers := transport.DesktopHeaders(bimBaseURL, "")
	body, err := s.http.Get(ctx, bimBaseURL, headers)
	if err != nil {
		return nil, fmt.Errorf("bim arama: %w", err)
	}
	text := string(body)

	results := s.parseCards(text)
	if len(results) == 0 {
		results = regexParseBim(text, strings.ToLower(query))
	}
	if len(results) == 0 {
		results = s.searchOkatalog(ctx, strings.ToLower(query))
	}

	s.storeSearch(ctx, "search", query, results)
	return results, nil
}

// searchOkatalog walks the okatalog category pages until enough cards
// match the query.
func (s *Bim) searchOkatalog(ctx context.Context, queryLower string) []model.Product {
	var queryWords []string
	for _, w := range strings.Fields(queryLower) {
		if len(w) >= 3 {
			queryWords = append(queryWords, w)
		}
	}
	if len(queryWords) == 0 {
		return nil
	}

	var results []model.Product
	for _, catPath := range okatalogCategories {
		if len(results) >= okatalogMaxItems {
			break
		}
		headers := transport.DesktopHeaders(okatalogBaseURL, "")
		body, err := s.http.Get(ctx, okatalogBaseURL+catPath, headers)
		if err != nil {
			log.Printf("[BIM] okatalog kategorisi %s: %v", catPath, err)
			continue
		}
		results = append(results,
			parseOkatalogCards(string(body), queryWords, okatalogMaxItems-len(results))...)
	}
	return results
}

var (
	okatalogPriceLabeled = regexp.MustCompile(`(?i)Fiyat:\s*(\d+(?:[.,]\d+)?)\s*TL`)
	okatalogPriceLoose   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*TL`)
	okatalogName         = regexp.MustCompile(`(?i)BİM\s+(.+?)(?:Fiyat|$)`)
)

// parseOkatalogCards reads "BİM Ürün Adı ... Fiyat: 34,50 TL" archive
// cards. Cards without a BİM marker belong to other chains and are
// skipped; names must share a query word.
func parseOkatalogCards(html string, queryWords []string, limit int) []model.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[BIM] okatalog HTML parse hatası: %v", err)
		return nil
	}

	var results []model.Product
	sel := doc.Find(".product-card, .urun-card, article, [class*='product'], [class*='catalog']")
	sel.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= okatalogMaxCards || len(results) >= limit {
			return false
		}
		text := strings.TrimSpace(whitespace.ReplaceAllString(card.Text(), " "))
		if !strings.Contains(strings.ToUpper(text), "BİM") {
			return true
		}

		m := okatalogPriceLabeled.FindStringSubmatch(text)
		if m == nil {
			m = okatalogPriceLoose.FindStringSubmatch(text)
		}
		if m == nil {
			return true
		}
		price, ok := ParsePriceText(m[1])
		if !ok || price <= 0 {
			return true
		}

		name := text
		if nm := okatalogName.FindStringSubmatch(text); nm != nil {
			name = nm[1]
		}
		if runes := []rune(name); len(runes) > 100 {
			name = string(runes[:100])
		}
		name = StripInlinePrice(name)
		if name == "" {
			return true
		}

		nameLower := strings.ToLower(name)
		matched := false
		for _, w := range queryWords {
			if strings.Contains(nameLower, w) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}

		p := model.Product{
			MarketName:  "BIM",
			ProductName: name,
			Price:       price,
			Currency:    "TRY",
		}
		p.Gramaj = AttachGramaj(name, nil)
		results = append(results, p)
		return true
	})
	return results
}

func (s *Bim) parseCards(html string) []model.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[BIM] HTML parse hatası: %v", err)
		return nil
	}

	var results []model.Product
	doc.Find(".product").Each(func(_ int, card *goquery.Selection) {
		if len(results) >= bimMaxResults {
			return
		}
		name := strings.TrimSpace(card.Find("h2.title").First().Text())
		if len(name) < 3 {
			return
		}

		// span.curr holds only the currency glyph; the full "14.900,00₺"
		// text lives on its parent.
		priceEl := card.Find("span.curr").First()
		if priceEl.Length() == 0 {
			return
		}
		priceText := strings.TrimSpace(priceEl.Parent().Text())
		if priceText == "" {
			priceText = strings.TrimSpace(priceEl.Text())
		}
		price, ok := ParsePriceText(priceText)
		if !ok || price <= 0 {
			return
		}

		p := model.Product{
			MarketName:  s.market,
			ProductName: name,
			Price:       price,
			Currency:    "TRY",
			ImageURL:    resolveImage(card, bimBaseURL),
		}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			if m := bimProductID.FindStringSubmatch(href); m != nil {
				p.ProductID = m[1]
			}
		}
		if g, ok := ParseGramaj(card.Text()); ok {
			p.Gramaj = model.Float(g)
		} else {
			p.Gramaj = AttachGramaj(name, nil)
		}
		results = append(results, p)
	})
	return results
}

var (
	bimProductID = regexp.MustCompile(`/(\d+)/`)
	whitespace   = regexp.MustCompile(`\s+`)
	// "Ürün Adı ... 350,00 ₺" pairs in flattened page text
	bimNamePrice = regexp.MustCompile(`(?:##\s*)?([A-ZÇĞİÖŞÜa-zçğıöşü][^\n₺]{5,100}?)\s*(\d{1,3}(?:\.\d{3})*,\s*\d{2})\s*₺`)
)

// regexParseBim is the markup-change fallback: scan the flattened text
// for name/price pairs and keep only names sharing a ≥3-char word with
// the query.
func regexParseBim(text, queryLower string) []model.Product {
	clean := whitespace.ReplaceAllString(text, " ")
	var queryWords []string
	for _, w := range strings.Fields(queryLower) {
		if len(w) >= 3 {
			queryWords = append(queryWords, w)
		}
	}

	var results []model.Product
	for _, m := range bimNamePrice.FindAllStringSubmatch(clean, -1) {
		if len(results) >= bimMaxResults {
			break
		}
		name := strings.TrimSpace(whitespace.ReplaceAllString(m[1], " "))
		priceStr := strings.NewReplacer(" ", "", ".", "").Replace(m[2])
		price, ok := ParsePriceText(priceStr)
		if !ok || price <= 0 {
			continue
		}

		nameLower := strings.ToLower(name)
		matched := false
		for _, w := range queryWords {
			if strings.Contains(nameLower, w) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		p := model.Product{
			MarketName:  "BIM",
			ProductName: name,
			Price:       price,
			Currency:    "TRY",
		}
		p.Gramaj = AttachGramaj(name, nil)
		results = append(results, p)
	}
	return results
}

// resolveImage pulls the first usable <img> source out of a card and
// makes it absolute against the site base.
func resolveImage(card *goquery.Selection, baseURL string) string {
	img := card.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	src, ok := img.Attr("src")
	if !ok || src == "" {
		src, _ = img.Attr("data-src")
	}
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	if !strings.HasPrefix(src, "http") {
		return baseURL + src
	}
	return src
}

func (s *Bim) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	return firstMatch(ctx, s, id)
}

func (s *Bim) Close() error { return nil }
