package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	tkkoopBaseURL   = "https://www.tkkoop.com.tr"
	tkkoopSearchURL = tkkoopBaseURL + "/arama"
	tkkoopMaxItems  = 20
)

// Markalar geçiyorsa negatif filtre esnetilir
var tkSafeBrands = []string{"banvit", "erpiliç", "şenpiliç", "erp", "besler", "gedik"}

// Arama terimi → hariç tutulacak kelimeler
var tkNegativeFilters = map[string][]string{
	"tavuk": {
		"dana", "sığır", "kuzu", "koyun", "et ",
		"çorba", "noodle", "aromalı", "yumurta", "pilav", "sote", "suyu",
		"hazır", "bulyon", "barda", "şehriye", "erişte", "makarna",
	},
	"piliç": {
		"dana", "sığır", "kuzu", "koyun", "et ",
		"çorba", "noodle", "aromalı", "yumurta", "pilav", "sote", "suyu",
		"hazır", "bulyon", "barda", "şehriye", "erişte", "makarna",
	},
	"kanat": {
		"dana", "sığır", "kuzu", "koyun",
		"çorba", "noodle", "aromalı", "yumurta", "pilav", "sote", "suyu",
		"hazır", "bulyon", "barda", "şehriye", "erişte", "makarna",
	},
}

var tkChickenExcluded = []string{
	"çorba", "noodle", "aromalı", "pilav", "sote", "suyu",
	"hazır", "bulyon", "barda", "şehriye", "erişte", "makarna",
}

// Gerçek tavuk eti ifadeleri: bunlardan biri geçiyorsa ürün her zaman kalır.
var tkChickenTerms = []string{
	"tavuk eti", "tavuk göğsü", "tavuk göğüsü", "tavuk bonfile", "tavuk but",
	"tavuk kanat", "tavuk baget", "piliç", "piliç eti", "piliç göğsü", "piliç bonfile",
	"tavuk fileto", "tavuk şinitzel", "tavuk schnitzel", "tavuk nugget", "tavuk cordon",
	"tavuk gövde", "gövde tavuk", "tavuk sarkuteri", "tavuk salam", "tavuk sosis", "tavuk sucuk",
	"gezen tavuk", "köytav",
}

// TarimKredi scrapes tkkoop.com.tr search pages. The site renders results
// server side; product names sometimes live only in the image alt attribute
// and prices come glued to the name ("TK JERSEY SÜT279,00TL").
type TarimKredi struct {
	base
	http *transport.Client
}

func NewTarimKredi(store cache.Store, client *transport.Client) *TarimKredi {
	return &TarimKredi{
		base: base{market: "TarimKredi", cache: store, ttl: DefaultTTL},
		http: client,
	}
}

func (s *TarimKredi) Name() string { return s.market }

func (s *TarimKredi) Search(ctx context.Context, query string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, "search", query); ok {
		return cached, nil
	}

	searchURL := tkkoopSearchURL + "?ara=" + url.QueryEscape(query)
	headers := transport.IPhoneHeaders(tkkoopBaseURL, "text/html,application/xhtml+xml")
	body, err := s.http.Get(ctx, searchURL, headers)
	if err != nil {
		return nil, fmt.Errorf("tarımkredi arama: %w", err)
	}

	results := s.parseSearchHTML(string(body), query)
	if len(results) > 0 {
		s.storeSearch(ctx, "search", query, results)
	}
	return results, nil
}

func (s *TarimKredi) parseSearchHTML(html, query string) []model.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[TarimKredi] HTML parse hatası: %v", err)
		return nil
	}

	var results []model.Product
	seen := map[string]bool{}
	add := func(p *model.Product) {
		if p == nil || seen[p.ProductName] {
			return
		}
		seen[p.ProductName] = true
		results = append(results, *p)
	}

	// 1. Link tabanlı: href içinde /urun/ veya /urun-detay/ geçen kartlar
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "/urun/") || strings.Contains(href, "/urun-detay/") {
			add(s.parseCard(a, "", query))
		}
		return len(results) < tkkoopMaxItems
	})

	// 2. Ürün görsellerinden kart (yeterli sonuç yoksa)
	if len(results) < tkkoopMaxItems {
		doc.Find(`img[src*="/assets/images/urun/"]`).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			parent := img.ParentsFiltered("a").First()
			if parent.Length() == 0 {
				parent = img.Parent()
			}
			add(s.parseCard(parent, src, query))
			return len(results) < tkkoopMaxItems
		})
	}

	if len(results) > tkkoopMaxItems {
		results = results[:tkkoopMaxItems]
	}
	return results
}

func (s *TarimKredi) parseCard(card *goquery.Selection, imgSrc, query string) *model.Product {
	imageURL := imgSrc
	img := card.Find("img").First()
	if imageURL == "" && img.Length() > 0 {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := img.Attr(attr); ok && v != "" {
				imageURL = v
				break
			}
		}
	}

	// İsim: img alt öncelikli (isim bazen sadece orada)
	name := ""
	if img.Length() > 0 {
		if alt, ok := img.Attr("alt"); ok && len(strings.TrimSpace(alt)) > 2 {
			name = strings.TrimSpace(alt)
		}
	}
	if name == "" {
		for _, sel := range []string{
			"h2, h3, h4, h5",
			".urun-adi, .product-name, [class*='name'], [class*='adi'], [class*='title'], [class*='baslik']",
			"a, strong, b",
		} {
			candidate := strings.TrimSpace(card.Find(sel).First().Text())
			if len(candidate) > 2 {
				name = candidate
				break
			}
		}
	}
	if name == "" {
		name = strings.TrimSpace(card.Text())
	}
	// Son çare: görsel dosya adından isim (tk-jersey-sut_176.png -> TK JERSEY SUT)
	if len(name) < 3 && imageURL != "" {
		base := path.Base(imageURL)
		if i := strings.Index(base, "_"); i > 0 {
			base = base[:i]
		} else {
			base = strings.TrimSuffix(strings.TrimSuffix(base, ".png"), ".jpg")
		}
		name = strings.ToUpper(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	}
	if len(name) < 3 {
		return nil
	}

	if shouldFilterTK(name, query) {
		return nil
	}

	// Fiyat: birleşik "279,00TL" yapısı dahil — önce isim, sonra kart metni,
	// sonra parçalanmış span'ların birleşimi.
	var price float64
	priceText, found := ExtractInlinePrice(name)
	if !found {
		priceText, found = ExtractInlinePrice(card.Text())
	}
	if !found {
		var spanTexts []string
		card.Find("span").Each(func(_ int, span *goquery.Selection) {
			spanTexts = append(spanTexts, strings.TrimSpace(span.Text()))
		})
		priceText, found = ExtractInlinePrice(strings.Join(spanTexts, " "))
	}
	if found {
		if v, ok := ParsePriceText(priceText); ok && v > 0 {
			price = v
		}
		name = StripInlinePrice(name)
	}

	if imageURL != "" && !strings.HasPrefix(imageURL, "http") {
		if !strings.HasPrefix(imageURL, "/") {
			imageURL = "/" + imageURL
		}
		imageURL = tkkoopBaseURL + imageURL
	}

	productURL := ""
	href, ok := card.Attr("href")
	if !ok || href == "" {
		href, _ = card.Find("a[href]").First().Attr("href")
	}
	if href = strings.TrimSpace(href); href != "" {
		switch {
		case strings.HasPrefix(href, "http"):
			productURL = href
		case strings.HasPrefix(href, "/"):
			productURL = tkkoopBaseURL + href
		default:
			productURL = tkkoopBaseURL + "/" + href
		}
	}

	productID := ""
	if productURL != "" {
		productID = path.Base(strings.TrimRight(productURL, "/"))
	} else {
		for _, attr := range []string{"data-product-id", "data-id", "id"} {
			if v, ok := card.Attr(attr); ok && v != "" {
				productID = v
				break
			}
		}
	}

	p := &model.Product{
		MarketName:  s.market,
		ProductName: name,
		Price:       price,
		Currency:    "TRY",
		ImageURL:    imageURL,
		ProductID:   productID,
		URL:         productURL,
	}
	p.Gramaj = AttachGramaj(name, nil)
	return p
}

// shouldFilterTK drops products unrelated to the query. A "tavuk" search
// only keeps actual chicken meat; safe brands bypass the negative lists.
func shouldFilterTK(name, query string) bool {
	if name == "" || query == "" {
		return false
	}
	qLower := strings.ToLower(query)
	nameLower := strings.ToLower(name)

	if strings.Contains(qLower, "tavuk") {
		if strings.Contains(nameLower, "yumurta") &&
			strings.Contains(nameLower, "gezen") {
			return true
		}
		if containsAny(nameLower, tkChickenExcluded) {
			return !containsAny(nameLower, tkChickenTerms)
		}
		if containsAny(nameLower, tkChickenTerms) {
			return false
		}
		if strings.Contains(nameLower, "tavuk") {
			return true
		}
	}

	if containsAny(nameLower, tkSafeBrands) {
		return false
	}
	for keyword, excluded := range tkNegativeFilters {
		if strings.Contains(qLower, keyword) && containsAny(nameLower, excluded) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func (s *TarimKredi) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	return firstMatch(ctx, s, id)
}

func (s *TarimKredi) Close() error { return nil }
