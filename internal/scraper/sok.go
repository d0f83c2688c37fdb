package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	sokBaseURL    = "https://www.sokmarket.com.tr"
	sokSearchURL  = sokBaseURL + "/arama"
	sokMaxParsed  = 60
	sokMaxResults = 30

	// top-level key of the payload we are after
	sokMarker = "initialSearchResult"
)

// Products the source mixes into grocery searches and the generic filter
// cannot reliably catch. Includes broken-encoding forms of the same words
// because the blacklist runs before the repair pass can be trusted.
var sokExcludedKeywords = []string{
	"noodle", "mama", "çorba", "bulyon", "çeşni", "harç", "pane", "sos",
	"corba", "cesni", "harc", "pedi", "ped",
	"orbas", "cesn", "cesnili", "cesnisi", "eånili", "eånisi", "eå",
	"eriste", "eriåte", "eriå",
}

var sokExcludedCategories = map[string]bool{
	"evcil-dostlar":       true,
	"hazir-yemek-ve-meze": true,
}

// Sok scrapes the Next.js RSC search page: the product data is JSON
// embedded in HTML or escaped inside a script string literal, never a
// clean API response.
type Sok struct {
	base
	http *transport.Client
}

func NewSok(store cache.Store, client *transport.Client) *Sok {
	return &Sok{
		base: base{market: "ŞOK", cache: store, ttl: DefaultTTL},
		http: client,
	}
}

func (s *Sok) Name() string { return s.market }

func (s *Sok) Search(ctx context.Context, query string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, "search", query); ok {
		return SafePrices(cached), nil
	}

	u := fmt.Sprintf("%s?q=%s", sokSearchURL, url.QueryEscape(query))
	headers := transport.IPhoneHeaders(sokBaseURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	body, err := s.http.Get(ctx, u, headers)
	if err != nil {
		return nil, fmt.Errorf("şok arama: %w", err)
	}

	data := parseRSCPayload(string(body))
	if data == nil {
		log.Printf("[ŞOK] RSC yanıtından JSON çıkarılamadı (%d bayt)", len(body))
		return []model.Product{}, nil
	}

	items := sokProductList(data)
	results := make([]model.Product, 0, len(items))
	for i, raw := range items {
		if i >= sokMaxParsed || len(results) >= sokMaxResults {
			break
		}
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p, ok := s.parseItem(item)
		if !ok {
			continue
		}
		results = append(results, p)
	}

	s.storeSearch(ctx, "search", query, results)
	return results, nil
}

var nextDataScript = regexp.MustCompile(`(?is)<script[^>]*id=["']__NEXT_DATA__["'][^>]*type=["']application/json["'][^>]*>(.*?)</script>`)
var sokMarkerAnchor = regexp.MustCompile(`"` + sokMarker + `"\s*:\s*\{`)

// parseRSCPayload tries the extraction strategies in order until one
// yields data:
//  1. a __NEXT_DATA__ script tag,
//  2. the whole body as JSON,
//  3. the marker key, backward scan to '{', balanced-brace extraction,
//  4. a regex anchor on the marker plus the same balanced extraction.
func parseRSCPayload(text string) map[string]any {
	if m := nextDataScript.FindStringSubmatch(text); m != nil {
		var data map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &data); err == nil {
			return data
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var data map[string]any
		if err := json.Unmarshal([]byte(trimmed), &data); err == nil {
			return data
		}
	}

	if strings.Contains(text, sokMarker) {
		if obj, ok := FindEnclosingObject(text, sokMarker, 0); ok {
			if data := decodeEscapedObject(obj); data != nil {
				return data
			}
		}
	}

	for _, loc := range sokMarkerAnchor.FindAllStringIndex(text, -1) {
		start := strings.LastIndex(text[:loc[0]], "{")
		if start < 0 {
			continue
		}
		obj, ok := ExtractBalancedJSON(text, start, 500000)
		if !ok {
			continue
		}
		if data := decodeEscapedObject(obj); data != nil {
			return data
		}
	}

	return nil
}

// decodeEscapedObject parses an extracted object that may still carry one
// or two layers of JavaScript string escaping.
func decodeEscapedObject(obj string) map[string]any {
	decoded := UnescapeUnicode(obj)
	if strings.Contains(decoded, `\u`) {
		decoded = UnescapeUnicode(decoded)
	}
	for _, candidate := range []string{decoded, obj} {
		var data map[string]any
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			continue
		}
		if _, ok := data[sokMarker]; ok {
			return data
		}
	}
	return nil
}

// sokProductList digs the result list out of whichever envelope shape the
// payload came in.
func sokProductList(data map[string]any) []any {
	if items, ok := digSlice(data, sokMarker, "results"); ok {
		return items
	}
	if items, ok := digSlice(data, "props", "pageProps", sokMarker, "results"); ok {
		return items
	}
	if items, ok := digSlice(data, "results"); ok {
		return items
	}
	return nil
}

func (s *Sok) parseItem(item map[string]any) (model.Product, bool) {
	productData, _ := dig(item, "product")
	name := ""
	if productData != nil {
		name = asString(productData, "name")
	}
	if name == "" {
		name = asString(item, "name", "title")
	}
	if len(name) < 3 {
		return model.Product{}, false
	}
	name = RepairEncoding(name)

	lower := strings.ToLower(name)
	folded := FoldASCII(name)
	for _, kw := range sokExcludedKeywords {
		if strings.Contains(lower, kw) || strings.Contains(folded, kw) {
			return model.Product{}, false
		}
	}
	if sokExcludedCategory(item) {
		return model.Product{}, false
	}

	rawPrice, ok := sokPrice(item)
	if !ok || rawPrice <= 0 {
		return model.Product{}, false
	}

	p := model.Product{
		MarketName:  s.market,
		ProductName: name,
		Price:       SafePrice(rawPrice),
		Currency:    "TRY",
		ImageURL:    sokImage(item, productData),
		URL:         asString(item, "url", "link"),
	}
	if id, ok := asFloat(item["id"]); ok {
		p.ProductID = fmt.Sprintf("%.0f", id)
	} else {
		p.ProductID = asString(item, "id")
	}
	p.Gramaj = AttachGramaj(name, nil)
	return p, true
}

func sokExcludedCategory(item map[string]any) bool {
	crumbs, ok := digSlice(item, "sku", "breadCrumbs")
	if !ok {
		return false
	}
	for _, raw := range crumbs {
		crumb, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if sokExcludedCategories[asString(crumb, "code")] {
			return true
		}
	}
	return false
}

// sokPrice prefers prices.discounted.value, then prices.value, then a
// bare price field.
func sokPrice(item map[string]any) (float64, bool) {
	if prices, ok := dig(item, "prices"); ok {
		if discounted, ok := dig(prices, "discounted"); ok {
			if v, ok := asFloat(discounted["value"]); ok {
				return v, true
			}
		}
		if v, ok := asFloat(prices["value"]); ok {
			return v, true
		}
	}
	return asFloat(item["price"])
}

func sokImage(item, productData map[string]any) string {
	if productData != nil {
		if images, ok := productData["images"].([]any); ok && len(images) > 0 {
			if img, ok := images[0].(map[string]any); ok {
				host := asString(img, "host")
				path := asString(img, "path")
				if host != "" && path != "" {
					if !strings.HasPrefix(host, "http") {
						host = "https://" + host
					}
					if !strings.HasPrefix(path, "/") {
						path = "/" + path
					}
					return host + path
				}
			}
		}
	}
	return asString(item, "image", "imageUrl", "image_url")
}

func (s *Sok) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	return firstMatch(ctx, s, id)
}

func (s *Sok) Close() error { return nil }
