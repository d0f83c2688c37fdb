package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	a101APIBase    = "https://a101.wawlabs.com"
	a101SearchURL  = a101APIBase + "/search"
	a101MaxResults = 60
)

// A101 uses the wawlabs search API. The endpoint blocks desktop browser
// fingerprints, so requests go out with the iPhone header set.
type A101 struct {
	base
	http *transport.Client
}

func NewA101(store cache.Store, client *transport.Client) *A101 {
	return &A101{
		base: base{market: "A101", cache: store, ttl: DefaultTTL},
		http: client,
	}
}

func (s *A101) Name() string { return s.market }

func (s *A101) Search(ctx context.Context, query string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, "search", query); ok {
		return SafePrices(cached), nil
	}

	// "filter" repeats with different values; url.Values keeps both.
	params := url.Values{}
	params.Set("q", query)
	params.Set("pn", "1")
	params.Set("rpp", "60")
	params.Add("filter", "available:true")
	params.Add("filter", "locations^location:VS032-SLOT")
	u := a101SearchURL + "?" + params.Encode()

	headers := transport.IPhoneHeaders("https://www.a101.com.tr/", "application/json")

	var envelope map[string]any
	if err := s.http.GetJSON(ctx, u, headers, &envelope); err != nil {
		return nil, fmt.Errorf("a101 arama: %w", err)
	}

	// Envelope: {"res": [{"page_content": [...]}]}
	var items []any
	if res, ok := envelope["res"].([]any); ok && len(res) > 0 {
		if first, ok := res[0].(map[string]any); ok {
			items, _ = first["page_content"].([]any)
		}
	}

	results := make([]model.Product, 0, len(items))
	for _, raw := range items {
		if len(results) >= a101MaxResults {
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

func (s *A101) parseItem(item map[string]any) (model.Product, bool) {
	name := asString(item, "title", "name", "product_name")
	if len(name) < 3 {
		return model.Product{}, false
	}
	rawPrice, ok := asFloat(item["price"])
	if !ok || rawPrice <= 0 {
		log.Printf("[A101] fiyatsız ürün atlandı: %s", name)
		return model.Product{}, false
	}

	p := model.Product{
		MarketName:  s.market,
		ProductName: name,
		Price:       SafePrice(rawPrice),
		Currency:    "TRY",
		ImageURL:    extractA101Image(item),
		URL:         asString(item, "url", "link", "productUrl"),
	}
	if id, ok := asFloat(item["id"]); ok {
		p.ProductID = fmt.Sprintf("%.0f", id)
	} else {
		p.ProductID = asString(item, "id", "productId")
	}
	p.Gramaj = AttachGramaj(name, nil)
	return p, true
}

// extractA101Image handles both shapes the API serves: a plain URL string
// or a list of typed images, where the "product" type wins.
func extractA101Image(item map[string]any) string {
	for _, key := range []string{"image", "image_url", "imageUrl"} {
		switch v := item[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			var fallback string
			for _, e := range v {
				img, ok := e.(map[string]any)
				if !ok {
					continue
				}
				u := asString(img, "url")
				if u == "" {
					continue
				}
				if asString(img, "imageType") == "product" {
					return u
				}
				if fallback == "" {
					fallback = u
				}
			}
			if fallback != "" {
				return fallback
			}
		}
	}
	return ""
}

func (s *A101) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	return firstMatch(ctx, s, id)
}

func (s *A101) Close() error { return nil }
