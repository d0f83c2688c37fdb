package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/transport"
)

const (
	migrosAPIBase    = "https://www.migros.com.tr/rest/products"
	migrosSearchURL  = migrosAPIBase + "/search"
	migrosProductURL = migrosAPIBase + "/get"
	migrosProductTTL = 30 * time.Minute
	migrosMaxResults = 20
)

// Migros talks to the sanal market REST API: a clean JSON search endpoint
// behind a desktop browser fingerprint.
type Migros struct {
	base
	http *transport.Client
}

func NewMigros(store cache.Store, client *transport.Client) *Migros {
	return &Migros{
		base: base{market: "Migros", cache: store, ttl: DefaultTTL},
		http: client,
	}
}

func (s *Migros) Name() string { return s.market }

func (s *Migros) Search(ctx context.Context, query string) ([]model.Product, error) {
	if cached, ok := s.cachedSearch(ctx, "search", query); ok {
		return SafePrices(cached), nil
	}

	u := fmt.Sprintf("%s?q=%s&sayfa=1", migrosSearchURL, url.QueryEscape(query))
	headers := transport.DesktopHeaders("https://www.migros.com.tr/", "application/json")

	var envelope map[string]any
	if err := s.http.GetJSON(ctx, u, headers, &envelope); err != nil {
		return nil, fmt.Errorf("migros arama: %w", err)
	}

	items, _ := digSlice(envelope, "data", "storeProductInfos")
	results := make([]model.Product, 0, len(items))
	for _, raw := range items {
		if len(results) >= migrosMaxResults {
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

func (s *Migros) parseItem(item map[string]any) (model.Product, bool) {
	name := asString(item, "name")
	if name == "" {
		return model.Product{}, false
	}
	rawPrice, ok := asFloat(item["shownPrice"])
	if !ok || rawPrice <= 0 {
		return model.Product{}, false
	}

	p := model.Product{
		MarketName:  s.market,
		ProductName: name,
		Price:       SafePrice(rawPrice),
		Currency:    "TRY",
		ImageURL:    asString(item, "imageUrl"),
	}
	if id, ok := asFloat(item["id"]); ok {
		p.ProductID = fmt.Sprintf("%.0f", id)
	} else {
		p.ProductID = asString(item, "id")
	}
	p.Gramaj = AttachGramaj(name, nil)
	return p, true
}

func (s *Migros) FetchByID(ctx context.Context, id string) (*model.Product, error) {
	if cached, ok := s.cachedProduct(ctx, "product", id); ok {
		cached.Price = SafePrice(cached.Price)
		return cached, nil
	}

	u := fmt.Sprintf("%s?id=%s", migrosProductURL, url.QueryEscape(id))
	headers := transport.DesktopHeaders("https://www.migros.com.tr/", "application/json")

	var envelope map[string]any
	if err := s.http.GetJSON(ctx, u, headers, &envelope); err != nil {
		return nil, fmt.Errorf("migros ürün %s: %w", id, err)
	}

	item, ok := dig(envelope, "data")
	if !ok {
		return nil, nil
	}
	p, ok := s.parseItem(item)
	if !ok {
		log.Printf("[Migros] ürün %s parse edilemedi", id)
		return nil, nil
	}
	p.ProductID = id
	s.storeProduct(ctx, "product", id, &p, migrosProductTTL)
	return &p, nil
}

func (s *Migros) Close() error { return nil }
