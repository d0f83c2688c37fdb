package scraper

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/model"
	"fiyatradar/internal/observability"
)

// DefaultTTL is how long a successful search stays cached. CatalogTTL is
// for slowly-changing static sources (the karekod price catalog).
const (
	DefaultTTL = time.Hour
	CatalogTTL = 12 * time.Hour
)

// Scraper is one market backend. Search returns an empty slice when the
// source has no matching data; an error means the source itself failed.
type Scraper interface {
	Name() string
	Search(ctx context.Context, query string) ([]model.Product, error)
	FetchByID(ctx context.Context, id string) (*model.Product, error)
	Close() error
}

// base carries what every market scraper shares: the market name, the
// cache handle and the result TTL.
type base struct {
	market string
	cache  cache.Store
	ttl    time.Duration
}

// cachedSearch returns the cached result list for (kind, query), if any.
func (b *base) cachedSearch(ctx context.Context, kind, query string) ([]model.Product, bool) {
	raw, ok := b.cache.Get(ctx, cache.Key(b.market, kind, query))
	if !ok {
		return nil, false
	}
	var items []model.Product
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("[%s] cache corrompido para %q: %v", b.market, query, err)
		return nil, false
	}
	observability.CacheHitsTotal.WithLabelValues(b.market).Inc()
	log.Printf("[%s] cache hit: %s", b.market, query)
	return items, true
}

func (b *base) storeSearch(ctx context.Context, kind, query string, items []model.Product) {
	if len(items) == 0 {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	b.cache.Set(ctx, cache.Key(b.market, kind, query), raw, b.ttl)
}

func (b *base) cachedProduct(ctx context.Context, kind, id string) (*model.Product, bool) {
	raw, ok := b.cache.Get(ctx, cache.Key(b.market, kind, id))
	if !ok {
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	observability.CacheHitsTotal.WithLabelValues(b.market).Inc()
	return &p, true
}

func (b *base) storeProduct(ctx context.Context, kind, id string, p *model.Product, ttl time.Duration) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	b.cache.Set(ctx, cache.Key(b.market, kind, id), raw, ttl)
}

// firstMatch is the shared FetchByID fallback for sources without a
// per-product endpoint: search and take the first hit.
func firstMatch(ctx context.Context, s Scraper, id string) (*model.Product, error) {
	items, err := s.Search(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
