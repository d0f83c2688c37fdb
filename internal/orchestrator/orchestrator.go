// Package orchestrator fans a query out to every registered market
// scraper in parallel, merges the results into a common template and
// isolates per-market failures so one slow site never blocks the rest.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"fiyatradar/internal/model"
	"fiyatradar/internal/observability"
	"fiyatradar/internal/scraper"
)

// DefaultTaskTimeout bounds a single (scraper, term) search. The limit
// is sized for Tarım Kredi, the slowest site.
const DefaultTaskTimeout = 25 * time.Second

// "tavuk göğüsü" aranırken "tavuk bonfile" da aranır; marketler bazen
// bu ifadeleri kullanır.
var queryAliases = map[string][]string{
	"tavuk göğüsü": {"tavuk göğüsü", "tavuk bonfile", "piliç bonfile"},
	"tavuk gogusu": {"tavuk göğüsü", "tavuk bonfile", "piliç bonfile"},
}

// SearchResult is the merged answer for one query across all markets.
type SearchResult struct {
	Query            string          `json:"query"`
	Results          []model.Product `json:"results"`
	MarketsResponded []string        `json:"markets_responded"`
	MarketsFailed    []MarketError   `json:"markets_failed,omitempty"`
	TotalProducts    int             `json:"total_products"`
}

type MarketError struct {
	Market string `json:"market"`
	Error  string `json:"error"`
}

// BasketResult groups per-item search results for a multi-product list.
type BasketResult struct {
	Queries    []string                 `json:"queries"`
	PerProduct map[string]*SearchResult `json:"per_product"`
}

type Orchestrator struct {
	scrapers    []scraper.Scraper
	taskTimeout time.Duration
}

func New(scrapers []scraper.Scraper, taskTimeout time.Duration) *Orchestrator {
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	return &Orchestrator{scrapers: scrapers, taskTimeout: taskTimeout}
}

func (o *Orchestrator) ScraperNames() []string {
	names := make([]string, len(o.scrapers))
	for i, s := range o.scrapers {
		names[i] = s.Name()
	}
	return names
}

// expandSearchTerms normalizes the query and widens it with alias terms
// when a known alias key matches.
func expandSearchTerms(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	qFolded := scraper.FoldASCII(q)
	for key, terms := range queryAliases {
		keyFolded := scraper.FoldASCII(key)
		if keyFolded == qFolded || key == q || strings.Contains(qFolded, keyFolded) {
			return terms
		}
	}
	return []string{strings.TrimSpace(query)}
}

type taskResult struct {
	market   string
	term     string
	products []model.Product
	err      error
}

// SearchAllMarkets runs every (scraper, term) pair concurrently, each
// bounded by the task timeout. A timeout cancels the in-flight request;
// the other markets' results are still returned.
func (o *Orchestrator) SearchAllMarkets(ctx context.Context, query string) *SearchResult {
	terms := expandSearchTerms(query)
	out := &SearchResult{Query: query, Results: []model.Product{}}
	if len(terms) == 0 {
		return out
	}

	results := make(chan taskResult, len(o.scrapers)*len(terms))
	var wg sync.WaitGroup
	for _, s := range o.scrapers {
		for _, term := range terms {
			wg.Add(1)
			go func(s scraper.Scraper, term string) {
				defer wg.Done()
				observability.ScrapeRequestsTotal.WithLabelValues(s.Name()).Inc()
				taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
				defer cancel()
				products, err := s.Search(taskCtx, term)
				if taskCtx.Err() == context.DeadlineExceeded {
					err = fmt.Errorf("zaman aşımı (%s)", o.taskTimeout)
				}
				if err != nil {
					observability.ScrapeFailuresTotal.WithLabelValues(s.Name()).Inc()
				}
				results <- taskResult{market: s.Name(), term: term, products: products, err: err}
			}(s, term)
		}
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	responded := map[string]bool{}
	failed := map[string]string{}
	for r := range results {
		if r.err != nil {
			log.Printf("[orchestrator] %s hatası (%s): %v", r.market, r.term, r.err)
			failed[r.market] = r.err.Error()
			continue
		}
		added := 0
		for _, p := range r.products {
			key := fmt.Sprintf("%s|%s|%.2f", p.MarketName, strings.TrimSpace(p.ProductName), round2(p.Price))
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Results = append(out.Results, standardize(p))
			added++
		}
		if added > 0 {
			responded[r.market] = true
		}
	}

	// Cevap veren bir market için önceki terim hatası sayılmaz
	for market := range responded {
		delete(failed, market)
		out.MarketsResponded = append(out.MarketsResponded, market)
	}
	sort.Strings(out.MarketsResponded)
	for market, msg := range failed {
		out.MarketsFailed = append(out.MarketsFailed, MarketError{Market: market, Error: msg})
	}
	sort.Slice(out.MarketsFailed, func(i, j int) bool {
		return out.MarketsFailed[i].Market < out.MarketsFailed[j].Market
	})

	sort.SliceStable(out.Results, func(i, j int) bool {
		if out.Results[i].Price != out.Results[j].Price {
			return out.Results[i].Price < out.Results[j].Price
		}
		return out.Results[i].ProductName < out.Results[j].ProductName
	})
	out.TotalProducts = len(out.Results)

	log.Printf("[orchestrator] '%s' (terimler: %v) – toplam %d ürün, hata alan: %d market",
		query, terms, out.TotalProducts, len(out.MarketsFailed))
	return out
}

// standardize pulls raw scraper output onto the common template: price
// rounded to kuruş, gramaj backfilled from the name, per-kg unit price.
func standardize(p model.Product) model.Product {
	p.Price = round2(p.Price)
	p.Gramaj = scraper.AttachGramaj(p.ProductName, p.Gramaj)
	if p.Currency == "" {
		p.Currency = "TRY"
	}
	if p.Gramaj != nil && *p.Gramaj > 0 && p.Price > 0 {
		p.UnitPricePerKg = model.Float(round2(p.Price / *p.Gramaj * 1000))
	}
	return p
}

// SearchBasket searches every basket item concurrently. A failing item
// yields an empty result instead of failing the whole basket.
func (o *Orchestrator) SearchBasket(ctx context.Context, queries []string) *BasketResult {
	out := &BasketResult{Queries: queries, PerProduct: map[string]*SearchResult{}}
	if len(queries) == 0 {
		out.Queries = []string{}
		return out
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, q := range queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			result := o.SearchAllMarkets(ctx, q)
			mu.Lock()
			out.PerProduct[q] = result
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	total := 0
	for _, r := range out.PerProduct {
		total += r.TotalProducts
	}
	log.Printf("[orchestrator] sepet araması: %d ürün, toplam %d kayıt", len(queries), total)
	return out
}

// FetchByIDFromAll collects one product's price from every market and
// returns the hits sorted cheapest first.
func (o *Orchestrator) FetchByIDFromAll(ctx context.Context, id string) []model.Product {
	results := make(chan *model.Product, len(o.scrapers))
	var wg sync.WaitGroup
	for _, s := range o.scrapers {
		wg.Add(1)
		go func(s scraper.Scraper) {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
			defer cancel()
			p, err := s.FetchByID(taskCtx, id)
			if err != nil {
				log.Printf("[orchestrator] %s fiyat hatası: %v", s.Name(), err)
				return
			}
			results <- p
		}(s)
	}
	wg.Wait()
	close(results)

	var prices []model.Product
	for p := range results {
		if p != nil {
			prices = append(prices, standardize(*p))
		}
	}
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Price < prices[j].Price
	})
	return prices
}

// Close shuts every scraper down; the first error wins but all are
// attempted.
func (o *Orchestrator) Close() error {
	var first error
	for _, s := range o.scrapers {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	log.Printf("[orchestrator] tüm scraper bağlantıları kapatıldı")
	return first
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
