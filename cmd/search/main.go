package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"fiyatradar/internal/cache"
	"fiyatradar/internal/config"
	"fiyatradar/internal/filter"
	"fiyatradar/internal/normalize"
	"fiyatradar/internal/observability"
	"fiyatradar/internal/orchestrator"
	"fiyatradar/internal/rerank"
	"fiyatradar/internal/scraper"
	"fiyatradar/internal/transport"
)

func main() {
	mode := flag.String("mode", "search", "search | basket | id")
	query := flag.String("q", "", "arama sorgusu (basket için virgülle ayrılmış liste)")
	id := flag.String("id", "", "ürün ID (mode=id)")
	flag.Parse()

	cfg := config.Load()

	observability.Start(cfg.MetricsPort)

	store := newStore(cfg)

	httpTimeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	newClient := func(label string) *transport.Client {
		return transport.New(transport.Options{
			Timeout:       httpTimeout,
			MaxConcurrent: int64(cfg.MaxConcurrentRequests),
			Label:         label,
		})
	}

	scrapers := []scraper.Scraper{
		scraper.NewMigros(store, newClient("Migros")),
		scraper.NewA101(store, newClient("A101")),
		scraper.NewSok(store, newClient("SOK")),
		scraper.NewBim(store, newClient("BIM")),
		scraper.NewTarimKredi(store, newClient("TarimKredi")),
		scraper.NewTekel(store, newClient("Tekel")),
	}

	orch := orchestrator.New(scrapers, time.Duration(cfg.ScraperTimeoutSeconds)*time.Second)
	defer orch.Close()

	var reranker filter.Reranker
	if cfg.OpenAIKey != "" {
		reranker = rerank.New(openai.NewClient(cfg.OpenAIKey))
	}
	pipeline := filter.New(reranker)

	ctx := context.Background()

	switch *mode {
	case "search":
		if *query == "" {
			log.Fatal("kullanım: search -mode=search -q=\"süt\"")
		}
		result := orch.SearchAllMarkets(ctx, *query)
		result.Results = normalize.Process(result.Results)
		result.Results = pipeline.FilterAndRank(ctx, *query, result.Results)
		result.TotalProducts = len(result.Results)
		printJSON(result)

	case "basket":
		if *query == "" {
			log.Fatal("kullanım: search -mode=basket -q=\"süt, yumurta, peynir\"")
		}
		var items []string
		for _, item := range strings.Split(*query, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		basket := orch.SearchBasket(ctx, items)
		for q, result := range basket.PerProduct {
			result.Results = normalize.Process(result.Results)
			result.Results = pipeline.FilterAndRank(ctx, q, result.Results)
			result.TotalProducts = len(result.Results)
		}
		printJSON(basket)

	case "id":
		if *id == "" {
			log.Fatal("kullanım: search -mode=id -id=12345")
		}
		printJSON(orch.FetchByIDFromAll(ctx, *id))

	default:
		log.Fatalf("bilinmeyen mod: %s", *mode)
	}
}

// newStore connects to Redis and falls back to the in-memory store when
// the server is unreachable, so the tool still works without it.
func newStore(cfg *config.Config) cache.Store {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[main] Redis erişilemiyor (%v), bellek içi cache kullanılıyor", err)
		return cache.NewMemory()
	}
	return &cache.Redis{Client: client}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("JSON yazılamadı: %v", err)
	}
}
