package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScrapeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_requests_total",
			Help: "Total de buscas disparadas por market",
		},
		[]string{"market"},
	)
	ScrapeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_failures_total",
			Help: "Total de falhas de scraping por market",
		},
		[]string{"market"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total de cache hits por market",
		},
		[]string{"market"},
	)
	InvalidProductsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invalid_products_total",
			Help: "Total de produtos descartados por dados inválidos",
		},
	)
	FuzzyDuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fuzzy_duplicates_total",
			Help: "Total de produtos duplicados removidos por similaridade",
		},
	)
	RerankFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rerank_fallbacks_total",
			Help: "Total de re-rankings externos que caíram no fallback local",
		},
	)
)

func Start(port string) {
	prometheus.MustRegister(
		ScrapeRequestsTotal,
		ScrapeFailuresTotal,
		CacheHitsTotal,
		InvalidProductsTotal,
		FuzzyDuplicatesTotal,
		RerankFallbacksTotal,
	)
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}
