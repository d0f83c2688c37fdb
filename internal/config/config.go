package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	RedisURL              string
	OpenAIKey             string
	MetricsPort           string
	HTTPTimeoutSeconds    int
	ScraperTimeoutSeconds int
	MaxConcurrentRequests int
}

func Load() *Config {
	// Carrega .env da raiz do projeto
	_ = godotenv.Load("../../.env")
	// Se não encontrar, tenta no diretório atual
	_ = godotenv.Load()
	return &Config{
		RedisURL:              getEnv("REDIS_URL", "localhost:6379"),
		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		MetricsPort:           getEnv("METRICS_PORT", "9090"),
		HTTPTimeoutSeconds:    getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		ScraperTimeoutSeconds: getEnvInt("SCRAPER_TIMEOUT_SECONDS", 25),
		MaxConcurrentRequests: getEnvInt("MAX_CONCURRENT_REQUESTS", 5),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}
