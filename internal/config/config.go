package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the batch runner configuration. Flags take precedence over
// environment variables; both fall back to the defaults below.
type Config struct {
	Env string // "local" or "production"; selects the log encoder

	CatalogPath    string
	MessagesPath   string
	PromotionsPath string
	OutDir         string

	Embedder        string // "gemini" or "local"
	EmbedModel      string
	EmbedCacheSize  int
	FuzzyThreshold  float64
	SemanticTopK    int
	SemanticTimeout time.Duration

	AllowPartial    bool
	MaxAlternatives int
	MinConfidence   float64
	Workers         int
}

// Load reads .env (best effort), then flags and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	flag.StringVar(&cfg.Env, "env", envOr("APP_ENV", "local"), "environment: local|production")
	flag.StringVar(&cfg.CatalogPath, "catalog", envOr("CATALOG_PATH", "catalog.csv"), "catalog feed CSV")
	flag.StringVar(&cfg.MessagesPath, "messages", envOr("MESSAGES_PATH", "messages.json"), "classified messages JSON")
	flag.StringVar(&cfg.PromotionsPath, "promotions", envOr("PROMOTIONS_PATH", ""), "promotion source JSON (optional)")
	flag.StringVar(&cfg.OutDir, "out", envOr("OUT_DIR", "out"), "output directory")
	flag.StringVar(&cfg.Embedder, "embedder", envOr("EMBEDDER", "local"), "embedding backend: gemini|local")
	flag.StringVar(&cfg.EmbedModel, "embed-model", envOr("EMBED_MODEL", ""), "embedding model override")
	flag.IntVar(&cfg.EmbedCacheSize, "embed-cache", envIntOr("EMBED_CACHE_SIZE", 4096), "embedding cache entries")
	flag.Float64Var(&cfg.FuzzyThreshold, "fuzzy-threshold", envFloatOr("FUZZY_THRESHOLD", 0.8), "fuzzy name similarity threshold")
	flag.IntVar(&cfg.SemanticTopK, "topk", envIntOr("SEMANTIC_TOPK", 3), "semantic candidates per mention")
	flag.DurationVar(&cfg.SemanticTimeout, "semantic-timeout", envDurationOr("SEMANTIC_TIMEOUT", 5*time.Second), "per-lookup semantic timeout")
	flag.BoolVar(&cfg.AllowPartial, "allow-partial", envBoolOr("ALLOW_PARTIAL", false), "fulfill partial quantities on shortfall")
	flag.IntVar(&cfg.MaxAlternatives, "max-alternatives", envIntOr("MAX_ALTERNATIVES", 3), "alternatives per shortfall line")
	flag.Float64Var(&cfg.MinConfidence, "min-confidence", envFloatOr("MIN_CONFIDENCE", 0.55), "confidence cutoff for acting on a candidate")
	flag.IntVar(&cfg.Workers, "workers", envIntOr("WORKERS", 1), "parallel message workers (1 = reproducible)")
	flag.Parse()

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
