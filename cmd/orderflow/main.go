package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"orderflow/internal/batch"
	"orderflow/internal/catalog"
	"orderflow/internal/config"
	"orderflow/internal/embedding"
	"orderflow/internal/inventory"
	"orderflow/internal/obs"
	"orderflow/internal/order"
	"orderflow/internal/promo"
	"orderflow/internal/report"
	"orderflow/internal/resolve"
	"orderflow/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := obs.InitLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg); err != nil {
		zap.S().Fatalf("orderflow: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.LoadFeed(cfg.CatalogPath)
	if err != nil {
		return err
	}
	zap.S().Infow("catalog loaded", "products", cat.Len(), "path", cfg.CatalogPath)

	if err := buildSemanticIndex(ctx, cfg, cat); err != nil {
		return err
	}

	resolver := resolve.New(cat, resolve.Config{
		FuzzyThreshold:  cfg.FuzzyThreshold,
		SemanticTopK:    cfg.SemanticTopK,
		SemanticTimeout: cfg.SemanticTimeout,
	})
	ledger := inventory.New(cat, resolver, inventory.Config{
		AllowPartial:    cfg.AllowPartial,
		MaxAlternatives: cfg.MaxAlternatives,
	})
	promos, err := promo.LoadSource(cfg.PromotionsPath)
	if err != nil {
		return err
	}
	asm := order.New(resolver, ledger, promo.NewEngine(), promos, order.Config{
		MinConfidence: cfg.MinConfidence,
	})
	runner := batch.New(asm, triage.NewInquirer(cat, resolver), cfg.Workers)

	msgs, err := triage.LoadMessages(cfg.MessagesPath)
	if err != nil {
		return err
	}
	zap.S().Infow("batch start", "messages", len(msgs), "workers", cfg.Workers)

	results, err := runner.Run(ctx, msgs)
	if err != nil {
		return err
	}
	return writeOutputs(cfg.OutDir, cat, results)
}

// buildSemanticIndex attaches the semantic stage. A Gemini backend failure
// degrades the run to exact+fuzzy resolution instead of aborting the batch;
// the local backend is deterministic and cannot fail.
func buildSemanticIndex(ctx context.Context, cfg *config.Config, cat *catalog.Catalog) error {
	var emb embedding.Embedder
	switch cfg.Embedder {
	case "gemini":
		g, err := embedding.NewGeminiEmbedder(ctx, cfg.EmbedModel)
		if err != nil {
			zap.S().Warnw("gemini embedder unavailable, degrading to fuzzy-only", "err", err)
			return nil
		}
		emb = g
	default:
		emb = embedding.NewLocalEmbedder(0)
	}
	cached, err := embedding.NewCachedEmbedder(emb, cfg.EmbedCacheSize)
	if err != nil {
		return err
	}
	if err := cat.BuildSemanticIndex(ctx, cached); err != nil {
		if embedding.IsBackendError(err) {
			zap.S().Warnw("semantic index build failed, degrading to fuzzy-only", "err", err)
			return nil
		}
		return err
	}
	zap.S().Infow("semantic index ready", "backend", cfg.Embedder, "documents", cat.Len())
	return nil
}

func writeOutputs(dir string, cat *catalog.Catalog, results []batch.MessageResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	status, err := os.Create(filepath.Join(dir, "order_status.csv"))
	if err != nil {
		return err
	}
	defer status.Close()
	if err := report.WriteOrderStatus(status, results); err != nil {
		return err
	}

	stock, err := os.Create(filepath.Join(dir, "stock.csv"))
	if err != nil {
		return err
	}
	defer stock.Close()
	if err := report.WriteStockSnapshot(stock, cat); err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(dir, "results.json"))
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	zap.S().Infow("outputs written", "dir", dir, "messages", len(results))
	return nil
}
