package usecase

import (
	"context"
	"log/slog"

	"cosmetics-assistant/internal/domain"
	"cosmetics-assistant/internal/metrics"
	"cosmetics-assistant/internal/repository"
)

// IngredientCache short-circuits backend calls when an analysis is already
// stored. Lookup failures are misses, never errors.
type IngredientCache struct {
	store   repository.IngredientReadWriter
	metrics *metrics.ClassifierMetrics
	logger  *slog.Logger
}

func NewIngredientCache(store repository.IngredientReadWriter, m *metrics.ClassifierMetrics, logger *slog.Logger) *IngredientCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngredientCache{store: store, metrics: m, logger: logger}
}

// Lookup returns the stored record for name, if any.
func (c *IngredientCache) Lookup(ctx context.Context, name string) (domain.Ingredient, bool) {
	rec, ok, err := c.store.FindIngredientByName(ctx, name)
	if err != nil {
		c.logger.DebugContext(ctx, "ingredient cache lookup failed; treating as miss", "name", name, "err", err)
		ok = false
	}
	c.metrics.ObserveCacheLookup(ok)
	if !ok {
		return domain.Ingredient{}, false
	}
	return rec, true
}

// Remember writes an analysis back, replacing any record with the same name.
func (c *IngredientCache) Remember(ctx context.Context, a domain.IngredientAnalysis) (domain.Ingredient, error) {
	return c.store.UpsertIngredient(ctx, a)
}
