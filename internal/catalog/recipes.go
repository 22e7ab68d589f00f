package catalog

import (
	"context"

	"xivmarket/internal/models"
	"xivmarket/internal/pool"
)

// RecipeFetcher looks a recipe up online.
type RecipeFetcher interface {
	Recipe(ctx context.Context, name string) (models.Recipe, error)
}

// RebuildRecipes fetches the recipe of every collectible in tiers, tier by
// tier, preserving catalog order. Any lookup failure aborts the rebuild.
func RebuildRecipes(ctx context.Context, fetcher RecipeFetcher, tiers []models.CollectibleTier) ([]models.Recipe, error) {
	var out []models.Recipe
	for _, tier := range tiers {
		recipes, err := pool.Map(ctx, pool.FetchWorkers, []string(tier.Items), fetcher.Recipe)
		if err != nil {
			return nil, err
		}
		out = append(out, recipes...)
	}
	return out, nil
}
