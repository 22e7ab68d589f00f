package ranking

import (
	"context"
	"time"

	"xivmarket/internal/models"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/stats"
)

type CollectibleRow struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Reward      int    `json:"reward"`
	Cost        int    `json:"cost"`
	GilPerScrip int    `json:"gil_per_scrip"`
}

type CollectibleResult struct {
	Server   string           `json:"server"`
	Currency string           `json:"currency"`
	Rows     []CollectibleRow `json:"rows"`
	Timing
}

// Collectibles ranks the collectibles paying out in color scrips by the gil
// their ingredients cost per scrip earned, cheapest first.
func (r *Ranker) Collectibles(ctx context.Context, color ScripColor, server string, n int) (*CollectibleResult, error) {
	start := time.Now()
	currency := color.CollectibleCurrency()

	var (
		rows    []CollectibleRow
		recipes []models.Recipe
	)
	for _, tier := range r.catalog.CollectibleTiers(currency) {
		for _, name := range tier.Items {
			recipe, err := r.catalog.Recipe(name)
			if err != nil {
				return nil, err
			}
			recipes = append(recipes, recipe)
			rows = append(rows, CollectibleRow{Name: name, Level: tier.Level, Reward: tier.Reward})
		}
	}

	// Every distinct ingredient is priced once.
	var ingredients []string
	seen := make(map[string]bool)
	for _, recipe := range recipes {
		for _, name := range recipe.IngredientNames {
			if !seen[name] {
				seen[name] = true
				ingredients = append(ingredients, name)
			}
		}
	}
	refs, err := r.prices.Resolve(ingredients)
	if err != nil {
		return nil, err
	}
	quotes, err := r.prices.AveragePrices(ctx, server, refs, universalis.AnyQuality)
	if err != nil {
		return nil, err
	}
	priceOf := make(map[string]int, len(ingredients))
	for i, name := range ingredients {
		priceOf[name] = quotes[i].Price
	}

	for i, recipe := range recipes {
		cost := 0
		for _, ing := range recipe.Ingredients() {
			cost += priceOf[ing.Name] * ing.Amount
		}
		rows[i].Cost = cost
		if rows[i].Reward > 0 {
			rows[i].GilPerScrip = stats.Round(float64(cost) / float64(rows[i].Reward))
		}
	}
	sortAsc(rows, func(row CollectibleRow) int { return row.GilPerScrip })

	res := &CollectibleResult{
		Server:   server,
		Currency: currency,
		Rows:     truncate(rows, n),
		Timing:   since(start, len(recipes)),
	}
	logRun("collectibles", server, res.Timing, len(res.Rows))
	return res, nil
}
