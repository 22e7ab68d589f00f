// Package ranking computes the recommendation tables: best ventures,
// cheapest collectibles, best scrip rewards, cheapest gear and cross-server
// resale opportunities. Every ranking fetches its prices in bulk, derives one
// metric per candidate, sorts stably and truncates.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"xivmarket/internal/catalog"
	"xivmarket/internal/config"
	"xivmarket/internal/logx"
	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/services/xivapi"
)

// All asks a ranking for every surviving candidate.
const All = 0

// Pricing is the market side of a ranking.
type Pricing interface {
	Resolve(names []string) ([]market.Ref, error)
	AveragePrices(ctx context.Context, server string, refs []market.Ref, quality universalis.Quality) ([]models.PriceQuote, error)
	LowestPrices(ctx context.Context, server string, refs []market.Ref, quality universalis.Quality) ([]models.PriceQuote, error)
	Velocities(ctx context.Context, server string, refs []market.Ref) ([]int, error)
}

// ItemSearch runs filtered item searches against the game data API.
type ItemSearch interface {
	Search(ctx context.Context, q xivapi.Query) ([]xivapi.Equipment, error)
}

type Ranker struct {
	catalog catalog.Repository
	prices  Pricing
	items   ItemSearch
	tuning  config.Tuning
}

func NewRanker(cat catalog.Repository, prices Pricing, items ItemSearch, tuning config.Tuning) *Ranker {
	return &Ranker{catalog: cat, prices: prices, items: items, tuning: tuning}
}

func (r *Ranker) Tuning() config.Tuning {
	return r.tuning
}

// Timing is how long a ranking took, overall and per priced item.
type Timing struct {
	Elapsed time.Duration `json:"elapsed"`
	PerItem time.Duration `json:"per_item"`
}

func since(start time.Time, items int) Timing {
	t := Timing{Elapsed: time.Since(start)}
	if items > 0 {
		t.PerItem = t.Elapsed / time.Duration(items)
	}
	return t
}

func (r *Ranker) net(price int) float64 {
	return float64(price) * (1 - r.tuning.TaxRate)
}

// truncate keeps the first n rows; n <= 0 keeps everything.
func truncate[T any](rows []T, n int) []T {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for j, i := range idx {
		out[j] = src[i]
	}
	return out
}

func sortDesc[T any](rows []T, key func(T) int) {
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) > key(rows[j]) })
}

func sortAsc[T any](rows []T, key func(T) int) {
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) < key(rows[j]) })
}

func logRun(name, server string, t Timing, rows int) {
	logx.Debug().
		Str("ranking", name).
		Str("server", server).
		Dur("elapsed", t.Elapsed).
		Int("rows", rows).
		Msg("ranking finished")
}

// ScripColor picks one of the two crafter scrip currencies.
type ScripColor int

const (
	White ScripColor = iota
	Purple
)

func ParseScripColor(s string) (ScripColor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return White, nil
	case "purple":
		return Purple, nil
	}
	return 0, fmt.Errorf("unknown scrip color %q", s)
}

func (c ScripColor) String() string {
	if c == Purple {
		return "purple"
	}
	return "white"
}

// CollectibleCurrency is the currency name used by the collectible tiers.
func (c ScripColor) CollectibleCurrency() string {
	if c == Purple {
		return "Purple Crafters' Scrips"
	}
	return "White Crafters' Scrips"
}

// RewardCurrency is the currency name used by the scrip reward table.
func (c ScripColor) RewardCurrency() string {
	if c == Purple {
		return "Purple Crafters' Scrip"
	}
	return "White Crafters' Scrip"
}
