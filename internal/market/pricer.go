// Package market turns raw Universalis listings into per-item prices,
// sale velocities and history statistics, and knows which servers exist.
package market

import (
	"context"
	"time"

	"xivmarket/internal/models"
	"xivmarket/internal/pool"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/stats"
)

const (
	// AverageListings is how many of the cheapest listings feed an average price.
	AverageListings = 10
	// DefaultOutlierThreshold is the SaleStats cutoff relative to the tier average.
	DefaultOutlierThreshold = 3.0
)

// MarketData is the subset of the Universalis client the pricer needs.
type MarketData interface {
	CurrentListings(ctx context.Context, server string, itemIDs []int, listings int, quality universalis.Quality) (map[int]universalis.ItemListings, error)
	History(ctx context.Context, server string, itemIDs []int) (map[int]universalis.ItemHistory, error)
	HistoryWithin(ctx context.Context, server string, itemID int, within time.Duration) (universalis.ItemHistory, error)
}

// ItemIDs resolves item names to IDs.
type ItemIDs interface {
	ItemID(name string) (int, error)
}

// Ref identifies an item to price. A zero Ref stands for an empty slot and
// is quoted at 0 without a request.
type Ref struct {
	ID   int
	Name string
}

type Pricer struct {
	data  MarketData
	names ItemIDs
}

func NewPricer(data MarketData, names ItemIDs) *Pricer {
	return &Pricer{data: data, names: names}
}

// Resolve looks up the ID of every name, in order. Empty names give a zero Ref.
func (p *Pricer) Resolve(names []string) ([]Ref, error) {
	refs := make([]Ref, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		id, err := p.names.ItemID(name)
		if err != nil {
			return nil, err
		}
		refs[i] = Ref{ID: id, Name: name}
	}
	return refs, nil
}

// AveragePrices quotes each item at the quantity weighted average of its
// cheapest listings, high outliers removed.
func (p *Pricer) AveragePrices(ctx context.Context, server string, refs []Ref, quality universalis.Quality) ([]models.PriceQuote, error) {
	return p.quote(ctx, server, refs, AverageListings, quality)
}

// LowestPrices quotes each item at its single cheapest listing.
func (p *Pricer) LowestPrices(ctx context.Context, server string, refs []Ref, quality universalis.Quality) ([]models.PriceQuote, error) {
	return p.quote(ctx, server, refs, 1, quality)
}

func (p *Pricer) quote(ctx context.Context, server string, refs []Ref, listings int, quality universalis.Quality) ([]models.PriceQuote, error) {
	byID, err := fetchBatched(ctx, refs, func(ctx context.Context, ids []int) (map[int]universalis.ItemListings, error) {
		return p.data.CurrentListings(ctx, server, ids, listings, quality)
	})
	if err != nil {
		return nil, err
	}

	quotes := make([]models.PriceQuote, len(refs))
	for i, ref := range refs {
		quotes[i] = models.PriceQuote{ItemID: ref.ID, Name: ref.Name}
		if ref.ID == 0 {
			continue
		}
		item := byID[ref.ID]
		if len(item.Listings) == 0 {
			continue
		}
		price, ok := stats.WeightedAverage(item.Listings, stats.HighSideMultiplier)
		if !ok {
			continue
		}
		quotes[i].Price = price
		quotes[i].WorldName = item.Listings[0].WorldName
		if quotes[i].WorldName == "" {
			quotes[i].WorldName = server
		}
	}
	return quotes, nil
}

// Velocities returns the rounded regular sale velocity of each item, in order.
func (p *Pricer) Velocities(ctx context.Context, server string, refs []Ref) ([]int, error) {
	byID, err := fetchBatched(ctx, refs, func(ctx context.Context, ids []int) (map[int]universalis.ItemHistory, error) {
		return p.data.History(ctx, server, ids)
	})
	if err != nil {
		return nil, err
	}
	out := make([]int, len(refs))
	for i, ref := range refs {
		if ref.ID != 0 {
			out[i] = stats.Round(byID[ref.ID].RegularSaleVelocity)
		}
	}
	return out, nil
}

// SaleStatsFor accumulates the last nDays of sales of one item and drops
// outlier sales.
func (p *Pricer) SaleStatsFor(ctx context.Context, ref Ref, server string, nDays int) (*models.SaleStats, error) {
	history, err := p.data.HistoryWithin(ctx, server, ref.ID, time.Duration(nDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	s := models.NewSaleStats(ref.Name, ref.ID, server, nDays)
	for _, entry := range history.Entries {
		s.Update(entry)
	}
	s.RemoveOutliers(DefaultOutlierThreshold)
	return s, nil
}

// fetchBatched splits the distinct IDs of refs into request sized chunks and
// fetches them on the worker pool.
func fetchBatched[T any](ctx context.Context, refs []Ref, fetch func(context.Context, []int) (map[int]T, error)) (map[int]T, error) {
	seen := make(map[int]bool, len(refs))
	var ids []int
	for _, ref := range refs {
		if ref.ID == 0 || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		ids = append(ids, ref.ID)
	}

	var chunks [][]int
	for len(ids) > 0 {
		n := min(len(ids), universalis.MaxItemsPerRequest)
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}

	parts, err := pool.Map(ctx, pool.FetchWorkers, chunks, fetch)
	if err != nil {
		return nil, err
	}
	out := make(map[int]T, len(seen))
	for _, part := range parts {
		for id, v := range part {
			out[id] = v
		}
	}
	return out, nil
}
