package ranking

import (
	"context"
	"time"

	"xivmarket/internal/services/universalis"
	"xivmarket/internal/stats"
)

type ScripRow struct {
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Price       int    `json:"price"`
	GilPerScrip int    `json:"gil_per_scrip"`
	Velocity    int    `json:"velocity"`
}

type ScripResult struct {
	Server   string     `json:"server"`
	Currency string     `json:"currency"`
	Rows     []ScripRow `json:"rows"`
	Timing
}

// ScripRewards ranks what color scrips buy by the gil each scrip turns into
// when the reward is sold on server, net of tax.
func (r *Ranker) ScripRewards(ctx context.Context, server string, color ScripColor, n, minVelocity int) (*ScripResult, error) {
	start := time.Now()
	currency := color.RewardCurrency()
	rewards := r.catalog.ScripRewards(currency)

	names := make([]string, len(rewards))
	for i, rw := range rewards {
		names[i] = rw.Name
	}
	refs, err := r.prices.Resolve(names)
	if err != nil {
		return nil, err
	}
	velocities, err := r.prices.Velocities(ctx, server, refs)
	if err != nil {
		return nil, err
	}

	var liquid []int
	for i := range rewards {
		if velocities[i] >= minVelocity {
			liquid = append(liquid, i)
		}
	}
	quotes, err := r.prices.LowestPrices(ctx, server, pick(refs, liquid), universalis.AnyQuality)
	if err != nil {
		return nil, err
	}

	rows := make([]ScripRow, len(liquid))
	for j, i := range liquid {
		rw := rewards[i]
		net := r.net(quotes[j].Price)
		row := ScripRow{
			Name:     rw.Name,
			Cost:     rw.Cost.Int(),
			Price:    stats.Round(net),
			Velocity: velocities[i],
		}
		if row.Cost > 0 {
			row.GilPerScrip = stats.Round(net * float64(rw.Quantity.Int()) / float64(row.Cost))
		}
		rows[j] = row
	}
	sortDesc(rows, func(row ScripRow) int { return row.GilPerScrip })

	res := &ScripResult{Server: server, Currency: currency, Rows: truncate(rows, n), Timing: since(start, len(rewards))}
	logRun("scrips", server, res.Timing, len(res.Rows))
	return res, nil
}
