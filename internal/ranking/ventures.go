package ranking

import (
	"context"
	"time"

	"xivmarket/internal/services/universalis"
	"xivmarket/internal/stats"
)

type VentureRow struct {
	Name       string `json:"name"`
	Level      int    `json:"level"`
	GilPerHour int    `json:"gil_per_hour"`
	Velocity   int    `json:"velocity"`
}

type VentureResult struct {
	Server string       `json:"server"`
	Rows   []VentureRow `json:"rows"`
	Timing
}

// GilPerHour is the gil a venture earns per hour of retainer time.
// duration is in minutes.
func GilPerHour(price float64, amount, duration int) int {
	if duration <= 0 {
		return 0
	}
	return stats.Round(60 * price * float64(amount) / float64(duration))
}

// Ventures ranks combat ventures on server by gil per hour, net of tax.
// Ventures selling fewer than minVelocity units a day are left out.
func (r *Ranker) Ventures(ctx context.Context, server string, n, minVelocity int) (*VentureResult, error) {
	start := time.Now()
	ventures := r.catalog.Ventures()

	names := make([]string, len(ventures))
	for i, v := range ventures {
		names[i] = v.Name
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
	for i := range ventures {
		if velocities[i] >= minVelocity {
			liquid = append(liquid, i)
		}
	}
	quotes, err := r.prices.LowestPrices(ctx, server, pick(refs, liquid), universalis.NQ)
	if err != nil {
		return nil, err
	}

	rows := make([]VentureRow, len(liquid))
	for j, i := range liquid {
		v := ventures[i]
		rows[j] = VentureRow{
			Name:       v.Name,
			Level:      v.Level.Int(),
			GilPerHour: GilPerHour(r.net(quotes[j].Price), v.Amount.Int(), v.Duration.Int()),
			Velocity:   velocities[i],
		}
	}
	sortDesc(rows, func(row VentureRow) int { return row.GilPerHour })

	res := &VentureResult{Server: server, Rows: truncate(rows, n), Timing: since(start, len(ventures))}
	logRun("ventures", server, res.Timing, len(res.Rows))
	return res, nil
}
