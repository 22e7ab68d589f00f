package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xivmarket/internal/market"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/services/xivapi"
	"xivmarket/internal/stats"
)

// ResellMode selects the candidate set of a resale search.
type ResellMode int

const (
	// Equipment is tradeable gear at or above the configured item level.
	Equipment ResellMode = iota
	// Materia is the top tiers of the combat, crafting and gathering materia.
	Materia
)

const equipmentSearchLimit = 500

var (
	materiaFamilies = []string{
		"Savage Aim", "Savage Might", "Heavens' Eye", "Quickarm", "Quicktongue",
		"Battledance", "Piety", "Craftsman's Command", "Craftsman's Cunning",
		"Gatherer's Grasp", "Craftsman's Competence", "Gatherer's Guerdon",
		"Gatherer's Guile",
	}
	materiaTiers = []string{"VII", "VIII", "IX", "X"}
)

func ParseResellMode(s string) (ResellMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equipment", "equips", "gear", "ilvl":
		return Equipment, nil
	case "materia":
		return Materia, nil
	}
	return 0, fmt.Errorf("unknown resell mode %q", s)
}

func (m ResellMode) String() string {
	if m == Materia {
		return "materia"
	}
	return "equipment"
}

// MateriaNames lists every materia the Materia mode considers.
func MateriaNames() []string {
	names := make([]string, 0, len(materiaFamilies)*len(materiaTiers))
	for _, family := range materiaFamilies {
		for _, tier := range materiaTiers {
			names = append(names, fmt.Sprintf("%s Materia %s", family, tier))
		}
	}
	return names
}

type ResellRow struct {
	Name         string `json:"name"`
	HomePrice    int    `json:"home_price"`
	ForeignPrice int    `json:"foreign_price"`
	Profit       int    `json:"profit"`
	World        string `json:"world"`
}

type ResellResult struct {
	Home   string      `json:"home"`
	Target string      `json:"target"`
	Mode   string      `json:"mode"`
	Rows   []ResellRow `json:"rows"`
	Timing
}

// Profit is what buying at foreign and selling at home earns after tax.
func Profit(home, foreign int, taxRate float64) int {
	return stats.Round(float64(home)*(1-taxRate) - float64(foreign))
}

func (r *Ranker) resellCandidates(ctx context.Context, mode ResellMode) ([]market.Ref, error) {
	switch mode {
	case Materia:
		return r.prices.Resolve(MateriaNames())
	case Equipment:
		items, err := r.items.Search(ctx, xivapi.Query{
			Filters: []string{
				fmt.Sprintf("LevelItem>=%d", r.tuning.ResellMinIlvl),
				"IsUntradable=0",
				"EquipSlotCategory!",
			},
			Limit: equipmentSearchLimit,
		})
		if err != nil {
			return nil, err
		}
		refs := make([]market.Ref, len(items))
		for i, it := range items {
			refs[i] = market.Ref{ID: it.ID, Name: it.Name}
		}
		return refs, nil
	}
	return nil, fmt.Errorf("unknown resell mode %d", mode)
}

// Resell finds items that cost less on target than they sell for on home,
// most profitable first. Items nobody sells on target are skipped.
func (r *Ranker) Resell(ctx context.Context, home, target string, mode ResellMode, n int) (*ResellResult, error) {
	start := time.Now()
	refs, err := r.resellCandidates(ctx, mode)
	if err != nil {
		return nil, err
	}

	homeQuotes, err := r.prices.LowestPrices(ctx, home, refs, universalis.AnyQuality)
	if err != nil {
		return nil, err
	}
	foreignQuotes, err := r.prices.LowestPrices(ctx, target, refs, universalis.AnyQuality)
	if err != nil {
		return nil, err
	}

	var rows []ResellRow
	for i, ref := range refs {
		h, f := homeQuotes[i], foreignQuotes[i]
		if f.Price == 0 {
			continue
		}
		profit := Profit(h.Price, f.Price, r.tuning.TaxRate)
		if profit <= 0 {
			continue
		}
		rows = append(rows, ResellRow{
			Name:         ref.Name,
			HomePrice:    h.Price,
			ForeignPrice: f.Price,
			Profit:       profit,
			World:        f.WorldName,
		})
	}
	sortDesc(rows, func(row ResellRow) int { return row.Profit })

	res := &ResellResult{Home: home, Target: target, Mode: mode.String(), Rows: truncate(rows, n), Timing: since(start, len(refs))}
	logRun("resell "+mode.String(), home, res.Timing, len(res.Rows))
	return res, nil
}
