package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"xivmarket/internal/market"
	"xivmarket/internal/pool"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/services/xivapi"
)

// Equipment slots in display order. FingerR is shown as Ring and counted
// twice in totals.
var gearSlots = []string{"MainHand", "OffHand", "Head", "Body", "Gloves", "Legs", "Feet", "Ears", "Neck", "Wrists", "FingerR"}

const (
	slotRing        = "Ring"
	slotOrnateBody  = "OrnateBody"
	ornateMarker    = "Ornate"
	bodySearchLimit = 2
)

type GearRow struct {
	Slot  string `json:"slot"`
	Item  string `json:"item"`
	Price int    `json:"price"`
	World string `json:"world"`
	// Pieces is how many of the item the set needs; 0 for alternatives
	// left out of the total.
	Pieces int `json:"pieces"`
}

type GearResult struct {
	Title   string              `json:"title"`
	Ilvl    int                 `json:"ilvl"`
	Server  string              `json:"server"`
	Quality universalis.Quality `json:"quality"`
	Rows    []GearRow           `json:"rows"`
	Total   int                 `json:"total"`
	Timing
}

// JobGroup is a roster of disciples of the hand or land.
type JobGroup int

const (
	Crafters JobGroup = iota
	Gatherers
	AllJobs
)

var (
	crafterJobs  = []string{"CRP", "BSM", "ARM", "GSM", "LTW", "WVR", "ALC", "CUL"}
	gathererJobs = []string{"MIN", "BTN", "FSH"}
)

func ParseJobGroup(s string) (JobGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crafter", "crafters":
		return Crafters, nil
	case "gatherer", "gatherers":
		return Gatherers, nil
	case "all", "crafter_gatherer":
		return AllJobs, nil
	}
	return 0, fmt.Errorf("unknown job group %q", s)
}

func (g JobGroup) String() string {
	switch g {
	case Crafters:
		return "crafter"
	case Gatherers:
		return "gatherer"
	default:
		return "all"
	}
}

func (g JobGroup) Jobs() []string {
	switch g {
	case Crafters:
		return crafterJobs
	case Gatherers:
		return gathererJobs
	default:
		return append(append([]string{}, crafterJobs...), gathererJobs...)
	}
}

// leads are the jobs whose non-weapon gear stands for the whole group.
func (g JobGroup) leads() []string {
	switch g {
	case Crafters:
		return crafterJobs[:1]
	case Gatherers:
		return gathererJobs[:1]
	default:
		return []string{crafterJobs[0], gathererJobs[0]}
	}
}

// IsJob reports whether s looks like a three letter job abbreviation.
func IsJob(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

type slotPick struct {
	item   xivapi.Equipment
	ornate xivapi.Equipment
}

// bestForSlot finds the highest level tradeable item of job for slot at or
// below ilvl. For Body the best ornate piece is returned separately.
func (r *Ranker) bestForSlot(ctx context.Context, job, slot string, ilvl int) (slotPick, error) {
	limit := 1
	if slot == "Body" {
		limit = bodySearchLimit
	}
	results, err := r.items.Search(ctx, xivapi.Query{
		Filters: []string{
			fmt.Sprintf("LevelItem<=%d", ilvl),
			fmt.Sprintf("ClassJobCategory.%s=1", job),
			"IsUntradable=0",
			fmt.Sprintf("EquipSlotCategory.%s=1", slot),
		},
		Limit: limit,
	})
	if err != nil {
		return slotPick{}, err
	}

	var best slotPick
	if slot != "Body" {
		if len(results) > 0 {
			best.item = results[0]
		}
		return best, nil
	}
	for _, res := range results {
		isOrnate := strings.Contains(res.Name, ornateMarker)
		if isOrnate && best.ornate.ID == 0 {
			best.ornate = res
		}
		if !isOrnate && best.item.ID == 0 {
			best.item = res
		}
	}
	return best, nil
}

// searchGear returns one row per slot of job, plus an OrnateBody row when
// one exists. Prices are filled in later.
func (r *Ranker) searchGear(ctx context.Context, job string, ilvl int) ([]GearRow, []market.Ref, error) {
	picks, err := pool.Map(ctx, pool.SlotWorkers, gearSlots, func(ctx context.Context, slot string) (slotPick, error) {
		return r.bestForSlot(ctx, job, slot, ilvl)
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		rows []GearRow
		refs []market.Ref
	)
	for i, slot := range gearSlots {
		row := GearRow{Slot: slot, Item: picks[i].item.Name, Pieces: 1}
		if slot == "FingerR" {
			row.Slot = slotRing
			row.Pieces = 2
		}
		rows = append(rows, row)
		refs = append(refs, market.Ref{ID: picks[i].item.ID, Name: picks[i].item.Name})
	}
	for _, p := range picks {
		if p.ornate.ID != 0 {
			rows = append(rows, GearRow{Slot: slotOrnateBody, Item: p.ornate.Name})
			refs = append(refs, market.Ref{ID: p.ornate.ID, Name: p.ornate.Name})
		}
	}
	return rows, refs, nil
}

func (r *Ranker) priceGear(ctx context.Context, server string, rows []GearRow, refs []market.Ref, quality universalis.Quality) (int, error) {
	quotes, err := r.prices.LowestPrices(ctx, server, refs, quality)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range rows {
		rows[i].Price = quotes[i].Price
		rows[i].World = quotes[i].WorldName
		total += rows[i].Price * rows[i].Pieces
	}
	return total, nil
}

// Gearset finds the best gear of job up to ilvl and where it is cheapest
// within server. The total counts the ring twice and skips the ornate body.
func (r *Ranker) Gearset(ctx context.Context, ilvl int, job, server string, quality universalis.Quality) (*GearResult, error) {
	start := time.Now()
	job = strings.ToUpper(job)
	if !IsJob(job) {
		return nil, fmt.Errorf("invalid job %q", job)
	}

	rows, refs, err := r.searchGear(ctx, job, ilvl)
	if err != nil {
		return nil, err
	}
	total, err := r.priceGear(ctx, server, rows, refs, quality)
	if err != nil {
		return nil, err
	}

	res := &GearResult{Title: job, Ilvl: ilvl, Server: server, Quality: quality, Rows: rows, Total: total, Timing: since(start, len(rows))}
	logRun("gearset", server, res.Timing, len(rows))
	return res, nil
}

type handSearch struct {
	job  string
	slot string
}

// JobGroupSet prices a full roster: the weapons of every job in group plus
// the shared armor and accessories of the group's lead jobs. With byWorld
// set the rows are grouped by the world they are cheapest on.
func (r *Ranker) JobGroupSet(ctx context.Context, ilvl int, server string, group JobGroup, quality universalis.Quality, byWorld bool) (*GearResult, error) {
	start := time.Now()

	var searches []handSearch
	for _, job := range group.Jobs() {
		searches = append(searches, handSearch{job, "MainHand"}, handSearch{job, "OffHand"})
	}
	hands, err := pool.Map(ctx, pool.SlotWorkers, searches, func(ctx context.Context, s handSearch) (slotPick, error) {
		return r.bestForSlot(ctx, s.job, s.slot, ilvl)
	})
	if err != nil {
		return nil, err
	}

	var (
		rows []GearRow
		refs []market.Ref
	)
	for i, s := range searches {
		rows = append(rows, GearRow{Slot: s.job + " " + s.slot, Item: hands[i].item.Name, Pieces: 1})
		refs = append(refs, market.Ref{ID: hands[i].item.ID, Name: hands[i].item.Name})
	}

	for _, lead := range group.leads() {
		gear, gearRefs, err := r.searchGear(ctx, lead, ilvl)
		if err != nil {
			return nil, err
		}
		for i, row := range gear {
			if row.Slot == "MainHand" || row.Slot == "OffHand" {
				continue
			}
			if group == AllJobs {
				row.Slot = lead + " " + row.Slot
			}
			rows = append(rows, row)
			refs = append(refs, gearRefs[i])
		}
	}

	total, err := r.priceGear(ctx, server, rows, refs, quality)
	if err != nil {
		return nil, err
	}
	if byWorld {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].World < rows[j].World })
	}

	res := &GearResult{Title: group.String(), Ilvl: ilvl, Server: server, Quality: quality, Rows: rows, Total: total, Timing: since(start, len(rows))}
	logRun("job group set", server, res.Timing, len(rows))
	return res, nil
}
