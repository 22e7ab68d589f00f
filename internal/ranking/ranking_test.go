package ranking

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xivmarket/internal/catalog"
	"xivmarket/internal/config"
	"xivmarket/internal/errx"
	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/services/universalis"
	"xivmarket/internal/services/xivapi"
)

// fakePricing quotes every item at a fixed price per server.
type fakePricing struct {
	ids        map[string]int
	prices     map[string]map[int]int // server -> id -> price
	velocities map[int]int
	qualities  []universalis.Quality
	mu         sync.Mutex
}

func (f *fakePricing) Resolve(names []string) ([]market.Ref, error) {
	refs := make([]market.Ref, len(names))
	for i, n := range names {
		id, ok := f.ids[n]
		if !ok {
			return nil, errx.NotFound("item %q", n)
		}
		refs[i] = market.Ref{ID: id, Name: n}
	}
	return refs, nil
}

func (f *fakePricing) quote(server string, refs []market.Ref, quality universalis.Quality) []models.PriceQuote {
	f.mu.Lock()
	f.qualities = append(f.qualities, quality)
	f.mu.Unlock()
	out := make([]models.PriceQuote, len(refs))
	for i, ref := range refs {
		out[i] = models.PriceQuote{ItemID: ref.ID, Name: ref.Name}
		if p, ok := f.prices[server][ref.ID]; ok && ref.ID != 0 {
			out[i].Price = p
			out[i].WorldName = server + "-world"
		}
	}
	return out
}

func (f *fakePricing) AveragePrices(_ context.Context, server string, refs []market.Ref, q universalis.Quality) ([]models.PriceQuote, error) {
	return f.quote(server, refs, q), nil
}

func (f *fakePricing) LowestPrices(_ context.Context, server string, refs []market.Ref, q universalis.Quality) ([]models.PriceQuote, error) {
	return f.quote(server, refs, q), nil
}

func (f *fakePricing) Velocities(_ context.Context, _ string, refs []market.Ref) ([]int, error) {
	out := make([]int, len(refs))
	for i, ref := range refs {
		out[i] = f.velocities[ref.ID]
	}
	return out, nil
}

// fakeSearch answers gear searches from a table keyed by job and slot.
type fakeSearch struct {
	mu      sync.Mutex
	bySlot  map[string][]xivapi.Equipment
	queries []xivapi.Query
}

func (f *fakeSearch) Search(_ context.Context, q xivapi.Query) ([]xivapi.Equipment, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	var job, slot string
	for _, filter := range q.Filters {
		if rest, ok := strings.CutPrefix(filter, "ClassJobCategory."); ok {
			job = strings.TrimSuffix(rest, "=1")
		}
		if rest, ok := strings.CutPrefix(filter, "EquipSlotCategory."); ok {
			slot = strings.TrimSuffix(rest, "=1")
		}
	}
	if job == "" {
		return f.bySlot["resell"], nil
	}
	res := f.bySlot[job+" "+slot]
	if len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res, nil
}

func testTuning() config.Tuning {
	return config.DefaultTuning()
}

func ventureRanker(t *testing.T) (*Ranker, *fakePricing) {
	t.Helper()
	cat := catalog.NewFromTables(&catalog.Tables{Ventures: []models.Venture{
		{Name: "Cotton Boll", Amount: 5, Level: 1, Duration: 60},
		{Name: "Iron Ore", Amount: 10, Level: 10, Duration: 60},
		{Name: "Dusty Rock", Amount: 1, Level: 5, Duration: 40},
		{Name: "Silk", Amount: 2, Level: 30, Duration: 60},
	}})
	prices := &fakePricing{
		ids:        map[string]int{"Cotton Boll": 1, "Iron Ore": 2, "Dusty Rock": 3, "Silk": 4},
		prices:     map[string]map[int]int{"Gilgamesh": {1: 120, 2: 10, 3: 5000, 4: 200}},
		velocities: map[int]int{1: 50, 2: 30, 3: 2, 4: 100},
	}
	return NewRanker(cat, prices, &fakeSearch{}, testTuning()), prices
}

func TestGilPerHour(t *testing.T) {
	assert.Equal(t, 600, GilPerHour(120, 5, 60))
	assert.Equal(t, 0, GilPerHour(120, 5, 0))
}

func TestVentures(t *testing.T) {
	r, prices := ventureRanker(t)

	res, err := r.Ventures(context.Background(), "Gilgamesh", All, 25)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3, "Dusty Rock is below the velocity cutoff")

	// net prices: 120*0.97=116.4, 200*0.97=194, 10*0.97=9.7
	assert.Equal(t, VentureRow{Name: "Cotton Boll", Level: 1, GilPerHour: 582, Velocity: 50}, res.Rows[0])
	assert.Equal(t, "Silk", res.Rows[1].Name)
	assert.Equal(t, 388, res.Rows[1].GilPerHour)
	assert.Equal(t, 97, res.Rows[2].GilPerHour)
	assert.Contains(t, prices.qualities, universalis.NQ)

	top, err := r.Ventures(context.Background(), "Gilgamesh", 2, 25)
	require.NoError(t, err)
	assert.Len(t, top.Rows, 2)

	every, err := r.Ventures(context.Background(), "Gilgamesh", All, 0)
	require.NoError(t, err)
	assert.Len(t, every.Rows, 4)
}

func TestCollectibles(t *testing.T) {
	cat := catalog.NewFromTables(&catalog.Tables{
		CollectibleTiers: []models.CollectibleTier{
			{Level: 90, Reward: 100, Currency: "Purple Crafters' Scrips", Items: models.StringSlice{"Pricey Tart", "Cheap Stew"}},
			{Level: 80, Reward: 50, Currency: "White Crafters' Scrips", Items: models.StringSlice{"Plain Bread"}},
		},
		Recipes: []models.Recipe{
			{Name: "Pricey Tart", IngredientNames: []string{"Sugar", "Kumquat"}, Amounts: []int{2, 3}},
			{Name: "Cheap Stew", IngredientNames: []string{"Sugar"}, Amounts: []int{1}},
			{Name: "Plain Bread", IngredientNames: []string{"Flour"}, Amounts: []int{1}},
		},
	})
	prices := &fakePricing{
		ids:    map[string]int{"Sugar": 1, "Kumquat": 2, "Flour": 3},
		prices: map[string]map[int]int{"Light": {1: 10, 2: 100}},
	}
	r := NewRanker(cat, prices, &fakeSearch{}, testTuning())

	res, err := r.Collectibles(context.Background(), Purple, "Light", All)
	require.NoError(t, err)
	assert.Equal(t, "Purple Crafters' Scrips", res.Currency)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, CollectibleRow{Name: "Cheap Stew", Level: 90, Reward: 100, Cost: 10, GilPerScrip: 0}, res.Rows[0])
	assert.Equal(t, CollectibleRow{Name: "Pricey Tart", Level: 90, Reward: 100, Cost: 320, GilPerScrip: 3}, res.Rows[1])

	one, err := r.Collectibles(context.Background(), Purple, "Light", 1)
	require.NoError(t, err)
	assert.Len(t, one.Rows, 1)
}

func TestCollectiblesMissingRecipe(t *testing.T) {
	cat := catalog.NewFromTables(&catalog.Tables{CollectibleTiers: []models.CollectibleTier{
		{Level: 90, Reward: 100, Currency: "White Crafters' Scrips", Items: models.StringSlice{"Mystery Dish"}},
	}})
	r := NewRanker(cat, &fakePricing{}, &fakeSearch{}, testTuning())

	_, err := r.Collectibles(context.Background(), White, "Light", All)
	assert.ErrorIs(t, err, errx.ErrNotFound)
}

func TestScripRewards(t *testing.T) {
	cat := catalog.NewFromTables(&catalog.Tables{ScripRewards: []models.ScripReward{
		{Name: "Dark Matter", Quantity: 1, Cost: 10, Currency: "White Crafters' Scrip"},
		{Name: "Materia X", Quantity: 1, Cost: 500, Currency: "White Crafters' Scrip"},
		{Name: "Rare Dye", Quantity: 1, Cost: 600, Currency: "White Crafters' Scrip"},
		{Name: "Purple Thing", Quantity: 1, Cost: 1, Currency: "Purple Crafters' Scrip"},
	}})
	prices := &fakePricing{
		ids:        map[string]int{"Dark Matter": 1, "Materia X": 2, "Rare Dye": 3},
		prices:     map[string]map[int]int{"Cactuar": {1: 100, 2: 100000, 3: 900000}},
		velocities: map[int]int{1: 200, 2: 40, 3: 1},
	}
	r := NewRanker(cat, prices, &fakeSearch{}, testTuning())

	res, err := r.ScripRewards(context.Background(), "Cactuar", White, All, 10)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, ScripRow{Name: "Materia X", Cost: 500, Price: 97000, GilPerScrip: 194, Velocity: 40}, res.Rows[0])
	assert.Equal(t, ScripRow{Name: "Dark Matter", Cost: 10, Price: 97, GilPerScrip: 10, Velocity: 200}, res.Rows[1])
}

func gearSearch() *fakeSearch {
	eq := func(id int, name string) []xivapi.Equipment {
		return []xivapi.Equipment{{ID: id, Name: name, LevelItem: 560}}
	}
	s := &fakeSearch{bySlot: map[string][]xivapi.Equipment{
		"CRP MainHand": eq(1, "Saw"),
		"CRP OffHand":  eq(2, "Hammer"),
		"CRP Head":     eq(3, "Cap"),
		"CRP Body": {
			{ID: 5, Name: "Ornate Coat", LevelItem: 560},
			{ID: 4, Name: "Coat", LevelItem: 560},
		},
		"CRP FingerR":  eq(6, "Ring of Crafting"),
		"BSM MainHand": eq(7, "Cross-pein Hammer"),
		"BSM OffHand":  eq(8, "File"),
	}}
	return s
}

func TestGearset(t *testing.T) {
	prices := &fakePricing{prices: map[string]map[int]int{"Primal": {1: 100, 2: 50, 3: 10, 4: 20, 5: 9999, 6: 7}}}
	search := gearSearch()
	r := NewRanker(catalog.NewFromTables(&catalog.Tables{}), prices, search, testTuning())

	res, err := r.Gearset(context.Background(), 560, "crp", "Primal", universalis.HQ)
	require.NoError(t, err)
	assert.Equal(t, "CRP", res.Title)
	require.Len(t, res.Rows, len(gearSlots)+1)

	assert.Equal(t, GearRow{Slot: "MainHand", Item: "Saw", Price: 100, World: "Primal-world", Pieces: 1}, res.Rows[0])
	assert.Equal(t, "Coat", res.Rows[3].Item)
	assert.Equal(t, GearRow{Slot: "Ring", Item: "Ring of Crafting", Price: 7, World: "Primal-world", Pieces: 2}, res.Rows[10])
	assert.Equal(t, GearRow{Slot: "OrnateBody", Item: "Ornate Coat", Price: 9999, World: "Primal-world"}, res.Rows[11])
	assert.Equal(t, GearRow{Slot: "Legs", Pieces: 1}, res.Rows[5], "no item found for the slot")

	assert.Equal(t, 100+50+10+20+7*2, res.Total)
	for _, q := range prices.qualities {
		assert.Equal(t, universalis.HQ, q)
	}

	for _, q := range search.queries {
		assert.Contains(t, q.Filters, "IsUntradable=0")
		assert.Contains(t, q.Filters, "LevelItem<=560")
		if strings.Contains(strings.Join(q.Filters, ","), "EquipSlotCategory.Body=1") {
			assert.Equal(t, 2, q.Limit)
		} else {
			assert.Equal(t, 1, q.Limit)
		}
	}
}

func TestGearsetRejectsBadJob(t *testing.T) {
	r := NewRanker(catalog.NewFromTables(&catalog.Tables{}), &fakePricing{}, gearSearch(), testTuning())
	_, err := r.Gearset(context.Background(), 560, "CRPX", "Primal", universalis.HQ)
	assert.Error(t, err)
}

func TestJobGroupSet(t *testing.T) {
	prices := &fakePricing{prices: map[string]map[int]int{"Primal": {1: 100, 2: 50, 3: 10, 4: 20, 6: 7, 7: 300, 8: 30}}}
	r := NewRanker(catalog.NewFromTables(&catalog.Tables{}), prices, gearSearch(), testTuning())

	res, err := r.JobGroupSet(context.Background(), 560, "Primal", Crafters, universalis.HQ, false)
	require.NoError(t, err)
	assert.Equal(t, "crafter", res.Title)
	// two hands per crafter, nine shared slots and the ornate body
	require.Len(t, res.Rows, 2*len(crafterJobs)+len(gearSlots)-2+1)
	assert.Equal(t, "CRP MainHand", res.Rows[0].Slot)
	assert.Equal(t, "BSM OffHand", res.Rows[3].Slot)
	assert.Equal(t, "File", res.Rows[3].Item)
	assert.Equal(t, 100+50+300+30+10+20+7*2, res.Total)

	grouped, err := r.JobGroupSet(context.Background(), 560, "Primal", Crafters, universalis.HQ, true)
	require.NoError(t, err)
	assert.Equal(t, res.Total, grouped.Total)
	for i := 1; i < len(grouped.Rows); i++ {
		assert.LessOrEqual(t, grouped.Rows[i-1].World, grouped.Rows[i].World)
	}
}

func TestParseEnums(t *testing.T) {
	g, err := ParseJobGroup(" Gatherer ")
	require.NoError(t, err)
	assert.Equal(t, Gatherers, g)
	assert.Equal(t, []string{"MIN", "BTN", "FSH"}, g.Jobs())
	assert.Len(t, AllJobs.Jobs(), 11)
	_, err = ParseJobGroup("fisher")
	assert.Error(t, err)

	m, err := ParseResellMode("Materia")
	require.NoError(t, err)
	assert.Equal(t, Materia, m)
	_, err = ParseResellMode("housing")
	assert.Error(t, err)

	c, err := ParseScripColor("PURPLE")
	require.NoError(t, err)
	assert.Equal(t, "Purple Crafters' Scrip", c.RewardCurrency())
	assert.Equal(t, "White Crafters' Scrips", White.CollectibleCurrency())

	assert.True(t, IsJob("cul"))
	assert.False(t, IsJob("C1L"))
}

func TestMateriaNames(t *testing.T) {
	names := MateriaNames()
	assert.Len(t, names, 52)
	assert.Equal(t, "Savage Aim Materia VII", names[0])
	assert.Equal(t, "Gatherer's Guile Materia X", names[len(names)-1])
}

func TestProfit(t *testing.T) {
	assert.Equal(t, 870, Profit(1000, 100, 0.03))
	assert.Equal(t, -3, Profit(100, 100, 0.03))
}

func TestResellEquipment(t *testing.T) {
	search := &fakeSearch{bySlot: map[string][]xivapi.Equipment{"resell": {
		{ID: 1, Name: "Sword"}, {ID: 2, Name: "Shield"}, {ID: 3, Name: "Hat"}, {ID: 4, Name: "Boots"}, {ID: 5, Name: "Cape"},
	}}}
	prices := &fakePricing{prices: map[string]map[int]int{
		"Gilgamesh": {1: 1000, 2: 500, 3: 100, 4: 2000},
		"Aether":    {1: 100, 2: 600, 3: 97, 4: 1000, 5: 5},
	}}
	r := NewRanker(catalog.NewFromTables(&catalog.Tables{}), prices, search, testTuning())

	res, err := r.Resell(context.Background(), "Gilgamesh", "Aether", Equipment, All)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Boots", res.Rows[0].Name)
	assert.Equal(t, 940, res.Rows[0].Profit)
	assert.Equal(t, ResellRow{Name: "Sword", HomePrice: 1000, ForeignPrice: 100, Profit: 870, World: "Aether-world"}, res.Rows[1])
	for _, row := range res.Rows {
		assert.Positive(t, row.Profit)
	}

	require.Len(t, search.queries, 1)
	assert.Equal(t, 500, search.queries[0].Limit)
	assert.Contains(t, search.queries[0].Filters, "LevelItem>=560")
	assert.Contains(t, search.queries[0].Filters, "EquipSlotCategory!")

	top, err := r.Resell(context.Background(), "Gilgamesh", "Aether", Equipment, 1)
	require.NoError(t, err)
	assert.Len(t, top.Rows, 1)
}

func TestResellMateriaResolvesNames(t *testing.T) {
	ids := map[string]int{}
	for i, name := range MateriaNames() {
		ids[name] = 100 + i
	}
	prices := &fakePricing{
		ids: ids,
		prices: map[string]map[int]int{
			"Gilgamesh": {100: 5000},
			"Aether":    {100: 1000},
		},
	}
	r := NewRanker(catalog.NewFromTables(&catalog.Tables{}), prices, &fakeSearch{}, testTuning())

	res, err := r.Resell(context.Background(), "Gilgamesh", "Aether", Materia, All)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Savage Aim Materia VII", res.Rows[0].Name)
	assert.Equal(t, 3850, res.Rows[0].Profit)
	assert.Equal(t, "materia", res.Mode)
}
