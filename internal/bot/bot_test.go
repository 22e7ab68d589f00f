package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xivmarket/internal/config"
	"xivmarket/internal/errx"
	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
)

type call struct {
	name   string
	server string
	n      int
	extra  any
}

type fakeRankings struct {
	calls []call
	err   error
}

func (f *fakeRankings) Ventures(_ context.Context, server string, n, minVelocity int) (*ranking.VentureResult, error) {
	f.calls = append(f.calls, call{"ventures", server, n, minVelocity})
	return &ranking.VentureResult{Server: server, Rows: []ranking.VentureRow{{Name: "Cotton Boll", Level: 1, GilPerHour: 12345, Velocity: 40}}}, f.err
}

func (f *fakeRankings) Collectibles(_ context.Context, color ranking.ScripColor, server string, n int) (*ranking.CollectibleResult, error) {
	f.calls = append(f.calls, call{"collectibles", server, n, color})
	return &ranking.CollectibleResult{Server: server, Currency: color.CollectibleCurrency(), Rows: []ranking.CollectibleRow{
		{Name: "Rarefied Tart", Level: 90, Reward: 100, Cost: 1500, GilPerScrip: 15},
	}}, f.err
}

func (f *fakeRankings) ScripRewards(_ context.Context, server string, color ranking.ScripColor, n, minVelocity int) (*ranking.ScripResult, error) {
	f.calls = append(f.calls, call{"scrips", server, n, minVelocity})
	return &ranking.ScripResult{Server: server, Currency: color.RewardCurrency(), Rows: []ranking.ScripRow{
		{Name: "Dark Matter", Cost: 10, Price: 97, GilPerScrip: 10, Velocity: 200},
	}}, f.err
}

func (f *fakeRankings) Gearset(_ context.Context, ilvl int, job, server string, quality universalis.Quality) (*ranking.GearResult, error) {
	f.calls = append(f.calls, call{"gearset", server, ilvl, job})
	return &ranking.GearResult{Title: job, Ilvl: ilvl, Server: server, Quality: quality, Total: 300, Rows: []ranking.GearRow{
		{Slot: "MainHand", Item: "Saw", Price: 100, World: "Behemoth", Pieces: 1},
		{Slot: "OffHand", Pieces: 1},
		{Slot: "Ring", Item: "Band", Price: 100, World: "Excalibur", Pieces: 2},
	}}, f.err
}

func (f *fakeRankings) JobGroupSet(_ context.Context, ilvl int, server string, group ranking.JobGroup, _ universalis.Quality, byWorld bool) (*ranking.GearResult, error) {
	f.calls = append(f.calls, call{"set", server, ilvl, group})
	return &ranking.GearResult{Title: group.String(), Ilvl: ilvl, Total: 30, Rows: []ranking.GearRow{
		{Slot: "CRP OffHand", Pieces: 1},
		{Slot: "CRP MainHand", Item: "Saw", Price: 10, World: "Behemoth", Pieces: 1},
		{Slot: "Head", Item: "Cap", Price: 20, World: "Behemoth", Pieces: 1},
	}}, f.err
}

func (f *fakeRankings) Resell(_ context.Context, home, target string, mode ranking.ResellMode, n int) (*ranking.ResellResult, error) {
	f.calls = append(f.calls, call{"resell", home + ">" + target, n, mode})
	return &ranking.ResellResult{Home: home, Target: target, Mode: mode.String(), Rows: []ranking.ResellRow{
		{Name: "Savage Aim Materia X", HomePrice: 5000, ForeignPrice: 1000, Profit: 3850, World: "Siren"},
	}}, f.err
}

type fakeServers map[string]market.Server

func (f fakeServers) Lookup(server string) (market.Server, error) {
	s, ok := f[strings.ToLower(server)]
	if !ok {
		return market.Server{}, errx.NotFound("%s was not found in any database", server)
	}
	return s, nil
}

type fakeRecipes map[string]models.Recipe

func (f fakeRecipes) Recipe(name string) (models.Recipe, error) {
	r, ok := f[name]
	if !ok {
		return models.Recipe{}, errx.NotFound("recipe for %s", name)
	}
	return r, nil
}

func newTestBot() (*Bot, *fakeRankings) {
	rankings := &fakeRankings{}
	servers := fakeServers{
		"excalibur": {Name: "Excalibur", Scope: market.ScopeWorld},
		"primal":    {Name: "Primal", Scope: market.ScopeDataCenter},
		"europe":    {Name: "Europe", Scope: market.ScopeRegion},
	}
	recipes := fakeRecipes{"Rarefied Tart": {
		Name: "Rarefied Tart", CraftingClass: "Culinarian",
		IngredientNames: []string{"Sugar", "Kumquat"}, Amounts: []int{2, 3},
	}}
	return New(rankings, servers, recipes, config.DefaultTuning()), rankings
}

func rejection(t *testing.T, err error) string {
	t.Helper()
	var rej *Rejection
	require.True(t, errors.As(err, &rej), "expected a rejection, got %v", err)
	assert.True(t, strings.HasPrefix(rej.Error(), ":warning:"))
	return rej.Reason
}

func TestIgnoresPlainMessages(t *testing.T) {
	b, rankings := newTestBot()
	msg, err := b.Handle(context.Background(), "alice", "hello there")
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, rankings.calls)
}

func TestUnknownCommandAndMissingArgs(t *testing.T) {
	b, _ := newTestBot()

	_, err := b.Handle(context.Background(), "alice", "$dance")
	assert.Contains(t, rejection(t, err), "Invalid command")

	_, err = b.Handle(context.Background(), "alice", "$gearset SMN 580")
	assert.Contains(t, rejection(t, err), "Please pass in all arguments")
}

func TestVenturesCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$ventures excalibur")
	require.NoError(t, err)
	require.Len(t, rankings.calls, 1)
	assert.Equal(t, call{"ventures", "Excalibur", 10, 40}, rankings.calls[0])
	require.Len(t, msg.Fields, 1)
	assert.Equal(t, " 1. Cotton Boll (Lvl 1)", msg.Fields[0].Name)
	assert.Contains(t, msg.Fields[0].Value, "12,345")

	_, err = b.Handle(context.Background(), "alice", "$ventures Primal")
	assert.Contains(t, rejection(t, err), "valid world name and not a DC")

	_, err = b.Handle(context.Background(), "alice", "$ventures Atlantis")
	assert.Contains(t, rejection(t, err), "Got: Atlantis")
	assert.Len(t, rankings.calls, 1)
}

func TestCollectiblesCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$collectibles Purple Europe")
	require.NoError(t, err)
	assert.Equal(t, ranking.Purple, rankings.calls[0].extra)
	assert.Equal(t, " 1. Rarefied Tart (Culinarian Lvl 90)", msg.Fields[0].Name)
	assert.Contains(t, msg.Fields[0].Value, "2 x Sugar")
	assert.Contains(t, msg.Fields[0].Value, "Cost: 1,500")

	_, err = b.Handle(context.Background(), "alice", "$collectibles Orange Europe")
	assert.Contains(t, rejection(t, err), "'White' or 'Purple'")
}

func TestScripsCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$scrips white Excalibur")
	require.NoError(t, err)
	assert.Equal(t, call{"scrips", "Excalibur", 10, 10}, rankings.calls[0])
	assert.Equal(t, "1. Dark Matter (10 W.C.S.)", msg.Fields[0].Name)

	_, err = b.Handle(context.Background(), "alice", "$scrips white Europe")
	rejection(t, err)
}

func TestGearsetCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$gearset crp 560 Primal")
	require.NoError(t, err)
	assert.Equal(t, call{"gearset", "Primal", 560, "crp"}, rankings.calls[0])
	assert.Contains(t, msg.Title, "CRP Gear (ilvl <= 560)")
	assert.Contains(t, msg.Title, "Total Cost: 300")
	require.Len(t, msg.Fields, 2, "empty slots are skipped")
	assert.Equal(t, "Band (Ring)", msg.Fields[1].Name)

	_, err = b.Handle(context.Background(), "alice", "$gearset Carpenter 560 Primal")
	assert.Contains(t, rejection(t, err), "job's abbreviation")
	_, err = b.Handle(context.Background(), "alice", "$gearset CRP high Primal")
	assert.Contains(t, rejection(t, err), "ilvl must be a positive integer")
	_, err = b.Handle(context.Background(), "alice", "$gearset CRP -5 Primal")
	rejection(t, err)
}

func TestResellCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$resell Excalibur Primal materia")
	require.NoError(t, err)
	assert.Equal(t, call{"resell", "Excalibur>Primal", 10, ranking.Materia}, rankings.calls[0])
	assert.Contains(t, msg.Fields[0].Value, "Buy from Siren for: 1,000")

	_, err = b.Handle(context.Background(), "alice", "$resell Excalibur Primal equips all")
	require.NoError(t, err)
	assert.Equal(t, call{"resell", "Excalibur>Primal", ranking.All, ranking.Equipment}, rankings.calls[1])

	_, err = b.Handle(context.Background(), "alice", "$resell Excalibur Primal equips 3")
	require.NoError(t, err)
	assert.Equal(t, 3, rankings.calls[2].n)

	_, err = b.Handle(context.Background(), "alice", "$resell Primal Excalibur materia")
	assert.Contains(t, rejection(t, err), "home world")
	_, err = b.Handle(context.Background(), "alice", "$resell Excalibur Primal housing")
	assert.Contains(t, rejection(t, err), "'equips' or 'materia'")
	_, err = b.Handle(context.Background(), "alice", "$resell Excalibur Primal materia lots")
	rejection(t, err)
}

func TestJobGroupSetCommand(t *testing.T) {
	b, rankings := newTestBot()

	msg, err := b.Handle(context.Background(), "alice", "$crafter_gatherer_set 600 Primal")
	require.NoError(t, err)
	assert.Equal(t, ranking.AllJobs, rankings.calls[0].extra)
	assert.Contains(t, msg.Title, "Crafter + Gatherer Gear (ilvl <= 600)")
	require.Len(t, msg.Fields, 1, "rows without a world are dropped")
	assert.Equal(t, "Behemoth (1/1)", msg.Fields[0].Name)
	assert.Contains(t, msg.Fields[0].Value, "Saw (CRP Main)")

	msg, err = b.Handle(context.Background(), "alice", "$gatherer_set 600 Primal")
	require.NoError(t, err)
	assert.Equal(t, ranking.Gatherers, rankings.calls[1].extra)
	assert.Contains(t, msg.Title, "Gatherer Gear")
}

func TestGroupByWorldSplitsLongFields(t *testing.T) {
	var rows []ranking.GearRow
	for i := 0; i < 40; i++ {
		rows = append(rows, ranking.GearRow{Slot: "Head", Item: strings.Repeat("x", 20), Price: 1, World: "Behemoth"})
	}
	rows = append(rows, ranking.GearRow{Slot: "Head", Item: "Cap", Price: 1, World: "Siren"})

	fields := groupByWorld(rows)
	require.Len(t, fields, 3)
	assert.Equal(t, "Behemoth (1/2)", fields[0].Name)
	assert.Equal(t, "Behemoth (2/2)", fields[1].Name)
	assert.Equal(t, "Siren (1/1)", fields[2].Name)
	for _, f := range fields {
		assert.Less(t, len(f.Value), maxFieldLength)
	}
}

func TestRankingErrorsPassThrough(t *testing.T) {
	b, rankings := newTestBot()
	rankings.err = errx.InvalidResponse("/history/Excalibur/1", nil)

	_, err := b.Handle(context.Background(), "alice", "$ventures Excalibur")
	require.Error(t, err)
	var rej *Rejection
	assert.False(t, errors.As(err, &rej))
	assert.Contains(t, Reply(err), "Unhandled error")
}

func TestHelpListsCommands(t *testing.T) {
	b, _ := newTestBot()
	msg, err := b.Handle(context.Background(), "alice", "$help")
	require.NoError(t, err)
	assert.Len(t, msg.Fields, 9)
	assert.Contains(t, msg.Text(), "$resell World Server Mode [n]")
}
