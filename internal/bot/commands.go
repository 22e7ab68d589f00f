package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
)

// Discord caps an embed field value at 1024 characters.
const maxFieldLength = 1000

const (
	worldOnly   = "Supplied world must be a valid world name and not a DC or region."
	anyServer   = "Supplied server must be a valid world, DC, or region name."
	homeWorld   = "Supplied home world must be a valid world and not a DC or region."
	badCurrency = "'Currency' must be either 'White' or 'Purple'."
)

func (b *Bot) commandTable() map[string]command {
	return map[string]command{
		"help": {
			usage: "help",
			help:  "Lists the available commands.",
			run:   b.help,
		},
		"ventures": {
			usage: "ventures World",
			help:  "Finds the most profitable combat ventures in a world.",
			args:  1,
			run:   b.ventures,
		},
		"collectibles": {
			usage: "collectibles Currency Server",
			help:  "Finds the most profitable collectible to craft in a world, DC, or region. Currency is 'White' or 'Purple'.",
			args:  2,
			run:   b.collectibles,
		},
		"scrips": {
			usage: "scrips Currency World",
			help:  "Finds the best scrip rewards on a world for a scrip color.",
			args:  2,
			run:   b.scrips,
		},
		"gearset": {
			usage: "gearset JobAbbr ilvl Server",
			help:  "Finds the cheapest world to buy a job's gearset up to an item level. Ex: $gearset SMN 580 Primal",
			args:  3,
			run:   b.gearset,
		},
		"resell": {
			usage: "resell World Server Mode [n]",
			help:  "Finds items to buy on other servers and resell on a home world. Mode is 'equips' or 'materia'.",
			args:  3,
			run:   b.resell,
		},
		"crafter_set": {
			usage: "crafter_set ilvl Server",
			help:  "Finds the best worlds to buy a crafter set with the tools of every crafter.",
			args:  2,
			run:   b.jobGroupSet(ranking.Crafters),
		},
		"gatherer_set": {
			usage: "gatherer_set ilvl Server",
			help:  "Finds the best worlds to buy a gatherer set with the tools of every gatherer.",
			args:  2,
			run:   b.jobGroupSet(ranking.Gatherers),
		},
		"crafter_gatherer_set": {
			usage: "crafter_gatherer_set ilvl Server",
			help:  "Finds the best worlds to buy crafter and gatherer sets with every job's tools.",
			args:  2,
			run:   b.jobGroupSet(ranking.AllJobs),
		},
	}
}

func parseColor(s string) (ranking.ScripColor, error) {
	c, err := ranking.ParseScripColor(s)
	if err != nil {
		return 0, reject("%s Got: %s", badCurrency, s)
	}
	return c, nil
}

func parseIlvl(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strings.ContainsAny(s, "+-") {
		return 0, reject("Supplied ilvl must be a positive integer. Got: %s", s)
	}
	return n, nil
}

func (b *Bot) ventures(ctx context.Context, args []string) (*Message, error) {
	server, err := b.checkServer(args[0], market.ScopeWorld, worldOnly)
	if err != nil {
		return nil, err
	}
	res, err := b.rankings.Ventures(ctx, server, b.tuning.ChatResults, b.tuning.ChatVentureVelocity)
	if err != nil {
		return nil, err
	}

	msg := &Message{Content: "Best combat ventures in " + server + ":", Title: "Best Combat Ventures"}
	for i, row := range res.Rows {
		msg.Fields = append(msg.Fields, Field{
			Name:  fmt.Sprintf("%2d. %s (Lvl %d)", i+1, row.Name, row.Level),
			Value: fmt.Sprintf("➥Gil/Hour: %s\n➥Sales/Day: %s", models.Thousands(row.GilPerHour), models.Thousands(row.Velocity)),
		})
	}
	return msg, nil
}

func (b *Bot) collectibles(ctx context.Context, args []string) (*Message, error) {
	color, err := parseColor(args[0])
	if err != nil {
		return nil, err
	}
	server, err := b.checkServer(args[1], market.AnyScope, anyServer)
	if err != nil {
		return nil, err
	}
	res, err := b.rankings.Collectibles(ctx, color, server, b.tuning.ChatResults)
	if err != nil {
		return nil, err
	}

	msg := &Message{Content: "Best collectibles to craft in " + server, Title: "Best Crafting Collectibles"}
	for i, row := range res.Rows {
		recipe, err := b.recipes.Recipe(row.Name)
		if err != nil {
			return nil, err
		}
		lines := []string{fmt.Sprintf("> **__Recipe__** (Cost: %s -- Gil/Scrip: %s)", models.Thousands(row.Cost), models.Thousands(row.GilPerScrip))}
		for _, ing := range recipe.Ingredients() {
			lines = append(lines, fmt.Sprintf(">   %d x %s", ing.Amount, ing.Name))
		}
		msg.Fields = append(msg.Fields, Field{
			Name:  fmt.Sprintf("%2d. %s (%s Lvl %d)", i+1, row.Name, recipe.CraftingClass, row.Level),
			Value: strings.Join(lines, "\n"),
		})
	}
	return msg, nil
}

func (b *Bot) scrips(ctx context.Context, args []string) (*Message, error) {
	color, err := parseColor(args[0])
	if err != nil {
		return nil, err
	}
	server, err := b.checkServer(args[1], market.ScopeWorld, worldOnly)
	if err != nil {
		return nil, err
	}
	res, err := b.rankings.ScripRewards(ctx, server, color, b.tuning.ChatResults, b.tuning.ScripMinVelocity)
	if err != nil {
		return nil, err
	}

	abbr := models.CurrencyAbbreviation(res.Currency)
	msg := &Message{Title: fmt.Sprintf("Best %s Rewards in %s", res.Currency, server)}
	for i, row := range res.Rows {
		msg.Fields = append(msg.Fields, Field{
			Name: fmt.Sprintf("%d. %s (%d %s)", i+1, row.Name, row.Cost, abbr),
			Value: fmt.Sprintf("➥Price: %s (Gil/Scrip: %s)\n➥Sales/Day: %s",
				models.Thousands(row.Price), models.Thousands(row.GilPerScrip), models.Thousands(row.Velocity)),
		})
	}
	return msg, nil
}

func (b *Bot) gearset(ctx context.Context, args []string) (*Message, error) {
	job := args[0]
	if !ranking.IsJob(job) {
		return nil, reject("Supplied job must be a job's abbreviation (like SMN). Got: %s", job)
	}
	ilvl, err := parseIlvl(args[1])
	if err != nil {
		return nil, err
	}
	server, err := b.checkServer(args[2], market.AnyScope, anyServer)
	if err != nil {
		return nil, err
	}
	res, err := b.rankings.Gearset(ctx, ilvl, job, server, universalis.HQ)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Content: "Cheapest item prices",
		Title:   fmt.Sprintf("%s Gear (ilvl <= %d)\nTotal Cost: %s gil", strings.ToUpper(job), ilvl, models.Thousands(res.Total)),
	}
	for _, row := range res.Rows {
		if row.Item == "" {
			continue
		}
		msg.Fields = append(msg.Fields, Field{
			Name:  fmt.Sprintf("%s (%s)", row.Item, row.Slot),
			Value: fmt.Sprintf("➥Price: %s (%s)", models.Thousands(row.Price), row.World),
		})
	}
	return msg, nil
}

func (b *Bot) resell(ctx context.Context, args []string) (*Message, error) {
	mode, err := ranking.ParseResellMode(args[2])
	if err != nil {
		return nil, reject("Supplied mode must be either 'equips' or 'materia'. Got: %s", args[2])
	}
	home, err := b.checkServer(args[0], market.ScopeWorld, homeWorld)
	if err != nil {
		return nil, err
	}
	target, err := b.checkServer(args[1], market.AnyScope, anyServer)
	if err != nil {
		return nil, err
	}
	n := b.tuning.ChatResults
	if len(args) > 3 {
		if strings.EqualFold(args[3], "all") {
			n = ranking.All
		} else if n, err = strconv.Atoi(args[3]); err != nil || n <= 0 {
			return nil, reject("Supplied result count must be a positive integer or 'all'. Got: %s", args[3])
		}
	}

	res, err := b.rankings.Resell(ctx, home, target, mode, n)
	if err != nil {
		return nil, err
	}
	msg := &Message{Title: fmt.Sprintf("Best %s to buy from %s and sell on %s", mode, target, home)}
	for i, row := range res.Rows {
		msg.Fields = append(msg.Fields, Field{
			Name:  fmt.Sprintf("%d. %s (Profit: %s gil)", i+1, row.Name, models.Thousands(row.Profit)),
			Value: fmt.Sprintf("➥Buy from %s for: %s\n➥Sell for: %s", row.World, models.Thousands(row.ForeignPrice), models.Thousands(row.HomePrice)),
		})
	}
	return msg, nil
}

func (b *Bot) jobGroupSet(group ranking.JobGroup) func(context.Context, []string) (*Message, error) {
	return func(ctx context.Context, args []string) (*Message, error) {
		ilvl, err := parseIlvl(args[0])
		if err != nil {
			return nil, err
		}
		server, err := b.checkServer(args[1], market.AnyScope, anyServer)
		if err != nil {
			return nil, err
		}
		res, err := b.rankings.JobGroupSet(ctx, ilvl, server, group, universalis.HQ, true)
		if err != nil {
			return nil, err
		}

		title := "Crafter + Gatherer"
		if group != ranking.AllJobs {
			title = strings.ToUpper(group.String()[:1]) + group.String()[1:]
		}
		msg := &Message{
			Content: "Cheapest item prices",
			Title:   fmt.Sprintf("%s Gear (ilvl <= %d)\nTotal Cost: %s gil", title, ilvl, models.Thousands(res.Total)),
		}
		msg.Fields = groupByWorld(res.Rows)
		return msg, nil
	}
}

// groupByWorld turns rows sorted by world into one or more fields per world,
// splitting long worlds across fields.
func groupByWorld(rows []ranking.GearRow) []Field {
	var fields []Field
	for start := 0; start < len(rows); {
		world := rows[start].World
		end := start
		for end < len(rows) && rows[end].World == world {
			end++
		}
		if world != "" {
			var values []string
			var cur strings.Builder
			for _, row := range rows[start:end] {
				line := fmt.Sprintf("➥%s (%s) - %s gil\n", row.Item, strings.ReplaceAll(row.Slot, "Hand", ""), models.Thousands(row.Price))
				if cur.Len()+len(line) >= maxFieldLength {
					values = append(values, cur.String())
					cur.Reset()
				}
				cur.WriteString(line)
			}
			if cur.Len() > 0 {
				values = append(values, cur.String())
			}
			for i, v := range values {
				fields = append(fields, Field{Name: fmt.Sprintf("%s (%d/%d)", world, i+1, len(values)), Value: v})
			}
		}
		start = end
	}
	return fields
}
