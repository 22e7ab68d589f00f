package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"xivmarket/internal/app"
	"xivmarket/internal/bot"
	"xivmarket/internal/market"
	"xivmarket/internal/ranking"
	"xivmarket/internal/render"
	"xivmarket/internal/services/universalis"
)

var (
	limit       int
	minVelocity int
	quality     string
	byWorld     bool
	days        int
)

var venturesCmd = &cobra.Command{
	Use:   "ventures <world>",
	Short: "Rank combat ventures by gil per hour",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[0], market.ScopeWorld)
			if err != nil {
				return err
			}
			res, err := a.Ranker.Ventures(ctx, server, limit, velocityFlag(cmd, a.Config.Tuning.VentureMinVelocity))
			if err != nil {
				return err
			}
			return show(render.Ventures(res))
		})
	},
}

var collectiblesCmd = &cobra.Command{
	Use:   "collectibles <white|purple> <server>",
	Short: "Rank collectibles by ingredient gil per scrip",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, err := ranking.ParseScripColor(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[1], market.AnyScope)
			if err != nil {
				return err
			}
			res, err := a.Ranker.Collectibles(ctx, color, server, limit)
			if err != nil {
				return err
			}
			return show(render.Collectibles(res))
		})
	},
}

var scripsCmd = &cobra.Command{
	Use:   "scrips <white|purple> <world>",
	Short: "Rank scrip rewards by resale gil per scrip",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, err := ranking.ParseScripColor(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[1], market.ScopeWorld)
			if err != nil {
				return err
			}
			res, err := a.Ranker.ScripRewards(ctx, server, color, limit, velocityFlag(cmd, a.Config.Tuning.ScripMinVelocity))
			if err != nil {
				return err
			}
			return show(render.Scrips(res))
		})
	},
}

var gearsetCmd = &cobra.Command{
	Use:   "gearset <job> <ilvl> <server>",
	Short: "Find the cheapest gear per slot for a job",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ranking.IsJob(args[0]) {
			return fmt.Errorf("job must be a three letter abbreviation, got %q", args[0])
		}
		ilvl, q, err := gearArgs(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[2], market.AnyScope)
			if err != nil {
				return err
			}
			res, err := a.Ranker.Gearset(ctx, ilvl, args[0], server, q)
			if err != nil {
				return err
			}
			return show(render.Gear(res))
		})
	},
}

var jobsetCmd = &cobra.Command{
	Use:   "jobset <crafter|gatherer|all> <ilvl> <server>",
	Short: "Price a full crafter or gatherer roster",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := ranking.ParseJobGroup(args[0])
		if err != nil {
			return err
		}
		ilvl, q, err := gearArgs(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[2], market.AnyScope)
			if err != nil {
				return err
			}
			res, err := a.Ranker.JobGroupSet(ctx, ilvl, server, group, q, byWorld)
			if err != nil {
				return err
			}
			return show(render.Gear(res))
		})
	},
}

var resellCmd = &cobra.Command{
	Use:   "resell <home world> <target server> <equipment|materia>",
	Short: "Find items to buy elsewhere and resell at home",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := ranking.ParseResellMode(args[2])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			home, err := lookup(a, args[0], market.ScopeWorld)
			if err != nil {
				return err
			}
			target, err := lookup(a, args[1], market.AnyScope)
			if err != nil {
				return err
			}
			res, err := a.Ranker.Resell(ctx, home, target, mode, limit)
			if err != nil {
				return err
			}
			return show(render.Resell(res))
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <item> <server>",
	Short: "Summarize recent sales of an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			server, err := lookup(a, args[1], market.AnyScope)
			if err != nil {
				return err
			}
			refs, err := a.Pricer.Resolve([]string{args[0]})
			if err != nil {
				return err
			}
			stats, err := a.Pricer.SaleStatsFor(ctx, refs[0], server, days)
			if err != nil {
				return err
			}
			return show(render.SaleStats(stats))
		})
	},
}

var serverCmd = &cobra.Command{
	Use:   "server <name>",
	Short: "Show whether a name is a world, data center or region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app.App) error {
			s, err := a.Topology.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", s.Name, s.Scope)
			return nil
		})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Run a chat command locally, e.g. chat '$ventures Excalibur'",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			msg, err := a.Bot.Handle(ctx, "cli", strings.Join(args, " "))
			if err != nil {
				fmt.Println(bot.Reply(err))
				return nil
			}
			if msg != nil {
				fmt.Println(msg.Text())
			}
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{venturesCmd, collectiblesCmd, scripsCmd, resellCmd} {
		cmd.Flags().IntVarP(&limit, "limit", "n", ranking.All, "number of results, 0 for all")
	}
	for _, cmd := range []*cobra.Command{venturesCmd, scripsCmd} {
		cmd.Flags().IntVar(&minVelocity, "min-velocity", 0, "minimum sales per day (default from tuning)")
	}
	for _, cmd := range []*cobra.Command{gearsetCmd, jobsetCmd} {
		cmd.Flags().StringVarP(&quality, "quality", "q", "hq", "listing quality: hq, nq or any")
	}
	jobsetCmd.Flags().BoolVar(&byWorld, "by-world", false, "group rows by the world to buy from")
	statsCmd.Flags().IntVar(&days, "days", 7, "days of history")
}

func lookup(a *app.App, name string, mask market.Scope) (string, error) {
	s, err := a.Topology.Lookup(name)
	if err != nil {
		return "", err
	}
	if !mask.Allows(s.Scope) {
		return "", fmt.Errorf("%s is a %s, expected a %s", s.Name, s.Scope, mask)
	}
	return s.Name, nil
}

func velocityFlag(cmd *cobra.Command, def int) int {
	if cmd.Flags().Changed("min-velocity") {
		return minVelocity
	}
	return def
}

func gearArgs(ilvlArg string) (int, universalis.Quality, error) {
	ilvl, err := strconv.Atoi(ilvlArg)
	if err != nil || ilvl <= 0 {
		return 0, 0, fmt.Errorf("ilvl must be a positive integer, got %q", ilvlArg)
	}
	switch strings.ToLower(quality) {
	case "hq":
		return ilvl, universalis.HQ, nil
	case "nq":
		return ilvl, universalis.NQ, nil
	case "any":
		return ilvl, universalis.AnyQuality, nil
	}
	return 0, 0, fmt.Errorf("quality must be hq, nq or any, got %q", quality)
}
