package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"xivmarket/internal/catalog"
	"xivmarket/internal/database"
	"xivmarket/internal/logx"
	"xivmarket/internal/services/xivapi"
)

var (
	rebuildRecipes bool
	recipesOut     string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Maintain the offline game tables",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the JSON catalog into the MySQL database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := catalog.JSONSource{Dir: cfg.CatalogDir}.Load(ctx)
		if err != nil {
			return err
		}
		if rebuildRecipes {
			api := xivapi.NewXIVAPIService(cfg.XIVAPIURL, cfg.XIVAPIKey, cfg.HTTPTimeout(), cfg.RateLimitPerSecond, nil)
			if t.Recipes, err = catalog.RebuildRecipes(ctx, api, t.CollectibleTiers); err != nil {
				return err
			}
		}

		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := catalog.Import(ctx, db, t); err != nil {
			return err
		}
		logx.Info().
			Int("ventures", len(t.Ventures)).
			Int("tiers", len(t.CollectibleTiers)).
			Int("recipes", len(t.Recipes)).
			Int("scrip_rewards", len(t.ScripRewards)).
			Int("item_names", len(t.ItemNames)).
			Msg("catalog imported")
		fmt.Printf("Imported %s item names\n", humanize.Comma(int64(len(t.ItemNames))))
		return nil
	},
}

var catalogRecipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Rebuild the collectible recipe file from XIVAPI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := catalog.JSONSource{Dir: cfg.CatalogDir}.Load(ctx)
		if err != nil {
			return err
		}
		api := xivapi.NewXIVAPIService(cfg.XIVAPIURL, cfg.XIVAPIKey, cfg.HTTPTimeout(), cfg.RateLimitPerSecond, nil)
		recipes, err := catalog.RebuildRecipes(ctx, api, t.CollectibleTiers)
		if err != nil {
			return err
		}

		out := recipesOut
		if out == "" {
			out = filepath.Join(cfg.CatalogDir, catalog.RecipesFile)
		}
		if err := catalog.WriteRecipes(out, recipes); err != nil {
			return err
		}
		fmt.Printf("Wrote %d recipes to %s\n", len(recipes), out)
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().BoolVar(&rebuildRecipes, "recipes", false, "refetch recipes from XIVAPI before importing")
	catalogRecipesCmd.Flags().StringVarP(&recipesOut, "out", "o", "", "output file (default: the recipe file in CATALOG_DIR)")
	catalogCmd.AddCommand(catalogImportCmd, catalogRecipesCmd)
}
