package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"xivmarket/internal/models"
)

// File names inside the offline data directory.
const (
	VenturesFile     = "processed_combat_ventures.txt"
	CollectiblesFile = "processed_collectible_names.txt"
	RecipesFile      = "processed_collectible_recipes.txt"
	ScripRewardsFile = "processed_crafter_scrip_rewards.txt"
	ItemNamesFile    = "item_ids_to_names.txt"
)

// JSONSource reads the pre-processed JSON tables from a directory.
type JSONSource struct {
	Dir string
}

func (s JSONSource) Load(_ context.Context) (*Tables, error) {
	t := &Tables{}
	if err := readJSON(filepath.Join(s.Dir, VenturesFile), &t.Ventures); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(s.Dir, CollectiblesFile), &t.CollectibleTiers); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(s.Dir, RecipesFile), &t.Recipes); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(s.Dir, ScripRewardsFile), &t.ScripRewards); err != nil {
		return nil, err
	}

	// {"5116": {"en": "Darksteel Ore", "de": ...}, ...}
	var names map[string]map[string]string
	if err := readJSON(filepath.Join(s.Dir, ItemNamesFile), &names); err != nil {
		return nil, err
	}
	t.ItemNames = make(map[int]string, len(names))
	for key, langs := range names {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q in %s", key, ItemNamesFile)
		}
		if en := langs["en"]; en != "" {
			t.ItemNames[id] = en
		}
	}
	return t, nil
}

// WriteRecipes stores recipes in the layout JSONSource reads.
func WriteRecipes(path string, recipes []models.Recipe) error {
	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
