// Package catalog serves the static game tables the rankings start from:
// ventures, collectible tiers and their recipes, scrip rewards and the item
// name table. The tables are loaded once by Init and are read-only afterwards.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"xivmarket/internal/errx"
	"xivmarket/internal/models"
)

// Tables is everything a Source provides.
type Tables struct {
	Ventures         []models.Venture
	CollectibleTiers []models.CollectibleTier
	Recipes          []models.Recipe
	ScripRewards     []models.ScripReward
	ItemNames        map[int]string
}

// Source loads the raw tables.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
}

// Repository is the read side used by the rankings.
type Repository interface {
	Ventures() []models.Venture
	CollectibleTiers(currency string) []models.CollectibleTier
	Recipe(name string) (models.Recipe, error)
	ScripRewards(currency string) []models.ScripReward
	ItemID(name string) (int, error)
	ItemName(id int) (string, error)
}

var ErrNotInitialized = errors.New("catalog not initialized")

type Catalog struct {
	source Source
	tables *Tables

	recipesByName map[string]models.Recipe
	idsByName     map[string]int
}

func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// NewFromTables builds an initialized catalog around tables already in memory.
func NewFromTables(t *Tables) *Catalog {
	c := &Catalog{}
	c.index(t)
	return c
}

// Init loads the tables from the source. It must be called before any lookup.
func (c *Catalog) Init(ctx context.Context) error {
	if c.source == nil {
		return ErrNotInitialized
	}
	t, err := c.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	c.index(t)
	return nil
}

func (c *Catalog) index(t *Tables) {
	if t.ItemNames == nil {
		t.ItemNames = map[int]string{}
	}
	c.tables = t
	c.recipesByName = make(map[string]models.Recipe, len(t.Recipes))
	for _, r := range t.Recipes {
		key := normalize(r.Name)
		if _, dup := c.recipesByName[key]; !dup {
			c.recipesByName[key] = r
		}
	}
	c.idsByName = make(map[string]int, len(t.ItemNames))
	for id, name := range t.ItemNames {
		key := normalize(name)
		// Several IDs can share an English name; the lowest one is the tradeable item.
		if prev, dup := c.idsByName[key]; !dup || id < prev {
			c.idsByName[key] = id
		}
	}
}

func (c *Catalog) Initialized() bool {
	return c.tables != nil
}

func (c *Catalog) Tables() *Tables {
	return c.tables
}

func (c *Catalog) Ventures() []models.Venture {
	if c.tables == nil {
		return nil
	}
	return c.tables.Ventures
}

// CollectibleTiers returns the tiers paying out in currency, case-insensitive.
func (c *Catalog) CollectibleTiers(currency string) []models.CollectibleTier {
	if c.tables == nil {
		return nil
	}
	var out []models.CollectibleTier
	for _, t := range c.tables.CollectibleTiers {
		if strings.EqualFold(t.Currency, currency) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Recipe(name string) (models.Recipe, error) {
	if c.tables == nil {
		return models.Recipe{}, ErrNotInitialized
	}
	r, ok := c.recipesByName[normalize(name)]
	if !ok {
		return models.Recipe{}, errx.NotFound("recipe for %s", name)
	}
	return r, nil
}

// ScripRewards returns the rewards bought with currency, case-insensitive.
func (c *Catalog) ScripRewards(currency string) []models.ScripReward {
	if c.tables == nil {
		return nil
	}
	var out []models.ScripReward
	for _, r := range c.tables.ScripRewards {
		if strings.EqualFold(r.Currency, currency) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Catalog) ItemID(name string) (int, error) {
	if c.tables == nil {
		return 0, ErrNotInitialized
	}
	id, ok := c.idsByName[normalize(name)]
	if !ok {
		return 0, errx.NotFound("item %q", strings.TrimSpace(name))
	}
	return id, nil
}

func (c *Catalog) ItemName(id int) (string, error) {
	if c.tables == nil {
		return "", ErrNotInitialized
	}
	name, ok := c.tables.ItemNames[id]
	if !ok {
		return "", errx.NotFound("item %d", id)
	}
	return name, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
