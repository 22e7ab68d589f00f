package models

import "strings"

// Item represents an FFXIV item as returned by an XIVAPI search
type Item struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
	URL     string `json:"url"`
	URLType string `json:"url_type"`
}

// CraftingClass is the crafting job that produces a recipe
type CraftingClass struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	ClassID      int    `json:"class_id"`
	IconURL      string `json:"icon_url"`
}

// Recipe is a craftable item with its ordered ingredient list.
// IngredientNames and Amounts are parallel slices.
type Recipe struct {
	Name            string   `json:"name"`
	Level           int      `json:"level"`
	CraftingClass   string   `json:"crafting_class"`
	IngredientNames []string `json:"ingredient_names"`
	Amounts         []int    `json:"amounts"`
}

// Ingredients returns the (name, amount) pairs of the recipe in order
func (r Recipe) Ingredients() []Ingredient {
	n := len(r.IngredientNames)
	if len(r.Amounts) < n {
		n = len(r.Amounts)
	}
	out := make([]Ingredient, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Ingredient{Name: r.IngredientNames[i], Amount: r.Amounts[i]})
	}
	return out
}

type Ingredient struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// PriceListing is a single market board listing or sale entry
type PriceListing struct {
	Quantity     int    `json:"quantity"`
	PricePerUnit int    `json:"pricePerUnit"`
	HQ           bool   `json:"hq"`
	WorldName    string `json:"worldName,omitempty"`
}

// Total is the gil value of the listing
func (l PriceListing) Total() int {
	return l.Quantity * l.PricePerUnit
}

// PriceQuote is the effective price of one item on a server scope
type PriceQuote struct {
	ItemID    int    `json:"item_id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	WorldName string `json:"world_name"`
}

// World is a single game server
type World struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DataCenter groups worlds
type DataCenter struct {
	Name   string `json:"name"`
	Region string `json:"region"`
	Worlds []int  `json:"worlds"`
}

// Region groups data centers
type Region struct {
	Name string   `json:"name" yaml:"name"`
	DCs  []string `json:"dcs" yaml:"dcs"`
}

// CurrencyAbbreviation shortens a currency name to its capitals,
// "White Crafters' Scrips" -> "W.C.S."
func CurrencyAbbreviation(currency string) string {
	var caps []string
	for _, r := range currency {
		if r >= 'A' && r <= 'Z' {
			caps = append(caps, string(r))
		}
	}
	return strings.Join(caps, ".") + "."
}
