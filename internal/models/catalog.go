package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Venture is a retainer combat venture and the item it yields.
// Duration is in minutes.
type Venture struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:191;not null"`
	Amount    FlexInt   `json:"amount" gorm:"not null"`
	Level     FlexInt   `json:"level" gorm:"index"`
	Duration  FlexInt   `json:"duration" gorm:"not null"`
	CreatedAt time.Time `json:"-"`
}

// CollectibleTier is a group of collectibles sharing a level and a scrip reward
type CollectibleTier struct {
	ID        uint        `json:"-" gorm:"primaryKey"`
	Level     int         `json:"level" gorm:"index"`
	Reward    int         `json:"reward"`
	Currency  string      `json:"currency" gorm:"index;size:191"`
	Items     StringSlice `json:"items" gorm:"type:text"`
	CreatedAt time.Time   `json:"-"`
}

// ScripReward is an item purchasable with scrips
type ScripReward struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"index;size:191;not null"`
	Quantity  FlexInt   `json:"quantity"`
	Cost      FlexInt   `json:"cost"`
	Currency  string    `json:"currency" gorm:"index;size:191"`
	CreatedAt time.Time `json:"-"`
}

// RecipeRecord is the persisted form of a Recipe
type RecipeRecord struct {
	ID              uint        `gorm:"primaryKey"`
	Name            string      `gorm:"uniqueIndex;size:191;not null"`
	Level           int         `gorm:"index"`
	CraftingClass   string      `gorm:"size:64"`
	IngredientNames StringSlice `gorm:"type:text"`
	Amounts         IntSlice    `gorm:"type:text"`
	CreatedAt       time.Time
}

func (RecipeRecord) TableName() string { return "collectible_recipes" }

// Recipe converts the record to the domain type
func (r RecipeRecord) Recipe() Recipe {
	return Recipe{
		Name:            r.Name,
		Level:           r.Level,
		CraftingClass:   r.CraftingClass,
		IngredientNames: r.IngredientNames,
		Amounts:         r.Amounts,
	}
}

// ItemName maps an item ID to its English name
type ItemName struct {
	ItemID int    `gorm:"primaryKey;autoIncrement:false"`
	Name   string `gorm:"index;size:191;not null"`
}

// FlexInt decodes from either a JSON number or a numeric string.
// The offline catalog stores venture and reward numbers as strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int { return int(f) }

// StringSlice is stored as a JSON text column
type StringSlice []string

// IntSlice is stored as a JSON text column
type IntSlice []int

func marshalColumn(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
