package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"xivmarket/internal/models"
)

// GormSource reads the catalog tables from a database.
type GormSource struct {
	DB *gorm.DB
}

func (s GormSource) Load(ctx context.Context) (*Tables, error) {
	db := s.DB.WithContext(ctx)
	t := &Tables{}

	if err := db.Order("id").Find(&t.Ventures).Error; err != nil {
		return nil, fmt.Errorf("failed to load ventures: %w", err)
	}
	if err := db.Order("id").Find(&t.CollectibleTiers).Error; err != nil {
		return nil, fmt.Errorf("failed to load collectible tiers: %w", err)
	}
	if err := db.Order("id").Find(&t.ScripRewards).Error; err != nil {
		return nil, fmt.Errorf("failed to load scrip rewards: %w", err)
	}

	var recipes []models.RecipeRecord
	if err := db.Order("id").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	t.Recipes = make([]models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		t.Recipes = append(t.Recipes, r.Recipe())
	}

	var names []models.ItemName
	if err := db.Find(&names).Error; err != nil {
		return nil, fmt.Errorf("failed to load item names: %w", err)
	}
	t.ItemNames = make(map[int]string, len(names))
	for _, n := range names {
		t.ItemNames[n.ItemID] = n.Name
	}
	return t, nil
}

// Import replaces the catalog tables in db with t inside one transaction.
// Item names are upserted in batches since the table is large.
func Import(ctx context.Context, db *gorm.DB, t *Tables) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Venture{}, &models.CollectibleTier{}, &models.ScripReward{}, &models.RecipeRecord{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		if len(t.Ventures) > 0 {
			if err := tx.Create(&t.Ventures).Error; err != nil {
				return fmt.Errorf("failed to import ventures: %w", err)
			}
		}
		if len(t.CollectibleTiers) > 0 {
			if err := tx.Create(&t.CollectibleTiers).Error; err != nil {
				return fmt.Errorf("failed to import collectible tiers: %w", err)
			}
		}
		if len(t.ScripRewards) > 0 {
			if err := tx.Create(&t.ScripRewards).Error; err != nil {
				return fmt.Errorf("failed to import scrip rewards: %w", err)
			}
		}
		if len(t.Recipes) > 0 {
			records := make([]models.RecipeRecord, 0, len(t.Recipes))
			for _, r := range t.Recipes {
				records = append(records, models.RecipeRecord{
					Name:            r.Name,
					Level:           r.Level,
					CraftingClass:   r.CraftingClass,
					IngredientNames: r.IngredientNames,
					Amounts:         r.Amounts,
				})
			}
			if err := tx.Create(&records).Error; err != nil {
				return fmt.Errorf("failed to import recipes: %w", err)
			}
		}

		if len(t.ItemNames) > 0 {
			names := make([]models.ItemName, 0, len(t.ItemNames))
			for id, name := range t.ItemNames {
				names = append(names, models.ItemName{ItemID: id, Name: name})
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "item_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name"}),
			}).CreateInBatches(&names, 1000).Error
			if err != nil {
				return fmt.Errorf("failed to import item names: %w", err)
			}
		}
		return nil
	})
}
