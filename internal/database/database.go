package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"xivmarket/internal/logx"
	"xivmarket/internal/models"
)

// Initialize opens the catalog database and brings its schema up to date.
func Initialize(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the mysql catalog")
	}

	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logx.Info().Msg("database initialized")
	return db, nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Venture{},
		&models.CollectibleTier{},
		&models.ScripReward{},
		&models.RecipeRecord{},
		&models.ItemName{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate catalog tables: %w", err)
	}
	return nil
}
