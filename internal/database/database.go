package database

import (
	"fmt"
	"log"

	"prediction-market/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs migrations for every model the settlement core touches.
func AutoMigrate() error {
	tables := []interface{}{
		&models.User{},
		&models.Duel{},
		&models.DuelTransaction{},
		&models.DuelStatistics{},
		&models.DuelResult{},
		&models.DuelPriceCandle{},
		&models.AMMPool{},
		&models.AMMTrade{},
		&models.PriceCandle{},
	}

	for _, table := range tables {
		if err := DB.AutoMigrate(table); err != nil {
			return fmt.Errorf("migrate %T: %w", table, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
