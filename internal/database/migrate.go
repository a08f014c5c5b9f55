package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// Migrate creates or updates the tables used by the API.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Settings{},
		&models.Class{},
		&models.Student{},
		&models.ScoreRecord{},
		&models.ScoreRow{},
		&models.FeeHead{},
		&models.Payment{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
