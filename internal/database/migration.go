package database

import (
	"fmt"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Player{},
		&models.Pool{},
		&models.Square{},
		&models.Membership{},
		&models.LedgerEntry{},
		&models.Winner{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
