package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/rasconsole/internal/models"
)

// AutoMigrate creates or updates the UI state schema.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	return db.AutoMigrate(
		&models.UIStateEntry{},
		&models.StateMeta{},
	)
}
