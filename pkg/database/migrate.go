package database

import (
	"fmt"

	"gorm.io/gorm"

	"streamhub/pkg/models"
)

func Migrate(db *gorm.DB) error {
	for i, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate model %d (%T): %w", i, m, err)
		}
	}
	return nil
}
