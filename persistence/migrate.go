package persistence

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// Migrate auto-migrates the models one by one and stops at the first failure.
func Migrate(db *gorm.DB, models ...interface{}) error {
	for _, model := range models {
		if err := db.AutoMigrate(model).Error; err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	logrus.Infof("database migrated, %d tables", len(models))
	return nil
}
