package database

import (
	"ai-novelwriter-be/internal/model"

	"gorm.io/gorm"
)

// Migrate creates the vector table and the project tables it is read alongside.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Project{},
		&model.Character{},
		&model.WorldEntry{},
		&model.Chapter{},
		&model.TimelineEvent{},
		&model.VectorRecord{},
	)
}
