package scope

import "gorm.io/gorm"

// Ordering scopes for preloaded project children.

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func OrderByChapterNumber(db *gorm.DB) *gorm.DB {
	return db.Order("number ASC").Order("created_at ASC")
}

func OrderByTimelinePosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}
