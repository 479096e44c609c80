package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VectorRecord stores the embedding as JSON text so rows written by different
// models (and dimensions) share one table.
type VectorRecord struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProjectId  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_vector_records_natural_key,priority:1"`
	EntityType string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_vector_records_natural_key,priority:2;index"`
	EntityId   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_vector_records_natural_key,priority:3"`
	Content    string         `gorm:"type:text"`
	Embedding  datatypes.JSON `gorm:"type:text"`
	Dimensions *int
	Model      *string   `gorm:"type:varchar(128);index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  *time.Time
}

func (VectorRecord) TableName() string {
	return "vector_records"
}
