package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The project tables are owned by the writing app's CRUD layer.
// They are mapped here read-only.

type Project struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title          string
	Genre          string
	Synopsis       string          `gorm:"type:text"`
	Characters     []Character     `gorm:"foreignKey:ProjectId"`
	WorldEntries   []WorldEntry    `gorm:"foreignKey:ProjectId"`
	Chapters       []Chapter       `gorm:"foreignKey:ProjectId"`
	TimelineEvents []TimelineEvent `gorm:"foreignKey:ProjectId"`
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Project) TableName() string {
	return "projects"
}

type Character struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId   uuid.UUID `gorm:"type:uuid;index"`
	Name        string
	Role        *string
	Description *string `gorm:"type:text"`
	Personality *string `gorm:"type:text"`
	Backstory   *string `gorm:"type:text"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Character) TableName() string {
	return "characters"
}

type WorldEntry struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId   uuid.UUID `gorm:"type:uuid;index"`
	Name        string
	Category    *string
	Description *string `gorm:"type:text"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (WorldEntry) TableName() string {
	return "world_entries"
}

type Chapter struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId uuid.UUID `gorm:"type:uuid;index"`
	Number    int
	Title     string
	Summary   *string `gorm:"type:text"`
	Content   *string `gorm:"type:text"`
	WordCount *int
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Chapter) TableName() string {
	return "chapters"
}

type TimelineEvent struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId   uuid.UUID `gorm:"type:uuid;index"`
	Position    int
	Title       string
	Description *string `gorm:"type:text"`
	StoryTime   *string
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (TimelineEvent) TableName() string {
	return "timeline_events"
}
