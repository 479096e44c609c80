package entity

import (
	"time"

	"github.com/google/uuid"
)

// Project is the read-only aggregate the context extractor works on.
type Project struct {
	Id             uuid.UUID `validate:"required"`
	Title          string    `validate:"required"`
	Genre          string
	Synopsis       string
	Characters     []Character     `validate:"dive"`
	WorldEntries   []WorldEntry    `validate:"dive"`
	Chapters       []Chapter       `validate:"dive"`
	TimelineEvents []TimelineEvent `validate:"dive"`
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type Character struct {
	Id          uuid.UUID
	Name        string `validate:"required"`
	Role        string
	Description string
	Personality string
	Backstory   string
}

type WorldEntry struct {
	Id          uuid.UUID
	Name        string     `validate:"required"`
	Category    EntityType `validate:"required,oneof=location lore other"`
	Description string
}

type Chapter struct {
	Id        uuid.UUID
	Number    int    `validate:"gte=0"`
	Title     string `validate:"required"`
	Summary   string
	Content   string
	WordCount int
}

type TimelineEvent struct {
	Id          uuid.UUID
	Position    int
	Title       string `validate:"required"`
	Description string
	StoryTime   string
}
