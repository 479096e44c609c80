package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of project entities that can be embedded.
type EntityType string

const (
	EntityTypeChapter   EntityType = "chapter"
	EntityTypeCharacter EntityType = "character"
	EntityTypeLocation  EntityType = "location"
	EntityTypeLore      EntityType = "lore"
	EntityTypeOther     EntityType = "other"
)

// UnknownModel marks rows persisted before the model column existed.
// Such rows are never compared against fresh embeddings.
const UnknownModel = "unknown"

func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeChapter, EntityTypeCharacter, EntityTypeLocation, EntityTypeLore, EntityTypeOther:
		return true
	}
	return false
}

func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// ContextBucket is a section of the prompt context snapshot.
type ContextBucket int

const (
	BucketCharacters ContextBucket = iota
	BucketWorldBuilding
	BucketTimeline
	BucketChapters
)

// Bucket returns the snapshot section an entity of this type belongs to.
// Timeline events are never embedded, so no type maps to BucketTimeline.
func (t EntityType) Bucket() (ContextBucket, bool) {
	switch t {
	case EntityTypeCharacter:
		return BucketCharacters, true
	case EntityTypeLocation, EntityTypeLore, EntityTypeOther:
		return BucketWorldBuilding, true
	case EntityTypeChapter:
		return BucketChapters, true
	}
	return 0, false
}

// VectorRecord is the embedding of one project entity, keyed by
// (ProjectId, EntityType, EntityId).
type VectorRecord struct {
	Id         uuid.UUID
	ProjectId  uuid.UUID
	EntityType EntityType
	EntityId   uuid.UUID
	Content    string
	Embedding  []float32
	Dimensions int
	Model      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmbeddableContent is the text of an entity waiting to be embedded.
type EmbeddableContent struct {
	ProjectId  uuid.UUID
	EntityType EntityType
	EntityId   uuid.UUID
	Content    string
}

type SimilarityResult struct {
	Id         uuid.UUID  `json:"id"`
	ProjectId  uuid.UUID  `json:"project_id"`
	EntityType EntityType `json:"entity_type"`
	EntityId   uuid.UUID  `json:"entity_id"`
	Content    string     `json:"content"`
	Similarity float64    `json:"similarity"`
}
