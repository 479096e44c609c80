package specification

import (
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VectorMatcher is implemented by specifications the in-memory vector store can evaluate.
// Specifications without it (ordering, pagination) are ignored there.
type VectorMatcher interface {
	MatchesVector(r *model.VectorRecord) bool
}

type ByProjectID struct {
	ProjectID uuid.UUID
}

func (s ByProjectID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ?", s.ProjectID)
}

func (s ByProjectID) MatchesVector(r *model.VectorRecord) bool {
	return r.ProjectId == s.ProjectID
}

type ByEntityType struct {
	EntityType entity.EntityType
}

func (s ByEntityType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("entity_type = ?", string(s.EntityType))
}

func (s ByEntityType) MatchesVector(r *model.VectorRecord) bool {
	return r.EntityType == string(s.EntityType)
}

// ByModel keeps rows embedded with the given model.
type ByModel struct {
	Model string
}

func (s ByModel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("model = ?", s.Model)
}

func (s ByModel) MatchesVector(r *model.VectorRecord) bool {
	return r.Model != nil && *r.Model == s.Model
}

// ByNaturalKey addresses the single row of one project entity.
type ByNaturalKey struct {
	ProjectID  uuid.UUID
	EntityType entity.EntityType
	EntityID   uuid.UUID
}

func (s ByNaturalKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ? AND entity_type = ? AND entity_id = ?", s.ProjectID, string(s.EntityType), s.EntityID)
}

func (s ByNaturalKey) MatchesVector(r *model.VectorRecord) bool {
	return r.ProjectId == s.ProjectID && r.EntityType == string(s.EntityType) && r.EntityId == s.EntityID
}
