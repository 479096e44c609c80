package dto

import (
	"time"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
)

type UpsertVectorRequest struct {
	ProjectId  uuid.UUID
	EntityType entity.EntityType `json:"entity_type" validate:"required,oneof=chapter character location lore other"`
	EntityId   uuid.UUID         `json:"entity_id" validate:"required"`
	Content    string            `json:"content" validate:"required"`
	Model      string            `json:"model"`
}

func (r *UpsertVectorRequest) Embeddable() entity.EmbeddableContent {
	return entity.EmbeddableContent{
		ProjectId:  r.ProjectId,
		EntityType: r.EntityType,
		EntityId:   r.EntityId,
		Content:    r.Content,
	}
}

type BatchUpsertVectorRequest struct {
	ProjectId uuid.UUID
	Model     string                `json:"model"`
	Items     []UpsertVectorRequest `json:"items" validate:"required,min=1,dive"`
}

// VectorRecordResponse leaves the embedding out unless asked for.
type VectorRecordResponse struct {
	Id         uuid.UUID         `json:"id"`
	ProjectId  uuid.UUID         `json:"project_id"`
	EntityType entity.EntityType `json:"entity_type"`
	EntityId   uuid.UUID         `json:"entity_id"`
	Content    string            `json:"content"`
	Dimensions int               `json:"dimensions"`
	Model      string            `json:"model"`
	Embedding  []float32         `json:"embedding,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type BatchFailureResponse struct {
	Index      int               `json:"index"`
	EntityType entity.EntityType `json:"entity_type"`
	EntityId   uuid.UUID         `json:"entity_id"`
	Error      string            `json:"error"`
}

type BatchUpsertVectorResponse struct {
	Records  []*VectorRecordResponse `json:"records"`
	Failures []BatchFailureResponse  `json:"failures"`
}

type CountVectorResponse struct {
	Count int64 `json:"count"`
}

type ExistsVectorResponse struct {
	Exists bool `json:"exists"`
}

type SemanticSearchRequest struct {
	ProjectId  *uuid.UUID         `json:"project_id"`
	EntityType *entity.EntityType `json:"entity_type" validate:"omitempty,oneof=chapter character location lore other"`
	Query      string             `json:"query" validate:"required"`
	Threshold  *float64           `json:"threshold" validate:"omitempty,gte=-1,lte=1"`
	Limit      int                `json:"limit" validate:"gte=0,lte=100"`
	Model      string             `json:"model"`
}

type SemanticSearchResponse struct {
	Results []entity.SimilarityResult `json:"results"`
}

// EntityEventRequest queues a vector refresh through the event bus.
type EntityEventRequest struct {
	ProjectId  uuid.UUID
	Type       string            `json:"type" validate:"required,oneof=entity.upserted entity.deleted entity.project_deleted"`
	EntityType entity.EntityType `json:"entity_type"`
	EntityId   uuid.UUID         `json:"entity_id"`
	Content    string            `json:"content"`
	Model      string            `json:"model"`
}
