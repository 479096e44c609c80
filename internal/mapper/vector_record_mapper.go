package mapper

import (
	"encoding/json"
	"time"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/model"
	"ai-novelwriter-be/internal/pkg/logger"

	"gorm.io/datatypes"
)

const mapperModule = "VectorRecordMapper"

// VectorRecordMapper is the only place nullable vector columns get their defaults.
type VectorRecordMapper struct {
	log logger.ILogger
}

func NewVectorRecordMapper(log logger.ILogger) *VectorRecordMapper {
	return &VectorRecordMapper{log: log}
}

func (m *VectorRecordMapper) ToEntity(e *model.VectorRecord) *entity.VectorRecord {
	if e == nil {
		return nil
	}

	values := m.decodeEmbedding(e)

	// Dimensions always follow the decoded vector.
	if e.Dimensions != nil && *e.Dimensions != len(values) && len(values) > 0 {
		m.log.Warn(mapperModule, "Stored dimensions disagree with embedding length", map[string]interface{}{
			"id":         e.Id.String(),
			"stored":     *e.Dimensions,
			"actual":     len(values),
			"entityType": e.EntityType,
		})
	}

	modelName := entity.UnknownModel
	if e.Model != nil && *e.Model != "" {
		modelName = *e.Model
	}

	updatedAt := e.CreatedAt
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &entity.VectorRecord{
		Id:         e.Id,
		ProjectId:  e.ProjectId,
		EntityType: entity.EntityType(e.EntityType),
		EntityId:   e.EntityId,
		Content:    e.Content,
		Embedding:  values,
		Dimensions: len(values),
		Model:      modelName,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

// decodeEmbedding degrades unreadable JSON to an empty vector so one bad row
// cannot abort a listing or a search.
func (m *VectorRecordMapper) decodeEmbedding(e *model.VectorRecord) []float32 {
	values := []float32{}
	if len(e.Embedding) == 0 {
		return values
	}
	if err := json.Unmarshal(e.Embedding, &values); err != nil {
		m.log.Warn(mapperModule, "Corrupt embedding payload, using empty vector", map[string]interface{}{
			"id":        e.Id.String(),
			"projectId": e.ProjectId.String(),
			"entityId":  e.EntityId.String(),
			"error":     err.Error(),
		})
		return []float32{}
	}
	return values
}

func (m *VectorRecordMapper) ToModel(e *entity.VectorRecord) *model.VectorRecord {
	if e == nil {
		return nil
	}

	payload, err := json.Marshal(e.Embedding)
	if err != nil {
		// float32 slices only fail on NaN/Inf.
		m.log.Error(mapperModule, "Failed to encode embedding", map[string]interface{}{
			"id":    e.Id.String(),
			"error": err.Error(),
		})
		payload = []byte("[]")
	}

	dims := len(e.Embedding)
	modelName := e.Model

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &model.VectorRecord{
		Id:         e.Id,
		ProjectId:  e.ProjectId,
		EntityType: string(e.EntityType),
		EntityId:   e.EntityId,
		Content:    e.Content,
		Embedding:  datatypes.JSON(payload),
		Dimensions: &dims,
		Model:      &modelName,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *VectorRecordMapper) ToEntities(records []*model.VectorRecord) []*entity.VectorRecord {
	entities := make([]*entity.VectorRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
