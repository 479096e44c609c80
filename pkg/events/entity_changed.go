package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
)

const (
	TypeEntityUpserted = "entity.upserted"
	TypeEntityDeleted  = "entity.deleted"
	TypeProjectDeleted = "entity.project_deleted"

	// SubjectPrefix is prepended to event types on NATS subjects.
	SubjectPrefix = "events."
)

var ErrUnknownEvent = errors.New("unknown entity event")

// EntityChanged reports that a story entity was written or removed, so its
// vector can be refreshed.
type EntityChanged struct {
	Type       string            `json:"type"`
	ProjectId  uuid.UUID         `json:"project_id"`
	EntityType entity.EntityType `json:"entity_type,omitempty"`
	EntityId   uuid.UUID         `json:"entity_id"`
	Content    string            `json:"content,omitempty"`
	Model      string            `json:"model,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEntityUpserted(c entity.EmbeddableContent, model string) EntityChanged {
	return EntityChanged{
		Type:       TypeEntityUpserted,
		ProjectId:  c.ProjectId,
		EntityType: c.EntityType,
		EntityId:   c.EntityId,
		Content:    c.Content,
		Model:      model,
		OccurredAt: time.Now(),
	}
}

func NewEntityDeleted(projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) EntityChanged {
	return EntityChanged{
		Type:       TypeEntityDeleted,
		ProjectId:  projectId,
		EntityType: entityType,
		EntityId:   entityId,
		OccurredAt: time.Now(),
	}
}

func NewProjectDeleted(projectId uuid.UUID) EntityChanged {
	return EntityChanged{
		Type:       TypeProjectDeleted,
		ProjectId:  projectId,
		OccurredAt: time.Now(),
	}
}

func (e EntityChanged) EventType() string {
	return e.Type
}

func (e EntityChanged) Payload() map[string]interface{} {
	return map[string]interface{}{
		"type":        e.Type,
		"project_id":  e.ProjectId.String(),
		"entity_type": string(e.EntityType),
		"entity_id":   e.EntityId.String(),
		"content":     e.Content,
		"model":       e.Model,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e EntityChanged) Timestamp() time.Time {
	return e.OccurredAt
}

// Embeddable returns the content carried by an upsert.
func (e EntityChanged) Embeddable() entity.EmbeddableContent {
	return entity.EmbeddableContent{
		ProjectId:  e.ProjectId,
		EntityType: e.EntityType,
		EntityId:   e.EntityId,
		Content:    e.Content,
	}
}

// Validate checks the fields each event type needs.
func (e EntityChanged) Validate() error {
	if e.ProjectId == uuid.Nil {
		return fmt.Errorf("%w: missing project id", ErrUnknownEvent)
	}
	switch e.Type {
	case TypeProjectDeleted:
		return nil
	case TypeEntityUpserted, TypeEntityDeleted:
		if !e.EntityType.Valid() || e.EntityId == uuid.Nil {
			return fmt.Errorf("%w: %s needs entity type and id", ErrUnknownEvent, e.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

// ParseEntityChanged rebuilds an EntityChanged from any Event. A subject style
// type such as "events.entity.deleted" is accepted.
func ParseEntityChanged(ev Event) (EntityChanged, error) {
	if typed, ok := ev.(EntityChanged); ok {
		return typed, typed.Validate()
	}

	raw, err := json.Marshal(ev.Payload())
	if err != nil {
		return EntityChanged{}, fmt.Errorf("failed to encode event payload: %w", err)
	}
	var out EntityChanged
	if err := json.Unmarshal(raw, &out); err != nil {
		return EntityChanged{}, fmt.Errorf("%w: %v", ErrUnknownEvent, err)
	}
	if out.Type == "" {
		out.Type = strings.TrimPrefix(ev.EventType(), SubjectPrefix)
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = ev.Timestamp()
	}
	return out, out.Validate()
}

// DecodeEntityChanged reads the JSON form carried in watermill messages.
func DecodeEntityChanged(data []byte) (EntityChanged, error) {
	var out EntityChanged
	if err := json.Unmarshal(data, &out); err != nil {
		return EntityChanged{}, fmt.Errorf("%w: %v", ErrUnknownEvent, err)
	}
	return out, out.Validate()
}
