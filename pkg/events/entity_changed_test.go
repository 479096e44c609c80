package events

import (
	"testing"
	"time"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityChanged_FromWirePayload(t *testing.T) {
	original := NewEntityUpserted(entity.EmbeddableContent{
		ProjectId:  uuid.New(),
		EntityType: entity.EntityTypeCharacter,
		EntityId:   uuid.New(),
		Content:    "Mira, a cartographer.",
	}, "nomic-embed-text")

	// NATS rebuilds events with the subject as type and the decoded JSON payload.
	wire := BaseEvent{
		Type:       SubjectPrefix + original.EventType(),
		Data:       original.Payload(),
		OccurredAt: time.Now(),
	}

	parsed, err := ParseEntityChanged(wire)
	require.NoError(t, err)
	assert.Equal(t, original.ProjectId, parsed.ProjectId)
	assert.Equal(t, original.EntityId, parsed.EntityId)
	assert.Equal(t, original.Embeddable(), parsed.Embeddable())
	assert.Equal(t, "nomic-embed-text", parsed.Model)
	assert.Equal(t, TypeEntityUpserted, parsed.Type)
}

func TestParseEntityChanged_TypeFromSubject(t *testing.T) {
	projectId := uuid.New()
	wire := BaseEvent{
		Type:       SubjectPrefix + TypeProjectDeleted,
		Data:       map[string]interface{}{"project_id": projectId.String()},
		OccurredAt: time.Now(),
	}

	parsed, err := ParseEntityChanged(wire)
	require.NoError(t, err)
	assert.Equal(t, TypeProjectDeleted, parsed.Type)
	assert.Equal(t, projectId, parsed.ProjectId)
	assert.False(t, parsed.OccurredAt.IsZero())
}

func TestEntityChanged_Validate(t *testing.T) {
	projectId := uuid.New()

	tests := []struct {
		name    string
		event   EntityChanged
		wantErr bool
	}{
		{"upsert", NewEntityUpserted(entity.EmbeddableContent{ProjectId: projectId, EntityType: entity.EntityTypeLore, EntityId: uuid.New(), Content: "x"}, ""), false},
		{"delete", NewEntityDeleted(projectId, entity.EntityTypeChapter, uuid.New()), false},
		{"project delete", NewProjectDeleted(projectId), false},
		{"missing project", NewProjectDeleted(uuid.Nil), true},
		{"bad entity type", NewEntityDeleted(projectId, entity.EntityType("planet"), uuid.New()), true},
		{"unknown type", EntityChanged{Type: "entity.renamed", ProjectId: projectId}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEvent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeEntityChanged(t *testing.T) {
	_, err := DecodeEntityChanged([]byte("not-json"))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	projectId := uuid.New()
	parsed, err := DecodeEntityChanged([]byte(`{"type":"entity.project_deleted","project_id":"` + projectId.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, projectId, parsed.ProjectId)
}
