package service

import (
	"context"
	"sync"
	"testing"

	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/pkg/events"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestMemoryService(t *testing.T) (IMemoryService, *capturingPublisher, *recordingInvalidator) {
	t.Helper()
	store, _ := newTestStore(t)
	publisher := &capturingPublisher{}
	invalidator := &recordingInvalidator{}
	return NewMemoryService(store, publisher, invalidator, 0.4, 10), publisher, invalidator
}

func TestMemoryService_GetOrCreateShowDelete(t *testing.T) {
	svc, _, invalidator := newTestMemoryService(t)
	ctx := context.Background()
	req := &dto.UpsertVectorRequest{
		ProjectId:  uuid.New(),
		EntityType: entity.EntityTypeCharacter,
		EntityId:   uuid.New(),
		Content:    "Mira, a cartographer of the harbor.",
	}

	created, err := svc.GetOrCreate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, created.Dimensions)
	assert.Equal(t, testModel, created.Model)
	assert.Nil(t, created.Embedding)

	shown, err := svc.Show(ctx, req.ProjectId, req.EntityType, req.EntityId, true)
	require.NoError(t, err)
	assert.Equal(t, created.Id, shown.Id)
	assert.Equal(t, []float32{0, 1, 0}, shown.Embedding)

	exists, err := svc.Exists(ctx, req.ProjectId, req.EntityType, req.EntityId)
	require.NoError(t, err)
	assert.True(t, exists.Exists)

	require.NoError(t, svc.Delete(ctx, req.ProjectId, req.EntityType, req.EntityId))
	_, err = svc.Show(ctx, req.ProjectId, req.EntityType, req.EntityId, false)
	assert.ErrorIs(t, err, vectorstore.ErrRecordNotFound)

	assert.Len(t, invalidator.Invalidated(), 2)
}

func TestMemoryService_BatchCreateReportsFailures(t *testing.T) {
	svc, _, _ := newTestMemoryService(t)
	projectId := uuid.New()

	res, err := svc.BatchCreate(context.Background(), &dto.BatchUpsertVectorRequest{
		ProjectId: projectId,
		Items: []dto.UpsertVectorRequest{
			{EntityType: entity.EntityTypeChapter, EntityId: uuid.New(), Content: "The dragon wakes."},
			{EntityType: entity.EntityTypeChapter, EntityId: uuid.New(), Content: "  "},
			{EntityType: entity.EntityTypeLore, EntityId: uuid.New(), Content: "Harbor law."},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	for _, r := range res.Records {
		assert.Equal(t, projectId, r.ProjectId)
	}

	count, err := svc.Count(context.Background(), projectId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)
}

func TestMemoryService_SearchAndList(t *testing.T) {
	svc, _, _ := newTestMemoryService(t)
	ctx := context.Background()
	projectId := uuid.New()

	for _, item := range []struct {
		entityType entity.EntityType
		content    string
	}{
		{entity.EntityTypeChapter, "A dragon over the city."},
		{entity.EntityTypeLore, "Dragon fire cannot melt glass."},
		{entity.EntityTypeLocation, "The harbor."},
	} {
		_, err := svc.GetOrCreate(ctx, &dto.UpsertVectorRequest{ProjectId: projectId, EntityType: item.entityType, EntityId: uuid.New(), Content: item.content})
		require.NoError(t, err)
	}

	res, err := svc.Search(ctx, &dto.SemanticSearchRequest{ProjectId: &projectId, Query: "dragon"})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.InDelta(t, 1.0, r.Similarity, 1e-6)
	}

	lore := entity.EntityTypeLore
	res, err = svc.Search(ctx, &dto.SemanticSearchRequest{ProjectId: &projectId, EntityType: &lore, Query: "dragon", Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, entity.EntityTypeLore, res.Results[0].EntityType)

	all, err := svc.GetAll(ctx, projectId, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byType, err := svc.GetAll(ctx, projectId, &lore)
	require.NoError(t, err)
	assert.Len(t, byType, 1)
}

func TestMemoryService_Enqueue(t *testing.T) {
	svc, publisher, _ := newTestMemoryService(t)
	projectId := uuid.New()

	err := svc.Enqueue(context.Background(), &dto.EntityEventRequest{
		ProjectId:  projectId,
		Type:       events.TypeEntityUpserted,
		EntityType: entity.EntityTypeCharacter,
		EntityId:   uuid.New(),
		Content:    "Oren",
	})
	require.NoError(t, err)

	err = svc.Enqueue(context.Background(), &dto.EntityEventRequest{ProjectId: projectId, Type: events.TypeEntityDeleted})
	assert.ErrorIs(t, err, events.ErrUnknownEvent)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TypeEntityUpserted, publisher.events[0].EventType())
}
