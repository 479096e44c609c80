package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/pkg/embedding"
	"ai-novelwriter-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "ENTITY_CHANGED"

func newTestIndexer(t *testing.T) (IIndexerService, *gochannel.GoChannel, *recordingInvalidator) {
	t.Helper()
	store, _ := newTestStore(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	invalidator := &recordingInvalidator{}
	indexer := NewIndexerService(pubSub, testTopic, store, invalidator, logger.NewNopLogger())
	return indexer, pubSub, invalidator
}

func TestIndexer_HandleEvent_UpsertCreatesThenUpdates(t *testing.T) {
	store, provider := newTestStore(t)
	invalidator := &recordingInvalidator{}
	indexer := NewIndexerService(nil, testTopic, store, invalidator, logger.NewNopLogger())
	ctx := context.Background()
	c := embeddable(uuid.New(), entity.EntityTypeLore, "The harbor floods at night.")

	require.NoError(t, indexer.HandleEvent(ctx, events.NewEntityUpserted(c, "")))
	record, err := store.Get(ctx, c.ProjectId, c.EntityType, c.EntityId)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []float32{0, 1, 0}, record.Embedding)

	c.Content = "A dragon sleeps under the harbor."
	require.NoError(t, indexer.HandleEvent(ctx, events.NewEntityUpserted(c, "")))
	record, err = store.Get(ctx, c.ProjectId, c.EntityType, c.EntityId)
	require.NoError(t, err)
	assert.Equal(t, c.Content, record.Content)
	assert.Equal(t, []float32{1, 0, 0}, record.Embedding)

	assert.Equal(t, 2, provider.Calls())
	assert.Equal(t, []uuid.UUID{c.ProjectId, c.ProjectId}, invalidator.Invalidated())
}

func TestIndexer_HandleEvent_Deletes(t *testing.T) {
	store, _ := newTestStore(t)
	indexer := NewIndexerService(nil, testTopic, store, nil, logger.NewNopLogger())
	ctx := context.Background()
	projectId := uuid.New()

	first := embeddable(projectId, entity.EntityTypeCharacter, "Mira")
	second := embeddable(projectId, entity.EntityTypeChapter, "Chapter one")
	for _, c := range []entity.EmbeddableContent{first, second} {
		_, err := store.GetOrCreate(ctx, c, "")
		require.NoError(t, err)
	}

	require.NoError(t, indexer.HandleEvent(ctx, events.NewEntityDeleted(projectId, first.EntityType, first.EntityId)))
	count, err := store.CountForProject(ctx, projectId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, indexer.HandleEvent(ctx, events.NewProjectDeleted(projectId)))
	count, err = store.CountForProject(ctx, projectId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestIndexer_HandleEvent_ErrorClassification(t *testing.T) {
	store, provider := newTestStore(t)
	indexer := NewIndexerService(nil, testTopic, store, nil, logger.NewNopLogger())
	ctx := context.Background()

	// Invalid events and content are dropped.
	assert.NoError(t, indexer.HandleEvent(ctx, events.BaseEvent{Type: "entity.renamed", Data: map[string]interface{}{}}))
	blank := embeddable(uuid.New(), entity.EntityTypeLore, "   ")
	assert.NoError(t, indexer.HandleEvent(ctx, events.NewEntityUpserted(blank, "")))

	// Provider outages are retried by the bus.
	provider.err = &embedding.StatusError{Provider: "test", StatusCode: 503}
	err := indexer.HandleEvent(ctx, events.NewEntityUpserted(embeddable(uuid.New(), entity.EntityTypeLore, "harbor"), ""))
	assert.Error(t, err)

	provider.err = &embedding.StatusError{Provider: "test", StatusCode: 400}
	assert.NoError(t, indexer.HandleEvent(ctx, events.NewEntityUpserted(embeddable(uuid.New(), entity.EntityTypeLore, "harbor"), "")))

	provider.err = errors.New("connection reset")
	assert.Error(t, indexer.HandleEvent(ctx, events.NewEntityUpserted(embeddable(uuid.New(), entity.EntityTypeLore, "harbor"), "")))
}

func TestIndexer_ConsumeFromPublisher(t *testing.T) {
	indexer, pubSub, invalidator := newTestIndexer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, indexer.Consume(ctx))

	publisher := NewPublisherService(testTopic, pubSub)
	c := embeddable(uuid.New(), entity.EntityTypeLocation, "Glass Harbor")
	require.NoError(t, publisher.Publish(ctx, events.NewEntityUpserted(c, "")))

	require.Eventually(t, func() bool {
		return len(invalidator.Invalidated()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, c.ProjectId, invalidator.Invalidated()[0])
}
