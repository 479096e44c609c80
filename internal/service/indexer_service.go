package service

import (
	"context"
	"errors"

	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/pkg/embedding"
	"ai-novelwriter-be/pkg/events"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const indexerModule = "Indexer"

// ContextInvalidator drops cached context of a project.
type ContextInvalidator interface {
	InvalidateProject(ctx context.Context, projectId uuid.UUID)
}

// IIndexerService keeps stored vectors in step with entity change events.
type IIndexerService interface {
	Consume(ctx context.Context) error
	HandleEvent(ctx context.Context, event events.Event) error
}

type indexerService struct {
	subscriber  message.Subscriber
	topicName   string
	store       *vectorstore.Store
	invalidator ContextInvalidator
	log         logger.ILogger
}

func NewIndexerService(
	subscriber message.Subscriber,
	topicName string,
	store *vectorstore.Store,
	invalidator ContextInvalidator,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		subscriber:  subscriber,
		topicName:   topicName,
		store:       store,
		invalidator: invalidator,
		log:         log,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.DecodeEntityChanged(msg.Payload)
	if err != nil {
		s.log.Error(indexerModule, "Dropping invalid entity event", map[string]interface{}{
			"messageId": msg.UUID,
			"error":     err.Error(),
		})
		msg.Ack()
		return
	}

	if err := s.apply(ctx, event); err != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

// HandleEvent applies one event. Only errors worth a redelivery are returned.
func (s *indexerService) HandleEvent(ctx context.Context, event events.Event) error {
	parsed, err := events.ParseEntityChanged(event)
	if err != nil {
		s.log.Error(indexerModule, "Dropping invalid entity event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return nil
	}
	return s.apply(ctx, parsed)
}

func (s *indexerService) apply(ctx context.Context, event events.EntityChanged) error {
	details := map[string]interface{}{
		"type":       event.Type,
		"projectId":  event.ProjectId.String(),
		"entityType": string(event.EntityType),
		"entityId":   event.EntityId.String(),
	}

	var err error
	switch event.Type {
	case events.TypeEntityUpserted:
		_, err = s.store.Update(ctx, event.Embeddable(), event.Model)
		if errors.Is(err, vectorstore.ErrRecordNotFound) {
			_, err = s.store.GetOrCreate(ctx, event.Embeddable(), event.Model)
		}
	case events.TypeEntityDeleted:
		err = s.store.Delete(ctx, event.ProjectId, event.EntityType, event.EntityId)
	case events.TypeProjectDeleted:
		err = s.store.DeleteAllForProject(ctx, event.ProjectId)
	}

	if err != nil {
		details["error"] = err.Error()
		if isPermanentIndexError(err) {
			s.log.Error(indexerModule, "Entity event rejected", details)
			return nil
		}
		s.log.Warn(indexerModule, "Entity event failed", details)
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProject(ctx, event.ProjectId)
	}
	s.log.Info(indexerModule, "Entity event applied", details)
	return nil
}

func isPermanentIndexError(err error) bool {
	if errors.Is(err, vectorstore.ErrInvalidContent) ||
		errors.Is(err, vectorstore.ErrStoreUnavailable) ||
		errors.Is(err, embedding.ErrEmptyText) {
		return true
	}
	var statusErr *embedding.StatusError
	return errors.As(err, &statusErr) && !statusErr.Temporary()
}
