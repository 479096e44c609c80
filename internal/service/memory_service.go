package service

import (
	"context"
	"errors"
	"fmt"

	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/tracer"
	"ai-novelwriter-be/pkg/events"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type IMemoryService interface {
	GetOrCreate(ctx context.Context, req *dto.UpsertVectorRequest) (*dto.VectorRecordResponse, error)
	Update(ctx context.Context, req *dto.UpsertVectorRequest) (*dto.VectorRecordResponse, error)
	BatchCreate(ctx context.Context, req *dto.BatchUpsertVectorRequest) (*dto.BatchUpsertVectorResponse, error)
	Show(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID, withEmbedding bool) (*dto.VectorRecordResponse, error)
	GetAll(ctx context.Context, projectId uuid.UUID, entityType *entity.EntityType) ([]*dto.VectorRecordResponse, error)
	Count(ctx context.Context, projectId uuid.UUID) (*dto.CountVectorResponse, error)
	Exists(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) (*dto.ExistsVectorResponse, error)
	Delete(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) error
	Search(ctx context.Context, req *dto.SemanticSearchRequest) (*dto.SemanticSearchResponse, error)
	Enqueue(ctx context.Context, req *dto.EntityEventRequest) error
}

type memoryService struct {
	store            *vectorstore.Store
	publisherService IPublisherService
	invalidator      ContextInvalidator
	searchDefaults   vectorstore.SearchQuery
}

// NewMemoryService takes the configured search threshold and limit as
// defaults for requests that leave them out.
func NewMemoryService(
	store *vectorstore.Store,
	publisherService IPublisherService,
	invalidator ContextInvalidator,
	threshold float64,
	limit int,
) IMemoryService {
	return &memoryService{
		store:            store,
		publisherService: publisherService,
		invalidator:      invalidator,
		searchDefaults:   vectorstore.SearchQuery{Threshold: &threshold, Limit: limit},
	}
}

func toVectorRecordResponse(r *entity.VectorRecord, withEmbedding bool) *dto.VectorRecordResponse {
	res := &dto.VectorRecordResponse{
		Id:         r.Id,
		ProjectId:  r.ProjectId,
		EntityType: r.EntityType,
		EntityId:   r.EntityId,
		Content:    r.Content,
		Dimensions: r.Dimensions,
		Model:      r.Model,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if withEmbedding {
		res.Embedding = r.Embedding
	}
	return res
}

func (s *memoryService) invalidate(ctx context.Context, projectId uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateProject(ctx, projectId)
	}
}

func (s *memoryService) GetOrCreate(ctx context.Context, req *dto.UpsertVectorRequest) (*dto.VectorRecordResponse, error) {
	ctx, span := tracer.Start(ctx, "MemoryService.GetOrCreate")
	defer span.End()

	record, err := s.store.GetOrCreate(ctx, req.Embeddable(), req.Model)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.ProjectId)
	return toVectorRecordResponse(record, false), nil
}

func (s *memoryService) Update(ctx context.Context, req *dto.UpsertVectorRequest) (*dto.VectorRecordResponse, error) {
	record, err := s.store.Update(ctx, req.Embeddable(), req.Model)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.ProjectId)
	return toVectorRecordResponse(record, false), nil
}

// BatchCreate reports per-item failures in the response instead of failing the call.
func (s *memoryService) BatchCreate(ctx context.Context, req *dto.BatchUpsertVectorRequest) (*dto.BatchUpsertVectorResponse, error) {
	contents := make([]entity.EmbeddableContent, len(req.Items))
	for i := range req.Items {
		req.Items[i].ProjectId = req.ProjectId
		contents[i] = req.Items[i].Embeddable()
	}

	records, err := s.store.BatchCreate(ctx, contents, req.Model)
	var batchErr *vectorstore.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		return nil, err
	}

	res := &dto.BatchUpsertVectorResponse{
		Records:  make([]*dto.VectorRecordResponse, 0, len(records)),
		Failures: make([]dto.BatchFailureResponse, 0),
	}
	for _, r := range records {
		res.Records = append(res.Records, toVectorRecordResponse(r, false))
	}
	if batchErr != nil {
		for _, f := range batchErr.Failures {
			res.Failures = append(res.Failures, dto.BatchFailureResponse{
				Index:      f.Index,
				EntityType: f.Content.EntityType,
				EntityId:   f.Content.EntityId,
				Error:      f.Err.Error(),
			})
		}
	}
	if len(records) > 0 {
		s.invalidate(ctx, req.ProjectId)
	}
	return res, nil
}

func (s *memoryService) Show(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID, withEmbedding bool) (*dto.VectorRecordResponse, error) {
	record, err := s.store.Get(ctx, projectId, entityType, entityId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s/%s/%s", vectorstore.ErrRecordNotFound, projectId, entityType, entityId)
	}
	return toVectorRecordResponse(record, withEmbedding), nil
}

func (s *memoryService) GetAll(ctx context.Context, projectId uuid.UUID, entityType *entity.EntityType) ([]*dto.VectorRecordResponse, error) {
	var (
		records []*entity.VectorRecord
		err     error
	)
	if entityType != nil {
		records, err = s.store.GetByType(ctx, projectId, *entityType)
	} else {
		records, err = s.store.GetAllForProject(ctx, projectId)
	}
	if err != nil {
		return nil, err
	}

	result := make([]*dto.VectorRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toVectorRecordResponse(r, false))
	}
	return result, nil
}

func (s *memoryService) Count(ctx context.Context, projectId uuid.UUID) (*dto.CountVectorResponse, error) {
	count, err := s.store.CountForProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	return &dto.CountVectorResponse{Count: count}, nil
}

func (s *memoryService) Exists(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) (*dto.ExistsVectorResponse, error) {
	exists, err := s.store.Exists(ctx, projectId, entityType, entityId)
	if err != nil {
		return nil, err
	}
	return &dto.ExistsVectorResponse{Exists: exists}, nil
}

func (s *memoryService) Delete(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) error {
	if err := s.store.Delete(ctx, projectId, entityType, entityId); err != nil {
		return err
	}
	s.invalidate(ctx, projectId)
	return nil
}

func (s *memoryService) Search(ctx context.Context, req *dto.SemanticSearchRequest) (*dto.SemanticSearchResponse, error) {
	ctx, span := tracer.Start(ctx, "MemoryService.Search")
	defer span.End()

	query := vectorstore.SearchQuery{
		ProjectId:  req.ProjectId,
		EntityType: req.EntityType,
		QueryText:  req.Query,
		Threshold:  req.Threshold,
		Limit:      req.Limit,
		Model:      req.Model,
	}
	if query.Threshold == nil {
		query.Threshold = s.searchDefaults.Threshold
	}
	if query.Limit <= 0 {
		query.Limit = s.searchDefaults.Limit
	}

	results, err := s.store.SemanticSearch(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return &dto.SemanticSearchResponse{Results: results}, nil
}

func (s *memoryService) Enqueue(ctx context.Context, req *dto.EntityEventRequest) error {
	var event events.EntityChanged
	switch req.Type {
	case events.TypeEntityUpserted:
		event = events.NewEntityUpserted(entity.EmbeddableContent{
			ProjectId:  req.ProjectId,
			EntityType: req.EntityType,
			EntityId:   req.EntityId,
			Content:    req.Content,
		}, req.Model)
	case events.TypeEntityDeleted:
		event = events.NewEntityDeleted(req.ProjectId, req.EntityType, req.EntityId)
	default:
		event = events.NewProjectDeleted(req.ProjectId)
	}

	if err := event.Validate(); err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, event)
}
