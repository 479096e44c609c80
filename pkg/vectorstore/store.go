package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/repository/specification"
	"ai-novelwriter-be/pkg/embedding"

	"github.com/google/uuid"
)

const module = "VectorStore"

var (
	// ErrStoreUnavailable means no persistence was configured.
	ErrStoreUnavailable = errors.New("vector store unavailable: persistence not configured")
	ErrRecordNotFound   = errors.New("vector record not found")
	ErrInvalidContent   = errors.New("invalid embeddable content")
)

// Store keeps one embedding per (project, entity type, entity id).
// Every call runs to completion on the caller's goroutine; nothing is cached
// between calls.
type Store struct {
	repo         contract.VectorRecordRepository
	provider     embedding.EmbeddingProvider
	defaultModel string
	log          logger.ILogger
	now          func() time.Time
}

// New builds a store. A nil repository or provider yields a store whose every
// operation fails with ErrStoreUnavailable.
func New(repo contract.VectorRecordRepository, provider embedding.EmbeddingProvider, defaultModel string, log logger.ILogger) *Store {
	return &Store{
		repo:         repo,
		provider:     provider,
		defaultModel: defaultModel,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) ready() error {
	if s == nil || s.repo == nil || s.provider == nil {
		return ErrStoreUnavailable
	}
	return nil
}

func (s *Store) modelOrDefault(model string) string {
	if model == "" {
		return s.defaultModel
	}
	return model
}

func validateContent(c entity.EmbeddableContent) error {
	if c.ProjectId == uuid.Nil || c.EntityId == uuid.Nil {
		return fmt.Errorf("%w: project and entity ids are required", ErrInvalidContent)
	}
	if !c.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidContent, c.EntityType)
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: content is empty", ErrInvalidContent)
	}
	return nil
}

func naturalKey(projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) specification.ByNaturalKey {
	return specification.ByNaturalKey{ProjectID: projectId, EntityType: entityType, EntityID: entityId}
}

func (s *Store) embed(ctx context.Context, text, model string) (*embedding.EmbeddingResponse, error) {
	res, err := s.provider.GenerateEmbedding(ctx, text, s.modelOrDefault(model))
	if err != nil {
		return nil, err
	}
	if res.Model == "" {
		res.Model = s.modelOrDefault(model)
	}
	return res, nil
}

// GetOrCreate returns the stored record for the content's key, embedding and
// inserting it first when absent. An existing record is returned as stored even
// when its content differs from c.Content; use Update to re-embed.
func (s *Store) GetOrCreate(ctx context.Context, c entity.EmbeddableContent, model string) (*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateContent(c); err != nil {
		return nil, err
	}

	key := naturalKey(c.ProjectId, c.EntityType, c.EntityId)
	existing, err := s.repo.FindOne(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Content != c.Content {
			s.log.Debug(module, "Stored content differs from request, keeping existing embedding", map[string]interface{}{
				"id":         existing.Id.String(),
				"entityType": string(c.EntityType),
				"entityId":   c.EntityId.String(),
			})
		}
		return existing, nil
	}

	res, err := s.embed(ctx, c.Content, model)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &entity.VectorRecord{
		Id:         uuid.New(),
		ProjectId:  c.ProjectId,
		EntityType: c.EntityType,
		EntityId:   c.EntityId,
		Content:    c.Content,
		Embedding:  res.Values,
		Dimensions: len(res.Values),
		Model:      res.Model,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			// Lost a race with another writer for the same key.
			winner, findErr := s.repo.FindOne(ctx, key)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}

	s.log.Info(module, "Vector record created", map[string]interface{}{
		"id":         record.Id.String(),
		"projectId":  record.ProjectId.String(),
		"entityType": string(record.EntityType),
		"dimensions": record.Dimensions,
		"model":      record.Model,
	})
	return record, nil
}

// Update re-embeds the content of an existing key. It never creates a record.
func (s *Store) Update(ctx context.Context, c entity.EmbeddableContent, model string) (*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateContent(c); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindOne(ctx, naturalKey(c.ProjectId, c.EntityType, c.EntityId))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrRecordNotFound, c.ProjectId, c.EntityType, c.EntityId)
	}

	res, err := s.embed(ctx, c.Content, model)
	if err != nil {
		return nil, err
	}

	existing.Content = c.Content
	existing.Embedding = res.Values
	existing.Dimensions = len(res.Values)
	existing.Model = res.Model
	existing.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, existing.Id)
		}
		return nil, err
	}
	return existing, nil
}

// Delete removes the record for a key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, naturalKey(projectId, entityType, entityId))
}

// DeleteAllForProject cascades a project removal to its vectors.
func (s *Store) DeleteAllForProject(ctx context.Context, projectId uuid.UUID) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, specification.ByProjectID{ProjectID: projectId})
}

// Get returns nil when the key is absent.
func (s *Store) Get(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) (*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.FindOne(ctx, naturalKey(projectId, entityType, entityId))
}

func (s *Store) GetAllForProject(ctx context.Context, projectId uuid.UUID) ([]*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	)
}

func (s *Store) GetByType(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType) ([]*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.ByEntityType{EntityType: entityType},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	)
}

// Exists checks for a key without loading the embedding.
func (s *Store) Exists(ctx context.Context, projectId uuid.UUID, entityType entity.EntityType, entityId uuid.UUID) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	count, err := s.repo.Count(ctx, naturalKey(projectId, entityType, entityId))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CountForProject(ctx context.Context, projectId uuid.UUID) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, specification.ByProjectID{ProjectID: projectId})
}
