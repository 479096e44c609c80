package implementation

import (
	"context"
	"errors"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/mapper"
	"ai-novelwriter-be/internal/model"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProjectMapper
}

func NewProjectRepository(db *gorm.DB, log logger.ILogger) contract.ProjectRepository {
	return &ProjectRepositoryImpl{
		db:     db,
		mapper: mapper.NewProjectMapper(log),
	}
}

func (r *ProjectRepositoryImpl) FindAggregate(ctx context.Context, projectId uuid.UUID) (*entity.Project, error) {
	var m model.Project
	err := r.db.WithContext(ctx).
		Preload("Characters", scope.OrderByCreatedAsc).
		Preload("WorldEntries", scope.OrderByCreatedAsc).
		Preload("Chapters", scope.OrderByChapterNumber).
		Preload("TimelineEvents", scope.OrderByTimelinePosition).
		Where("id = ?", projectId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
