package implementation

import (
	"context"
	"errors"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/mapper"
	"ai-novelwriter-be/internal/model"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/repository/specification"

	"gorm.io/gorm"
)

type VectorRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VectorRecordMapper
}

func NewVectorRecordRepository(db *gorm.DB, log logger.ILogger) contract.VectorRecordRepository {
	return &VectorRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewVectorRecordMapper(log),
	}
}

func (r *VectorRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *VectorRecordRepositoryImpl) Create(ctx context.Context, record *entity.VectorRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicateKey
		}
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *VectorRecordRepositoryImpl) Update(ctx context.Context, record *entity.VectorRecord) error {
	m := r.mapper.ToModel(record)
	res := r.db.WithContext(ctx).
		Model(&model.VectorRecord{}).
		Where("id = ?", m.Id).
		Updates(map[string]interface{}{
			"content":    m.Content,
			"embedding":  m.Embedding,
			"dimensions": m.Dimensions,
			"model":      m.Model,
			"updated_at": m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrNotFound
	}
	return nil
}

func (r *VectorRecordRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) error {
	if len(specs) == 0 {
		return errors.New("refusing to delete vector records without a filter")
	}
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	return query.Delete(&model.VectorRecord{}).Error
}

func (r *VectorRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorRecord, error) {
	var m model.VectorRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *VectorRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorRecord, error) {
	var models []*model.VectorRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *VectorRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.VectorRecord{}).Count(&count).Error
	return count, err
}
