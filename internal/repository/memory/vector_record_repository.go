package memory

import (
	"context"
	"sync"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/mapper"
	"ai-novelwriter-be/internal/model"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/repository/specification"
)

// VectorRecordRepository keeps rows in process, in insertion order.
// Rows are held in their persisted shape so decoding goes through the same mapper
// as the database implementation.
type VectorRecordRepository struct {
	mu     sync.RWMutex
	rows   []*model.VectorRecord
	mapper *mapper.VectorRecordMapper
}

func NewVectorRecordRepository(log logger.ILogger) *VectorRecordRepository {
	return &VectorRecordRepository{
		mapper: mapper.NewVectorRecordMapper(log),
	}
}

func matches(r *model.VectorRecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		if m, ok := spec.(specification.VectorMatcher); ok && !m.MatchesVector(r) {
			return false
		}
	}
	return true
}

func cloneRow(r *model.VectorRecord) *model.VectorRecord {
	c := *r
	c.Embedding = append([]byte(nil), r.Embedding...)
	return &c
}

// Insert stores a raw row as-is. It bypasses encoding, which lets callers
// load rows written by other tools.
func (r *VectorRecordRepository) Insert(row *model.VectorRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, cloneRow(row))
}

func (r *VectorRecordRepository) Create(ctx context.Context, record *entity.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := r.mapper.ToModel(record)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := specification.ByNaturalKey{ProjectID: m.ProjectId, EntityType: record.EntityType, EntityID: m.EntityId}
	for _, row := range r.rows {
		if key.MatchesVector(row) {
			return contract.ErrDuplicateKey
		}
	}

	r.rows = append(r.rows, cloneRow(m))
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *VectorRecordRepository) Update(ctx context.Context, record *entity.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := r.mapper.ToModel(record)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Id == m.Id {
			row.Content = m.Content
			row.Embedding = m.Embedding
			row.Dimensions = m.Dimensions
			row.Model = m.Model
			row.UpdatedAt = m.UpdatedAt
			return nil
		}
	}
	return contract.ErrNotFound
}

func (r *VectorRecordRepository) Delete(ctx context.Context, specs ...specification.Specification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	for _, row := range r.rows {
		if !matches(row, specs) {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *VectorRecordRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if matches(row, specs) {
			return r.mapper.ToEntity(cloneRow(row)), nil
		}
	}
	return nil, nil
}

func (r *VectorRecordRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []*entity.VectorRecord{}
	for _, row := range r.rows {
		if matches(row, specs) {
			records = append(records, r.mapper.ToEntity(cloneRow(row)))
		}
	}
	return records, nil
}

func (r *VectorRecordRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, row := range r.rows {
		if matches(row, specs) {
			count++
		}
	}
	return count, nil
}
