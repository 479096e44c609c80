package contract

import (
	"context"
	"errors"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/repository/specification"
)

var (
	// ErrDuplicateKey is returned by Create when a row with the same natural key exists.
	ErrDuplicateKey = errors.New("vector record already exists for natural key")
	// ErrNotFound is returned by Update when the row vanished.
	ErrNotFound = errors.New("vector record not found")
)

type VectorRecordRepository interface {
	Create(ctx context.Context, record *entity.VectorRecord) error
	Update(ctx context.Context, record *entity.VectorRecord) error
	// Delete removes every row matching specs. Deleting nothing is not an error.
	Delete(ctx context.Context, specs ...specification.Specification) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VectorRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.VectorRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
