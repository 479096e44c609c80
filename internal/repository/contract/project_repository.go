package contract

import (
	"context"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
)

// ProjectRepository reads project aggregates written by the CRUD layer.
type ProjectRepository interface {
	// FindAggregate returns nil, nil when the project does not exist.
	FindAggregate(ctx context.Context, projectId uuid.UUID) (*entity.Project, error)
}
