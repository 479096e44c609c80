package memory

import (
	"context"
	"sync"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
)

// ProjectRepository serves project aggregates from memory for local runs and tests.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*entity.Project
}

func NewProjectRepository(projects ...*entity.Project) *ProjectRepository {
	r := &ProjectRepository{projects: make(map[uuid.UUID]*entity.Project)}
	for _, p := range projects {
		r.Save(p)
	}
	return r
}

func (r *ProjectRepository) Save(project *entity.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.Id] = project
}

func (r *ProjectRepository) FindAggregate(ctx context.Context, projectId uuid.UUID) (*entity.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.projects[projectId], nil
}
