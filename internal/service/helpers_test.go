package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/memory"
	"ai-novelwriter-be/pkg/embedding"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const testModel = "test-embed"

// keywordProvider embeds text on three axes: dragons, harbors, everything else.
type keywordProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *keywordProvider) GenerateEmbedding(ctx context.Context, text string, model string) (*embedding.EmbeddingResponse, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	v := []float32{0, 0, 1}
	switch {
	case containsAny(text, "dragon", "Dragon"):
		v = []float32{1, 0, 0}
	case containsAny(text, "harbor", "Harbor"):
		v = []float32{0, 1, 0}
	}
	return embedding.NewResponse(v, model)
}

func (p *keywordProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

type recordingInvalidator struct {
	mu       sync.Mutex
	projects []uuid.UUID
}

func (r *recordingInvalidator) InvalidateProject(ctx context.Context, projectId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = append(r.projects, projectId)
}

func (r *recordingInvalidator) Invalidated() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID{}, r.projects...)
}

func newTestStore(t *testing.T) (*vectorstore.Store, *keywordProvider) {
	t.Helper()
	log := logger.NewNopLogger()
	provider := &keywordProvider{}
	return vectorstore.New(memory.NewVectorRecordRepository(log), provider, testModel, log), provider
}

func embeddable(projectId uuid.UUID, entityType entity.EntityType, text string) entity.EmbeddableContent {
	return entity.EmbeddableContent{
		ProjectId:  projectId,
		EntityType: entityType,
		EntityId:   uuid.New(),
		Content:    text,
	}
}
