package service

import (
	"context"
	"testing"
	"time"

	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/memory"
	"ai-novelwriter-be/pkg/storycontext"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() *entity.Project {
	return &entity.Project{
		Id:       uuid.New(),
		Title:    "The Glass Harbor",
		Synopsis: "A cartographer maps a shifting city.",
		Characters: []entity.Character{
			{Id: uuid.New(), Name: "Mira", Role: "protagonist", Description: "A young cartographer."},
		},
		WorldEntries: []entity.WorldEntry{
			{Id: uuid.New(), Name: "Glass Harbor", Category: entity.EntityTypeLocation, Description: "A port city."},
		},
		Chapters: []entity.Chapter{
			{Id: uuid.New(), Number: 1, Title: "Arrival", Summary: "Mira arrives.", Content: "Mira stepped off the ferry."},
			{Id: uuid.New(), Number: 2, Title: "Ink", Summary: "The map fails.", Content: "By morning the streets had moved."},
		},
	}
}

func newTestContextService(t *testing.T, store *vectorstore.Store, projects ...*entity.Project) (IContextService, *storycontext.MemoryContextCache) {
	t.Helper()
	log := logger.NewNopLogger()
	cache := storycontext.NewMemoryContextCache(time.Minute)
	injector := storycontext.NewInjector(storycontext.NewExtractor(nil), cache, log)
	return NewContextService(memory.NewProjectRepository(projects...), store, injector, 2000, 0.4, log), cache
}

func TestContextService_InjectDefaultsToSystemPlacement(t *testing.T) {
	project := sampleProject()
	svc, _ := newTestContextService(t, nil, project)

	res, err := svc.Inject(context.Background(), &dto.InjectContextRequest{
		ProjectId:    project.Id,
		UserPrompt:   "Continue the story.",
		SystemPrompt: "You are a novelist.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Continue the story.", res.UserPrompt)
	assert.Contains(t, res.SystemPrompt, "# Project Context")
	assert.Contains(t, res.SystemPrompt, "- Mira (protagonist): A young cartographer.")
	require.NotNil(t, res.Context)
	assert.Empty(t, res.Related)
}

func TestContextService_InjectOptions(t *testing.T) {
	project := sampleProject()
	svc, _ := newTestContextService(t, nil, project)
	off := false

	res, err := svc.Inject(context.Background(), &dto.InjectContextRequest{
		ProjectId:  project.Id,
		UserPrompt: "Continue.",
		Placement:  "before",
		Context:    &dto.ContextOptions{IncludeCharacters: &off},
	})
	require.NoError(t, err)
	assert.Contains(t, res.UserPrompt, storycontext.PromptSeparator+"Continue.")
	assert.NotContains(t, res.UserPrompt, "## Characters")
	assert.Empty(t, res.SystemPrompt)

	res, err = svc.Inject(context.Background(), &dto.InjectContextRequest{
		ProjectId:      project.Id,
		UserPrompt:     "Continue.",
		IncludeContext: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "Continue.", res.UserPrompt)
	assert.Nil(t, res.Context)
}

func TestContextService_ProjectNotFound(t *testing.T) {
	svc, _ := newTestContextService(t, nil)

	_, err := svc.Inject(context.Background(), &dto.InjectContextRequest{ProjectId: uuid.New(), UserPrompt: "x"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, err, vectorstore.ErrRecordNotFound)
}

func TestContextService_SemanticRecall(t *testing.T) {
	project := sampleProject()
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := store.GetOrCreate(ctx, entity.EmbeddableContent{
		ProjectId:  project.Id,
		EntityType: entity.EntityTypeLore,
		EntityId:   uuid.New(),
		Content:    "Dragons nest beneath the lighthouse.",
	}, "")
	require.NoError(t, err)

	svc, cache := newTestContextService(t, store, project)
	res, err := svc.Inject(ctx, &dto.InjectContextRequest{
		ProjectId:         project.Id,
		UserPrompt:        "Write the dragon attack.",
		UseSemanticRecall: true,
	})
	require.NoError(t, err)

	require.Len(t, res.Related, 1)
	assert.Contains(t, res.SystemPrompt, "## World Building\n- Dragons nest beneath the lighthouse.")

	_, cached := cache.Get(ctx, storycontext.CacheKey(project.Id, storycontext.DefaultExtractOptions()))
	assert.False(t, cached)
}

func TestContextService_RecallFailureKeepsContext(t *testing.T) {
	project := sampleProject()
	store, provider := newTestStore(t)
	provider.err = assert.AnError
	svc, _ := newTestContextService(t, store, project)

	res, err := svc.ChapterPrompt(context.Background(), &dto.ChapterPromptRequest{
		ProjectId:         project.Id,
		ChapterNumber:     3,
		Direction:         "The dragon returns.",
		UseSemanticRecall: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Related)
	assert.Contains(t, res.SystemPrompt, "# Project Context")
}

func TestContextService_ConsistencySelectsChapters(t *testing.T) {
	project := sampleProject()
	svc, _ := newTestContextService(t, nil, project)

	res, err := svc.ConsistencyPrompt(context.Background(), &dto.ConsistencyPromptRequest{
		ProjectId:      project.Id,
		ChapterNumbers: []int{2},
	})
	require.NoError(t, err)

	assert.Contains(t, res.UserPrompt, "### Chapter 2: Ink\nBy morning the streets had moved.")
	assert.NotContains(t, res.UserPrompt, "Chapter 1")
	assert.NotContains(t, res.SystemPrompt, "## Recent Chapters")
}

func TestContextService_CacheInvalidation(t *testing.T) {
	project := sampleProject()
	svc, cache := newTestContextService(t, nil, project)
	ctx := context.Background()
	key := storycontext.CacheKey(project.Id, storycontext.DefaultExtractOptions())

	_, err := svc.OutlinePrompt(ctx, &dto.OutlinePromptRequest{ProjectId: project.Id})
	require.NoError(t, err)
	_, err = svc.CharacterPrompt(ctx, &dto.CharacterPromptRequest{ProjectId: project.Id})
	require.NoError(t, err)

	_, err = svc.Inject(ctx, &dto.InjectContextRequest{ProjectId: project.Id, UserPrompt: "x"})
	require.NoError(t, err)
	_, found := cache.Get(ctx, key)
	require.True(t, found)

	svc.InvalidateProject(ctx, project.Id)
	_, found = cache.Get(ctx, key)
	assert.False(t, found)

	_, err = svc.Inject(ctx, &dto.InjectContextRequest{ProjectId: project.Id, UserPrompt: "x"})
	require.NoError(t, err)
	svc.ClearCache(ctx)
	_, found = cache.Get(ctx, key)
	assert.False(t, found)
}

func TestContextService_PromptsUseConfiguredMaxTokens(t *testing.T) {
	project := sampleProject()
	log := logger.NewNopLogger()
	injector := storycontext.NewInjector(storycontext.NewExtractor(nil), storycontext.NewMemoryContextCache(time.Minute), log)
	svc := NewContextService(memory.NewProjectRepository(project), nil, injector, 8, 0.4, log)

	outline, err := svc.OutlinePrompt(context.Background(), &dto.OutlinePromptRequest{ProjectId: project.Id})
	require.NoError(t, err)
	require.NotNil(t, outline.Context)
	assert.True(t, outline.Context.Truncated)
	assert.LessOrEqual(t, outline.Context.EstimatedTokens, 8)

	chapter, err := svc.ChapterPrompt(context.Background(), &dto.ChapterPromptRequest{ProjectId: project.Id, ChapterNumber: 3})
	require.NoError(t, err)
	require.NotNil(t, chapter.Context)
	assert.True(t, chapter.Context.Truncated)
	assert.LessOrEqual(t, chapter.Context.EstimatedTokens, 12)
}
