package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-novelwriter-be/internal/dto"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"
	"ai-novelwriter-be/internal/repository/contract"
	"ai-novelwriter-be/internal/tracer"
	"ai-novelwriter-be/pkg/storycontext"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const contextModule = "ContextService"

// recallLimit caps semantic hits added to a prompt's context.
const recallLimit = 5

var ErrProjectNotFound = fmt.Errorf("project %w", vectorstore.ErrRecordNotFound)

type IContextService interface {
	Inject(ctx context.Context, req *dto.InjectContextRequest) (*dto.InjectContextResponse, error)
	OutlinePrompt(ctx context.Context, req *dto.OutlinePromptRequest) (*dto.InjectContextResponse, error)
	ChapterPrompt(ctx context.Context, req *dto.ChapterPromptRequest) (*dto.InjectContextResponse, error)
	CharacterPrompt(ctx context.Context, req *dto.CharacterPromptRequest) (*dto.InjectContextResponse, error)
	ConsistencyPrompt(ctx context.Context, req *dto.ConsistencyPromptRequest) (*dto.InjectContextResponse, error)
	InvalidateProject(ctx context.Context, projectId uuid.UUID)
	ClearCache(ctx context.Context)
}

type contextService struct {
	projects  contract.ProjectRepository
	store     *vectorstore.Store
	injector  *storycontext.Injector
	prompts   *storycontext.ContextAwarePrompts
	maxTokens int
	threshold float64
	log       logger.ILogger
}

// NewContextService accepts a nil store; semantic recall is then skipped.
func NewContextService(
	projects contract.ProjectRepository,
	store *vectorstore.Store,
	injector *storycontext.Injector,
	maxTokens int,
	threshold float64,
	log logger.ILogger,
) IContextService {
	return &contextService{
		projects:  projects,
		store:     store,
		injector:  injector,
		prompts:   storycontext.NewContextAwarePrompts(injector).WithMaxTokens(maxTokens),
		maxTokens: maxTokens,
		threshold: threshold,
		log:       log,
	}
}

func (s *contextService) loadProject(ctx context.Context, projectId uuid.UUID) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "ContextService.LoadProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectId.String()))

	project, err := s.projects.FindAggregate(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectId)
	}
	return project, nil
}

// recall fetches related entities for query. Failures only cost the extra context.
func (s *contextService) recall(ctx context.Context, projectId uuid.UUID, query string) []entity.SimilarityResult {
	if s.store == nil || strings.TrimSpace(query) == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "ContextService.Recall")
	defer span.End()

	threshold := s.threshold
	results, err := s.store.SemanticSearch(ctx, vectorstore.SearchQuery{
		ProjectId: &projectId,
		QueryText: query,
		Threshold: &threshold,
		Limit:     recallLimit,
	})
	if err != nil {
		level := s.log.Warn
		if errors.Is(err, vectorstore.ErrStoreUnavailable) {
			level = s.log.Debug
		}
		level(contextModule, "Semantic recall skipped", map[string]interface{}{
			"projectId": projectId.String(),
			"error":     err.Error(),
		})
		return nil
	}
	return results
}

func (s *contextService) extractOptions(opts *dto.ContextOptions) storycontext.ExtractOptions {
	out := storycontext.DefaultExtractOptions()
	out.MaxTokens = s.maxTokens
	if opts == nil {
		return out
	}
	if opts.IncludeCharacters != nil {
		out.IncludeCharacters = *opts.IncludeCharacters
	}
	if opts.IncludeWorldBuilding != nil {
		out.IncludeWorldBuilding = *opts.IncludeWorldBuilding
	}
	if opts.IncludeTimeline != nil {
		out.IncludeTimeline = *opts.IncludeTimeline
	}
	if opts.IncludeChapters != nil {
		out.IncludeChapters = *opts.IncludeChapters
	}
	if opts.MaxTokens > 0 {
		out.MaxTokens = opts.MaxTokens
	}
	return out
}

func toInjectResponse(result *storycontext.InjectionResult, related []entity.SimilarityResult) *dto.InjectContextResponse {
	return &dto.InjectContextResponse{
		SystemPrompt:    result.SystemPrompt,
		UserPrompt:      result.UserPrompt,
		Context:         result.Context,
		EstimatedTokens: result.EstimatedTokens,
		Related:         related,
	}
}

func (s *contextService) Inject(ctx context.Context, req *dto.InjectContextRequest) (*dto.InjectContextResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}

	opts := storycontext.DefaultInjectOptions()
	if req.IncludeContext != nil {
		opts.IncludeContext = *req.IncludeContext
	}
	if req.Placement != "" {
		opts.Placement = storycontext.Placement(req.Placement)
	}
	opts.Context = s.extractOptions(req.Context)

	var related []entity.SimilarityResult
	if req.UseSemanticRecall && opts.IncludeContext {
		query := req.RecallQuery
		if query == "" {
			query = req.UserPrompt
		}
		related = s.recall(ctx, project.Id, query)
		opts.Context.Related = related
	}

	result := s.injector.InjectProjectContext(ctx, project, req.UserPrompt, req.SystemPrompt, opts)
	return toInjectResponse(result, related), nil
}

func (s *contextService) promptsFor(ctx context.Context, project *entity.Project, useRecall bool, query string) (*storycontext.ContextAwarePrompts, []entity.SimilarityResult) {
	if !useRecall {
		return s.prompts, nil
	}
	related := s.recall(ctx, project.Id, query)
	return s.prompts.WithRelated(related), related
}

func (s *contextService) OutlinePrompt(ctx context.Context, req *dto.OutlinePromptRequest) (*dto.InjectContextResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}
	prompts, related := s.promptsFor(ctx, project, req.UseSemanticRecall, joinQuery(project.Synopsis, req.Premise))
	return toInjectResponse(prompts.OutlinePrompt(ctx, project, req.Premise), related), nil
}

func (s *contextService) ChapterPrompt(ctx context.Context, req *dto.ChapterPromptRequest) (*dto.InjectContextResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}
	prompts, related := s.promptsFor(ctx, project, req.UseSemanticRecall, req.Direction)
	return toInjectResponse(prompts.ChapterPrompt(ctx, project, req.ChapterNumber, req.Direction), related), nil
}

func (s *contextService) CharacterPrompt(ctx context.Context, req *dto.CharacterPromptRequest) (*dto.InjectContextResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}
	prompts, related := s.promptsFor(ctx, project, req.UseSemanticRecall, req.Brief)
	return toInjectResponse(prompts.CharacterBrainstormPrompt(ctx, project, req.Brief), related), nil
}

func (s *contextService) ConsistencyPrompt(ctx context.Context, req *dto.ConsistencyPromptRequest) (*dto.InjectContextResponse, error) {
	project, err := s.loadProject(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}

	chapters := selectChapters(project.Chapters, req.ChapterNumbers)
	var query strings.Builder
	for _, c := range chapters {
		query.WriteString(c.Summary)
		query.WriteString(" ")
	}
	prompts, related := s.promptsFor(ctx, project, req.UseSemanticRecall, query.String())
	return toInjectResponse(prompts.ConsistencyCheckPrompt(ctx, project, chapters), related), nil
}

func (s *contextService) InvalidateProject(ctx context.Context, projectId uuid.UUID) {
	s.injector.InvalidateProject(ctx, projectId)
}

func (s *contextService) ClearCache(ctx context.Context) {
	s.injector.ClearCache(ctx)
}

func selectChapters(chapters []entity.Chapter, numbers []int) []entity.Chapter {
	if len(numbers) == 0 {
		return chapters
	}
	wanted := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}
	var out []entity.Chapter
	for _, c := range chapters {
		if wanted[c.Number] {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func joinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
