package storycontext

import (
	"context"
	"fmt"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"

	"github.com/google/uuid"
)

const injectorModule = "ContextInjector"

// Placement says where the context block goes.
type Placement string

const (
	PlacementSystem Placement = "system"
	PlacementBefore Placement = "before"
	PlacementAfter  Placement = "after"
)

// PromptSeparator sits between the context block and the user prompt.
const PromptSeparator = "\n\n---\n\n"

type InjectOptions struct {
	IncludeContext bool
	Placement      Placement
	Context        ExtractOptions
}

func DefaultInjectOptions() InjectOptions {
	return InjectOptions{
		IncludeContext: true,
		Placement:      PlacementSystem,
		Context:        DefaultExtractOptions(),
	}
}

// InjectionResult is the prompt pair handed to the completion call.
// Context is nil when injection was skipped or failed.
type InjectionResult struct {
	SystemPrompt    string    `json:"system_prompt,omitempty"`
	UserPrompt      string    `json:"user_prompt"`
	Context         *Snapshot `json:"context,omitempty"`
	EstimatedTokens int       `json:"estimated_tokens"`
}

type Injector struct {
	extractor *Extractor
	cache     ContextCache
	log       logger.ILogger
}

// NewInjector wires an extractor and an optional snapshot cache (nil disables caching).
func NewInjector(extractor *Extractor, cache ContextCache, log logger.ILogger) *Injector {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	return &Injector{extractor: extractor, cache: cache, log: log}
}

func (i *Injector) result(systemPrompt, userPrompt string, snapshot *Snapshot) *InjectionResult {
	return &InjectionResult{
		SystemPrompt:    systemPrompt,
		UserPrompt:      userPrompt,
		Context:         snapshot,
		EstimatedTokens: i.extractor.Estimate(systemPrompt) + i.extractor.Estimate(userPrompt),
	}
}

// InjectProjectContext splices project context into the prompt pair. It never
// fails: when extraction fails the original prompts come back untouched.
func (i *Injector) InjectProjectContext(ctx context.Context, project *entity.Project, userPrompt, systemPrompt string, opts InjectOptions) *InjectionResult {
	if !opts.IncludeContext {
		return i.result(systemPrompt, userPrompt, nil)
	}

	snapshot, err := i.snapshot(ctx, project, opts.Context)
	if err != nil {
		details := map[string]interface{}{"error": err.Error()}
		if project != nil {
			details["projectId"] = project.Id.String()
		}
		i.log.Warn(injectorModule, "Context extraction failed, using original prompts", details)
		return i.result(systemPrompt, userPrompt, nil)
	}

	if snapshot.IsEmpty() {
		return i.result(systemPrompt, userPrompt, snapshot)
	}

	block := FormatContextForPrompt(snapshot)
	switch opts.Placement {
	case PlacementBefore:
		userPrompt = block + PromptSeparator + userPrompt
	case PlacementAfter:
		userPrompt = userPrompt + PromptSeparator + block
	default:
		if opts.Placement != "" && opts.Placement != PlacementSystem {
			i.log.Warn(injectorModule, "Unknown context placement, using system", map[string]interface{}{
				"placement": string(opts.Placement),
			})
		}
		if systemPrompt == "" {
			systemPrompt = block
		} else {
			systemPrompt = block + "\n\n" + systemPrompt
		}
	}

	return i.result(systemPrompt, userPrompt, snapshot)
}

func (i *Injector) snapshot(ctx context.Context, project *entity.Project, opts ExtractOptions) (snapshot *Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snapshot, err = nil, fmt.Errorf("%w: extraction panicked: %v", ErrMalformedProject, r)
		}
	}()

	// Semantic recall hits are request specific and never cached.
	useCache := i.cache != nil && project != nil && len(opts.Related) == 0
	var key string
	if useCache {
		key = CacheKey(project.Id, opts)
		if cached, ok := i.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	snapshot, err = i.extractor.ExtractProjectContext(project, opts)
	if err != nil {
		return nil, err
	}
	if useCache {
		i.cache.Set(ctx, key, snapshot)
	}
	return snapshot, nil
}

// InvalidateProject drops cached snapshots of one project.
func (i *Injector) InvalidateProject(ctx context.Context, projectId uuid.UUID) {
	if i.cache != nil {
		i.cache.Invalidate(ctx, projectId)
	}
}

func (i *Injector) ClearCache(ctx context.Context) {
	if i.cache != nil {
		i.cache.Clear(ctx)
	}
}
