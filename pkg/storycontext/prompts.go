package storycontext

import (
	"context"
	"fmt"
	"strings"

	"ai-novelwriter-be/internal/entity"
)

const (
	outlineSystemPrompt = "You are an experienced story editor helping a novelist plan their book. " +
		"Propose a clear chapter-by-chapter outline that respects the established characters, world and timeline."
	chapterSystemPrompt = "You are a skilled fiction writer continuing a novel. " +
		"Match the established voice, keep characters consistent with their descriptions and never contradict earlier chapters."
	characterSystemPrompt = "You are a character designer for fiction. " +
		"Invent original characters that fit the story's world and themes."
	consistencySystemPrompt = "You are a meticulous continuity editor. " +
		"Report contradictions in names, traits, timeline and world rules. Quote the conflicting passages."
)

// ContextAwarePrompts builds the task prompts of the writing assistant with
// context defaults suited to each task.
type ContextAwarePrompts struct {
	injector  *Injector
	related   []entity.SimilarityResult
	maxTokens int
}

func NewContextAwarePrompts(injector *Injector) *ContextAwarePrompts {
	return &ContextAwarePrompts{injector: injector, maxTokens: DefaultMaxTokens}
}

// WithMaxTokens returns a copy using n as the context ceiling. n <= 0 means DefaultMaxTokens.
func (p *ContextAwarePrompts) WithMaxTokens(n int) *ContextAwarePrompts {
	if n <= 0 {
		n = DefaultMaxTokens
	}
	c := *p
	c.maxTokens = n
	return &c
}

// WithRelated returns a copy that places semantic search hits in the context.
func (p *ContextAwarePrompts) WithRelated(results []entity.SimilarityResult) *ContextAwarePrompts {
	c := *p
	c.related = results
	return &c
}

func (p *ContextAwarePrompts) options(mutate func(*ExtractOptions)) InjectOptions {
	opts := DefaultInjectOptions()
	opts.Context.MaxTokens = p.maxTokens
	opts.Context.Related = p.related
	if mutate != nil {
		mutate(&opts.Context)
	}
	return opts
}

func (p *ContextAwarePrompts) OutlinePrompt(ctx context.Context, project *entity.Project, premise string) *InjectionResult {
	var b strings.Builder
	b.WriteString("Create a chapter outline for the novel")
	if project != nil && project.Title != "" {
		fmt.Fprintf(&b, " %q", project.Title)
	}
	b.WriteString(".\n")
	if project != nil && project.Synopsis != "" {
		fmt.Fprintf(&b, "\nSynopsis:\n%s\n", project.Synopsis)
	}
	if premise = strings.TrimSpace(premise); premise != "" {
		fmt.Fprintf(&b, "\nAuthor's direction:\n%s\n", premise)
	}

	opts := p.options(func(o *ExtractOptions) {
		o.RecentChapters = 3
	})
	return p.injector.InjectProjectContext(ctx, project, strings.TrimRight(b.String(), "\n"), outlineSystemPrompt, opts)
}

func (p *ContextAwarePrompts) ChapterPrompt(ctx context.Context, project *entity.Project, chapterNumber int, direction string) *InjectionResult {
	var b strings.Builder
	fmt.Fprintf(&b, "Write chapter %d.", chapterNumber)
	if direction = strings.TrimSpace(direction); direction != "" {
		fmt.Fprintf(&b, "\n\nWhat should happen:\n%s", direction)
	}

	// Chapters get half again the usual ceiling.
	opts := p.options(func(o *ExtractOptions) {
		o.MaxTokens = p.maxTokens * 3 / 2
	})
	return p.injector.InjectProjectContext(ctx, project, b.String(), chapterSystemPrompt, opts)
}

// CharacterBrainstormPrompt leaves existing characters out of the context so the
// model does not echo them back.
func (p *ContextAwarePrompts) CharacterBrainstormPrompt(ctx context.Context, project *entity.Project, brief string) *InjectionResult {
	var b strings.Builder
	b.WriteString("Suggest three new characters for this story.")
	if brief = strings.TrimSpace(brief); brief != "" {
		fmt.Fprintf(&b, "\n\nRequirements:\n%s", brief)
	}
	if project != nil && len(project.Characters) > 0 {
		names := make([]string, len(project.Characters))
		for i, c := range project.Characters {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "\n\nAvoid reusing these names: %s.", strings.Join(names, ", "))
	}

	opts := p.options(func(o *ExtractOptions) {
		o.IncludeCharacters = false
	})
	return p.injector.InjectProjectContext(ctx, project, b.String(), characterSystemPrompt, opts)
}

// ConsistencyCheckPrompt puts the chapters under review in the prompt body,
// so the chapter bucket is left out of the context.
func (p *ContextAwarePrompts) ConsistencyCheckPrompt(ctx context.Context, project *entity.Project, chapters []entity.Chapter) *InjectionResult {
	var b strings.Builder
	b.WriteString("Check the following chapters for continuity errors against the project context.")
	for _, c := range chapters {
		fmt.Fprintf(&b, "\n\n### Chapter %d: %s\n%s", c.Number, c.Title, strings.TrimSpace(c.Content))
	}

	opts := p.options(func(o *ExtractOptions) {
		o.IncludeChapters = false
	})
	return p.injector.InjectProjectContext(ctx, project, b.String(), consistencySystemPrompt, opts)
}
