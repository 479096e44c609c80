package storycontext

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-novelwriter-be/internal/entity"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultMaxTokens         = 2000
	DefaultMaxCharacters     = 10
	DefaultMaxWorldEntries   = 10
	DefaultMaxTimelineEvents = 10
	DefaultRecentChapters    = 5

	// maxItemRunes caps a single summary line before budgeting.
	maxItemRunes = 400
)

var ErrMalformedProject = errors.New("malformed project data")

var validate = validator.New()

// ExtractOptions controls which buckets are filled and how large the snapshot may get.
type ExtractOptions struct {
	IncludeCharacters    bool
	IncludeWorldBuilding bool
	IncludeTimeline      bool
	IncludeChapters      bool
	MaxTokens            int

	MaxCharacters     int
	MaxWorldEntries   int
	MaxTimelineEvents int
	RecentChapters    int

	// Related are semantic search hits placed ahead of the regular items of their bucket.
	Related []entity.SimilarityResult
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		IncludeCharacters:    true,
		IncludeWorldBuilding: true,
		IncludeTimeline:      true,
		IncludeChapters:      true,
		MaxTokens:            DefaultMaxTokens,
	}
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.MaxCharacters <= 0 {
		o.MaxCharacters = DefaultMaxCharacters
	}
	if o.MaxWorldEntries <= 0 {
		o.MaxWorldEntries = DefaultMaxWorldEntries
	}
	if o.MaxTimelineEvents <= 0 {
		o.MaxTimelineEvents = DefaultMaxTimelineEvents
	}
	if o.RecentChapters <= 0 {
		o.RecentChapters = DefaultRecentChapters
	}
	return o
}

// Snapshot is the budgeted context of one project. EstimatedTokens counts the
// bucket items only; section headers added by FormatContextForPrompt are extra.
type Snapshot struct {
	Characters      []string `json:"characters"`
	WorldBuilding   []string `json:"world_building"`
	Timeline        []string `json:"timeline"`
	Chapters        []string `json:"chapters"`
	EstimatedTokens int      `json:"estimated_tokens"`
	Truncated       bool     `json:"truncated"`
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Characters)+len(s.WorldBuilding)+len(s.Timeline)+len(s.Chapters) == 0
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Characters = append([]string{}, s.Characters...)
	c.WorldBuilding = append([]string{}, s.WorldBuilding...)
	c.Timeline = append([]string{}, s.Timeline...)
	c.Chapters = append([]string{}, s.Chapters...)
	return &c
}

type Extractor struct {
	estimate TokenEstimator
}

// NewExtractor uses EstimateTokens when estimator is nil.
func NewExtractor(estimator TokenEstimator) *Extractor {
	if estimator == nil {
		estimator = EstimateTokens
	}
	return &Extractor{estimate: estimator}
}

func (e *Extractor) Estimate(text string) int {
	return e.estimate(text)
}

// budget hands out tokens to buckets in call order.
type budget struct {
	remaining int
	used      int
	exhausted bool
	truncated bool
	estimate  TokenEstimator
}

func (b *budget) fill(items []string) []string {
	out := []string{}
	for _, item := range items {
		if b.exhausted {
			break
		}
		cost := b.estimate(item)
		if cost <= b.remaining {
			out = append(out, item)
			b.remaining -= cost
			b.used += cost
			continue
		}

		// The overflowing item is cut to what is left, then filling stops.
		b.exhausted = true
		b.truncated = true
		if cut := truncateToTokens(item, b.remaining, b.estimate); cut != "" {
			cost = b.estimate(cut)
			out = append(out, cut)
			b.remaining -= cost
			b.used += cost
		}
	}
	return out
}

// ExtractProjectContext reduces a project to a snapshot that stays within
// opts.MaxTokens. Buckets fill in priority order characters, world building,
// timeline, chapters; disabled buckets stay empty.
func (e *Extractor) ExtractProjectContext(project *entity.Project, opts ExtractOptions) (*Snapshot, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: project is nil", ErrMalformedProject)
	}
	if err := validate.Struct(project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProject, err)
	}

	opts = opts.withDefaults()
	b := &budget{remaining: opts.MaxTokens, estimate: e.estimate}
	related, relatedIds := groupRelated(opts.Related)

	snapshot := &Snapshot{
		Characters:    []string{},
		WorldBuilding: []string{},
		Timeline:      []string{},
		Chapters:      []string{},
	}

	if opts.IncludeCharacters {
		items := append(related[entity.BucketCharacters], characterLines(project.Characters, opts.MaxCharacters, relatedIds)...)
		snapshot.Characters = b.fill(items)
	}
	if opts.IncludeWorldBuilding {
		items := append(related[entity.BucketWorldBuilding], worldLines(project.WorldEntries, opts.MaxWorldEntries, relatedIds)...)
		snapshot.WorldBuilding = b.fill(items)
	}
	if opts.IncludeTimeline {
		snapshot.Timeline = b.fill(timelineLines(project.TimelineEvents, opts.MaxTimelineEvents))
	}
	if opts.IncludeChapters {
		items := append(related[entity.BucketChapters], chapterLines(project.Chapters, opts.RecentChapters, relatedIds)...)
		snapshot.Chapters = b.fill(items)
	}

	snapshot.EstimatedTokens = b.used
	snapshot.Truncated = b.truncated
	return snapshot, nil
}

func groupRelated(results []entity.SimilarityResult) (map[entity.ContextBucket][]string, map[uuid.UUID]bool) {
	lines := make(map[entity.ContextBucket][]string)
	ids := make(map[uuid.UUID]bool)
	for _, r := range results {
		bucket, ok := r.EntityType.Bucket()
		if !ok || ids[r.EntityId] {
			continue
		}
		ids[r.EntityId] = true
		lines[bucket] = append(lines[bucket], clip(strings.TrimSpace(r.Content)))
	}
	return lines, ids
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxItemRunes {
		return s
	}
	return string(runes[:maxItemRunes]) + ellipsis
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func characterLines(characters []entity.Character, limit int, skip map[uuid.UUID]bool) []string {
	var lines []string
	for _, c := range characters {
		if len(lines) == limit {
			break
		}
		if skip[c.Id] {
			continue
		}
		head := c.Name
		if c.Role != "" {
			head = fmt.Sprintf("%s (%s)", c.Name, c.Role)
		}
		var personality string
		if c.Personality != "" {
			personality = "Personality: " + c.Personality
		}
		body := joinNonEmpty(" ", c.Description, personality)
		if body == "" {
			lines = append(lines, clip(head))
			continue
		}
		lines = append(lines, clip(head+": "+body))
	}
	return lines
}

func worldLines(entries []entity.WorldEntry, limit int, skip map[uuid.UUID]bool) []string {
	var lines []string
	for _, w := range entries {
		if len(lines) == limit {
			break
		}
		if skip[w.Id] {
			continue
		}
		head := fmt.Sprintf("%s [%s]", w.Name, w.Category)
		if w.Description == "" {
			lines = append(lines, clip(head))
			continue
		}
		lines = append(lines, clip(head+": "+w.Description))
	}
	return lines
}

func timelineLines(events []entity.TimelineEvent, limit int) []string {
	var lines []string
	for _, ev := range events {
		if len(lines) == limit {
			break
		}
		line := ev.Title
		if ev.StoryTime != "" {
			line = fmt.Sprintf("[%s] %s", ev.StoryTime, ev.Title)
		}
		if ev.Description != "" {
			line += ": " + ev.Description
		}
		lines = append(lines, clip(line))
	}
	return lines
}

// chapterLines keeps the most recent chapters, oldest first.
func chapterLines(chapters []entity.Chapter, recent int, skip map[uuid.UUID]bool) []string {
	var kept []entity.Chapter
	for _, c := range chapters {
		if !skip[c.Id] {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Number < kept[j].Number })
	if len(kept) > recent {
		kept = kept[len(kept)-recent:]
	}

	lines := make([]string, 0, len(kept))
	for _, c := range kept {
		summary := c.Summary
		if summary == "" {
			summary = c.Content
		}
		head := fmt.Sprintf("Chapter %d: %s", c.Number, c.Title)
		if summary = strings.TrimSpace(summary); summary == "" {
			lines = append(lines, clip(head))
			continue
		}
		lines = append(lines, clip(head+" - "+summary))
	}
	return lines
}
