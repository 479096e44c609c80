package dto

import (
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/pkg/storycontext"

	"github.com/google/uuid"
)

// ContextOptions mirrors storycontext.ExtractOptions. Nil switches keep their default (on).
type ContextOptions struct {
	IncludeCharacters    *bool `json:"include_characters"`
	IncludeWorldBuilding *bool `json:"include_world_building"`
	IncludeTimeline      *bool `json:"include_timeline"`
	IncludeChapters      *bool `json:"include_chapters"`
	MaxTokens            int   `json:"max_tokens" validate:"gte=0"`
}

type InjectContextRequest struct {
	ProjectId         uuid.UUID
	UserPrompt        string          `json:"user_prompt" validate:"required"`
	SystemPrompt      string          `json:"system_prompt"`
	IncludeContext    *bool           `json:"include_context"`
	Placement         string          `json:"placement"`
	Context           *ContextOptions `json:"context"`
	UseSemanticRecall bool            `json:"use_semantic_recall"`
	RecallQuery       string          `json:"recall_query"`
}

type OutlinePromptRequest struct {
	ProjectId         uuid.UUID
	Premise           string `json:"premise"`
	UseSemanticRecall bool   `json:"use_semantic_recall"`
}

type ChapterPromptRequest struct {
	ProjectId         uuid.UUID
	ChapterNumber     int    `json:"chapter_number" validate:"gte=0"`
	Direction         string `json:"direction"`
	UseSemanticRecall bool   `json:"use_semantic_recall"`
}

type CharacterPromptRequest struct {
	ProjectId         uuid.UUID
	Brief             string `json:"brief"`
	UseSemanticRecall bool   `json:"use_semantic_recall"`
}

type ConsistencyPromptRequest struct {
	ProjectId uuid.UUID
	// ChapterNumbers selects chapters of the project; empty means all of them.
	ChapterNumbers    []int `json:"chapter_numbers"`
	UseSemanticRecall bool  `json:"use_semantic_recall"`
}

type InjectContextResponse struct {
	SystemPrompt    string                    `json:"system_prompt"`
	UserPrompt      string                    `json:"user_prompt"`
	Context         *storycontext.Snapshot    `json:"context"`
	EstimatedTokens int                       `json:"estimated_tokens"`
	Related         []entity.SimilarityResult `json:"related,omitempty"`
}
