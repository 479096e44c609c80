package main

import (
	"context"
	"testing"

	"ai-novelwriter-be/internal/config"
	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextBlock_KeepsHitsAboveThreshold(t *testing.T) {
	cfg := &config.Config{}
	cfg.Context.MaxTokens = 2000
	cfg.Search.Threshold = 0.5

	project := &entity.Project{
		Id:         uuid.New(),
		Title:      "The Glass Harbor",
		Characters: []entity.Character{{Id: uuid.New(), Name: "Mira", Description: "A cartographer."}},
	}
	results := []entity.SimilarityResult{
		{EntityType: entity.EntityTypeLore, EntityId: uuid.New(), Content: "The tide remembers every map.", Similarity: 0.9},
		{EntityType: entity.EntityTypeLore, EntityId: uuid.New(), Content: "Gulls nest on the lighthouse.", Similarity: 0.2},
	}

	res := contextBlock(context.Background(), project, "tide lore", results, cfg, logger.NewNopLogger())

	require.NotNil(t, res.Context)
	assert.Equal(t, "tide lore", res.UserPrompt)
	assert.Contains(t, res.SystemPrompt, "Mira")
	assert.Contains(t, res.SystemPrompt, "The tide remembers every map.")
	assert.NotContains(t, res.SystemPrompt, "Gulls nest")
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "strict"},
		{0.7, "moderate"},
		{0.45, "lenient"},
		{0.1, "below lenient"},
	}
	for _, tt := range tests {
		label, _ := levelOf(tt.score)
		assert.Equal(t, tt.want, label)
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
