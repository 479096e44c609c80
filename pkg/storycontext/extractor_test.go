package storycontext

import (
	"fmt"
	"strings"
	"testing"

	"ai-novelwriter-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() *entity.Project {
	return &entity.Project{
		Id:       uuid.New(),
		Title:    "The Glass Harbor",
		Genre:    "Fantasy",
		Synopsis: "A cartographer maps a city that rewrites itself every night.",
		Characters: []entity.Character{
			{Id: uuid.New(), Name: "Mira", Role: "protagonist", Description: "A young cartographer.", Personality: "Stubborn and curious."},
			{Id: uuid.New(), Name: "Oren", Description: "The harbor master."},
		},
		WorldEntries: []entity.WorldEntry{
			{Id: uuid.New(), Name: "Glass Harbor", Category: entity.EntityTypeLocation, Description: "A port city of shifting streets."},
			{Id: uuid.New(), Name: "Night Tide", Category: entity.EntityTypeLore},
		},
		Chapters: []entity.Chapter{
			{Id: uuid.New(), Number: 2, Title: "The Second Map", Summary: "Mira's map is wrong by morning."},
			{Id: uuid.New(), Number: 1, Title: "Arrival", Summary: "Mira arrives at the harbor."},
		},
		TimelineEvents: []entity.TimelineEvent{
			{Id: uuid.New(), Position: 1, Title: "The city first shifts", StoryTime: "Year 0"},
		},
	}
}

func TestExtractProjectContext_Formats(t *testing.T) {
	snapshot, err := NewExtractor(nil).ExtractProjectContext(sampleProject(), DefaultExtractOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Mira (protagonist): A young cartographer. Personality: Stubborn and curious.",
		"Oren: The harbor master.",
	}, snapshot.Characters)
	assert.Equal(t, []string{
		"Glass Harbor [location]: A port city of shifting streets.",
		"Night Tide [lore]",
	}, snapshot.WorldBuilding)
	assert.Equal(t, []string{"[Year 0] The city first shifts"}, snapshot.Timeline)
	assert.Equal(t, []string{
		"Chapter 1: Arrival - Mira arrives at the harbor.",
		"Chapter 2: The Second Map - Mira's map is wrong by morning.",
	}, snapshot.Chapters)
	assert.False(t, snapshot.Truncated)
	assert.Greater(t, snapshot.EstimatedTokens, 0)
}

func TestExtractProjectContext_DisabledBuckets(t *testing.T) {
	opts := DefaultExtractOptions()
	opts.IncludeCharacters = false
	opts.IncludeChapters = false

	snapshot, err := NewExtractor(nil).ExtractProjectContext(sampleProject(), opts)
	require.NoError(t, err)

	assert.Empty(t, snapshot.Characters)
	assert.Empty(t, snapshot.Chapters)
	assert.NotEmpty(t, snapshot.WorldBuilding)
	assert.NotEmpty(t, snapshot.Timeline)
}

func TestExtractProjectContext_RecentChapters(t *testing.T) {
	project := sampleProject()
	project.Chapters = nil
	for n := 1; n <= 8; n++ {
		project.Chapters = append(project.Chapters, entity.Chapter{Id: uuid.New(), Number: n, Title: fmt.Sprintf("Part %d", n)})
	}

	snapshot, err := NewExtractor(nil).ExtractProjectContext(project, DefaultExtractOptions())
	require.NoError(t, err)

	require.Len(t, snapshot.Chapters, DefaultRecentChapters)
	assert.Equal(t, "Chapter 4: Part 4", snapshot.Chapters[0])
	assert.Equal(t, "Chapter 8: Part 8", snapshot.Chapters[4])
}

func TestExtractProjectContext_PriorityUnderBudget(t *testing.T) {
	project := sampleProject()
	opts := DefaultExtractOptions()

	// Exactly the cost of both character lines.
	full, err := NewExtractor(nil).ExtractProjectContext(project, opts)
	require.NoError(t, err)
	opts.MaxTokens = EstimateTokens(full.Characters[0]) + EstimateTokens(full.Characters[1])

	snapshot, err := NewExtractor(nil).ExtractProjectContext(project, opts)
	require.NoError(t, err)

	assert.Equal(t, full.Characters, snapshot.Characters)
	assert.Empty(t, snapshot.WorldBuilding)
	assert.Empty(t, snapshot.Timeline)
	assert.Empty(t, snapshot.Chapters)
	assert.Equal(t, opts.MaxTokens, snapshot.EstimatedTokens)
	assert.True(t, snapshot.Truncated)
}

func TestExtractProjectContext_TruncatesOversizedItem(t *testing.T) {
	project := &entity.Project{
		Id:    uuid.New(),
		Title: "Long",
		Chapters: []entity.Chapter{
			{Id: uuid.New(), Number: 1, Title: "Only", Summary: strings.Repeat("word ", 60)},
			{Id: uuid.New(), Number: 2, Title: "Never", Summary: "short"},
		},
	}
	opts := DefaultExtractOptions()
	opts.MaxTokens = 10

	snapshot, err := NewExtractor(nil).ExtractProjectContext(project, opts)
	require.NoError(t, err)

	require.Len(t, snapshot.Chapters, 1)
	assert.True(t, strings.HasPrefix(snapshot.Chapters[0], "Chapter 1: Only - word"))
	assert.True(t, strings.HasSuffix(snapshot.Chapters[0], "..."))
	assert.True(t, snapshot.Truncated)
	assert.LessOrEqual(t, snapshot.EstimatedTokens, opts.MaxTokens)
}

func TestExtractProjectContext_BudgetNeverExceeded(t *testing.T) {
	project := sampleProject()
	for n := 3; n <= 30; n++ {
		project.Characters = append(project.Characters, entity.Character{
			Id:          uuid.New(),
			Name:        fmt.Sprintf("Extra %d", n),
			Description: strings.Repeat("detail ", n),
		})
	}

	for _, maxTokens := range []int{1, 5, 17, 64, 250, 2000} {
		opts := DefaultExtractOptions()
		opts.MaxTokens = maxTokens
		snapshot, err := NewExtractor(nil).ExtractProjectContext(project, opts)
		require.NoError(t, err)

		sum := 0
		for _, bucket := range [][]string{snapshot.Characters, snapshot.WorldBuilding, snapshot.Timeline, snapshot.Chapters} {
			for _, item := range bucket {
				sum += EstimateTokens(item)
			}
		}
		assert.Equal(t, sum, snapshot.EstimatedTokens, "maxTokens=%d", maxTokens)
		assert.LessOrEqual(t, snapshot.EstimatedTokens, maxTokens, "maxTokens=%d", maxTokens)
	}
}

func TestExtractProjectContext_NonPositiveMaxTokensUsesDefault(t *testing.T) {
	opts := DefaultExtractOptions()
	opts.MaxTokens = 0

	snapshot, err := NewExtractor(nil).ExtractProjectContext(sampleProject(), opts)
	require.NoError(t, err)
	assert.False(t, snapshot.Truncated)
	assert.Len(t, snapshot.Characters, 2)
}

func TestExtractProjectContext_RelatedFirstAndDeduplicated(t *testing.T) {
	project := sampleProject()
	oren := project.Characters[1]

	opts := DefaultExtractOptions()
	opts.Related = []entity.SimilarityResult{
		{EntityType: entity.EntityTypeCharacter, EntityId: oren.Id, Content: "Oren keeps the harbor ledgers.", Similarity: 0.9},
		{EntityType: entity.EntityTypeCharacter, EntityId: oren.Id, Content: "duplicate", Similarity: 0.8},
	}

	snapshot, err := NewExtractor(nil).ExtractProjectContext(project, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Oren keeps the harbor ledgers.",
		"Mira (protagonist): A young cartographer. Personality: Stubborn and curious.",
	}, snapshot.Characters)
}

func TestExtractProjectContext_Malformed(t *testing.T) {
	extractor := NewExtractor(nil)

	_, err := extractor.ExtractProjectContext(nil, DefaultExtractOptions())
	assert.ErrorIs(t, err, ErrMalformedProject)

	project := sampleProject()
	project.Characters[0].Name = ""
	_, err = extractor.ExtractProjectContext(project, DefaultExtractOptions())
	assert.ErrorIs(t, err, ErrMalformedProject)

	project = sampleProject()
	project.WorldEntries[0].Category = entity.EntityTypeChapter
	_, err = extractor.ExtractProjectContext(project, DefaultExtractOptions())
	assert.ErrorIs(t, err, ErrMalformedProject)
}

func TestExtractProjectContext_CustomEstimator(t *testing.T) {
	wordCount := func(text string) int { return len(strings.Fields(text)) }
	opts := DefaultExtractOptions()
	opts.MaxTokens = 4

	snapshot, err := NewExtractor(wordCount).ExtractProjectContext(sampleProject(), opts)
	require.NoError(t, err)

	assert.LessOrEqual(t, snapshot.EstimatedTokens, 4)
	assert.True(t, snapshot.Truncated)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("héé"))
}

func TestTruncateToTokens(t *testing.T) {
	assert.Equal(t, "", truncateToTokens("anything", 0, EstimateTokens))
	assert.Equal(t, "short", truncateToTokens("short", 5, EstimateTokens))

	cut := truncateToTokens(strings.Repeat("a", 100), 3, EstimateTokens)
	assert.Equal(t, strings.Repeat("a", 9)+"...", cut)
}
