package mapper

import (
	"sort"
	"strings"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/model"
	"ai-novelwriter-be/internal/pkg/logger"
)

const projectMapperModule = "ProjectMapper"

type ProjectMapper struct {
	log logger.ILogger
}

func NewProjectMapper(log logger.ILogger) *ProjectMapper {
	return &ProjectMapper{log: log}
}

// worldCategory folds the free-form category column into the world-building types.
// Anything unrecognised becomes other.
func (m *ProjectMapper) worldCategory(w model.WorldEntry) entity.EntityType {
	raw := strings.ToLower(strings.TrimSpace(deref(w.Category)))
	switch category := entity.EntityType(raw); category {
	case entity.EntityTypeLocation, entity.EntityTypeLore, entity.EntityTypeOther:
		return category
	case "":
		return entity.EntityTypeOther
	}
	m.log.Warn(projectMapperModule, "Unknown world entry category, using other", map[string]interface{}{
		"id":       w.Id.String(),
		"category": deref(w.Category),
	})
	return entity.EntityTypeOther
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (m *ProjectMapper) ToEntity(p *model.Project) *entity.Project {
	if p == nil {
		return nil
	}

	project := &entity.Project{
		Id:        p.Id,
		Title:     p.Title,
		Genre:     p.Genre,
		Synopsis:  p.Synopsis,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	for _, c := range p.Characters {
		project.Characters = append(project.Characters, entity.Character{
			Id:          c.Id,
			Name:        c.Name,
			Role:        deref(c.Role),
			Description: deref(c.Description),
			Personality: deref(c.Personality),
			Backstory:   deref(c.Backstory),
		})
	}

	for _, w := range p.WorldEntries {
		project.WorldEntries = append(project.WorldEntries, entity.WorldEntry{
			Id:          w.Id,
			Name:        w.Name,
			Category:    m.worldCategory(w),
			Description: deref(w.Description),
		})
	}

	for _, c := range p.Chapters {
		wordCount := 0
		if c.WordCount != nil {
			wordCount = *c.WordCount
		}
		project.Chapters = append(project.Chapters, entity.Chapter{
			Id:        c.Id,
			Number:    c.Number,
			Title:     c.Title,
			Summary:   deref(c.Summary),
			Content:   deref(c.Content),
			WordCount: wordCount,
		})
	}
	sort.SliceStable(project.Chapters, func(i, j int) bool {
		return project.Chapters[i].Number < project.Chapters[j].Number
	})

	for _, t := range p.TimelineEvents {
		project.TimelineEvents = append(project.TimelineEvents, entity.TimelineEvent{
			Id:          t.Id,
			Position:    t.Position,
			Title:       t.Title,
			Description: deref(t.Description),
			StoryTime:   deref(t.StoryTime),
		})
	}
	sort.SliceStable(project.TimelineEvents, func(i, j int) bool {
		return project.TimelineEvents[i].Position < project.TimelineEvents[j].Position
	})

	return project
}
