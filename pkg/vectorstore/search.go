package vectorstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"ai-novelwriter-be/internal/entity"
	"ai-novelwriter-be/internal/repository/specification"
	"ai-novelwriter-be/pkg/similarity"

	"github.com/google/uuid"
)

const (
	DefaultSearchThreshold = 0.4
	DefaultSearchLimit     = 10
)

var ErrEmptyQuery = errors.New("semantic search query text is empty")

// SearchQuery narrows a semantic search. Nil filters match everything.
type SearchQuery struct {
	ProjectId  *uuid.UUID
	EntityType *entity.EntityType
	QueryText  string
	// Threshold defaults to DefaultSearchThreshold when nil.
	Threshold *float64
	// Limit defaults to DefaultSearchLimit when not positive.
	Limit int
	// Model used for the query embedding; candidates embedded by another model are ignored.
	Model string
}

// SemanticSearch ranks stored records by cosine similarity to the query text.
// Rows with unreadable or mismatched embeddings are skipped.
func (s *Store) SemanticSearch(ctx context.Context, q SearchQuery) ([]entity.SimilarityResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.QueryText) == "" {
		return nil, ErrEmptyQuery
	}

	threshold := DefaultSearchThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query, err := s.embed(ctx, q.QueryText, q.Model)
	if err != nil {
		return nil, err
	}

	specs := []specification.Specification{specification.ByModel{Model: query.Model}}
	if q.ProjectId != nil {
		specs = append(specs, specification.ByProjectID{ProjectID: *q.ProjectId})
	}
	if q.EntityType != nil {
		specs = append(specs, specification.ByEntityType{EntityType: *q.EntityType})
	}
	specs = append(specs, specification.OrderBy{Field: "created_at"}, specification.OrderBy{Field: "id"})

	candidates, err := s.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	results := make([]entity.SimilarityResult, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			skipped++
			continue
		}
		sim, err := similarity.CosineSimilarity(query.Values, c.Embedding)
		if err != nil {
			s.log.Warn(module, "Skipping candidate with mismatched dimensions", map[string]interface{}{
				"id":    c.Id.String(),
				"error": err.Error(),
			})
			skipped++
			continue
		}
		if sim < threshold {
			continue
		}
		results = append(results, entity.SimilarityResult{
			Id:         c.Id,
			ProjectId:  c.ProjectId,
			EntityType: c.EntityType,
			EntityId:   c.EntityId,
			Content:    c.Content,
			Similarity: sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.log.Debug(module, "Semantic search finished", map[string]interface{}{
		"candidates": len(candidates),
		"skipped":    skipped,
		"results":    len(results),
		"threshold":  threshold,
		"model":      query.Model,
	})
	return results, nil
}
