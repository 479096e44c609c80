package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"ai-novelwriter-be/internal/entity"
)

// BatchFailure is one item BatchCreate could not store.
type BatchFailure struct {
	Index   int
	Content entity.EmbeddableContent
	Err     error
}

// BatchError lists the failed items of a BatchCreate call.
type BatchError struct {
	Failures []BatchFailure
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("item %d (%s/%s): %v", f.Index, f.Content.EntityType, f.Content.EntityId, f.Err)
	}
	return fmt.Sprintf("batch create failed for %d item(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// BatchCreate runs GetOrCreate for each item in order. It is not transactional:
// the returned records are the items that succeeded, and a *BatchError names the rest.
// A cancelled context stops the batch and marks the remaining items failed.
func (s *Store) BatchCreate(ctx context.Context, contents []entity.EmbeddableContent, model string) ([]*entity.VectorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	records := make([]*entity.VectorRecord, 0, len(contents))
	var failures []BatchFailure

	for i, c := range contents {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(contents); j++ {
				failures = append(failures, BatchFailure{Index: j, Content: contents[j], Err: err})
			}
			break
		}

		record, err := s.GetOrCreate(ctx, c, model)
		if err != nil {
			s.log.Warn(module, "Batch item failed", map[string]interface{}{
				"index":      i,
				"entityType": string(c.EntityType),
				"entityId":   c.EntityId.String(),
				"error":      err.Error(),
			})
			failures = append(failures, BatchFailure{Index: i, Content: c, Err: err})
			continue
		}
		records = append(records, record)
	}

	if len(failures) > 0 {
		return records, &BatchError{Failures: failures}
	}
	return records, nil
}
