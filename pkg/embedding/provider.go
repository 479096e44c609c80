package embedding

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyText      = errors.New("cannot embed empty text")
	ErrEmptyEmbedding = errors.New("provider returned an empty embedding")
)

// EmbeddingProvider turns text into a vector. Implementations do not retry;
// wrap them with NewRetryingProvider where a caller wants that.
type EmbeddingProvider interface {
	// GenerateEmbedding embeds text with model, or with the provider default when model is empty.
	GenerateEmbedding(ctx context.Context, text string, model string) (*EmbeddingResponse, error)
}

// EmbeddingResponse records which model produced the vector and its length.
type EmbeddingResponse struct {
	Values     []float32
	Model      string
	Dimensions int
}

// NewResponse wraps a vector, rejecting empty ones.
func NewResponse(values []float32, model string) (*EmbeddingResponse, error) {
	if len(values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return &EmbeddingResponse{
		Values:     values,
		Model:      model,
		Dimensions: len(values),
	}, nil
}

// StatusError is a non-200 answer from an embedding API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s embedding error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
