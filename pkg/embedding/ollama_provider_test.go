package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_GenerateEmbedding(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "nomic-embed-text")

	t.Run("default model is recorded", func(t *testing.T) {
		res, err := provider.GenerateEmbedding(context.Background(), "the lighthouse keeper", "")
		require.NoError(t, err)
		assert.Equal(t, "nomic-embed-text", gotModel)
		assert.Equal(t, "nomic-embed-text", res.Model)
		assert.Equal(t, 2, res.Dimensions)
		assert.InDelta(t, 0.6, res.Values[0], 1e-6)
		assert.InDelta(t, 0.8, res.Values[1], 1e-6)
	})

	t.Run("explicit model overrides default", func(t *testing.T) {
		res, err := provider.GenerateEmbedding(context.Background(), "storm", "mxbai-embed-large")
		require.NoError(t, err)
		assert.Equal(t, "mxbai-embed-large", gotModel)
		assert.Equal(t, "mxbai-embed-large", res.Model)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := provider.GenerateEmbedding(context.Background(), "   ", "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestOllamaProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "").GenerateEmbedding(context.Background(), "text", "")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.False(t, statusErr.Temporary())
}
