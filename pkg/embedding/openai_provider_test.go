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

func newOpenAIServer(t *testing.T, gotModel *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer openai-key", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float32{0.5, 0.5, 0.5, 0.5}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_GenerateEmbedding(t *testing.T) {
	var gotModel string
	srv := newOpenAIServer(t, &gotModel)

	t.Run("empty constructor model uses the OpenAI default", func(t *testing.T) {
		res, err := NewOpenAIProvider("openai-key", srv.URL, "").GenerateEmbedding(context.Background(), "harbor", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultOpenAIModel, gotModel)
		assert.Equal(t, DefaultOpenAIModel, res.Model)
		assert.Equal(t, 4, res.Dimensions)
	})

	t.Run("configured model", func(t *testing.T) {
		res, err := NewOpenAIProvider("openai-key", srv.URL, "text-embedding-3-large").GenerateEmbedding(context.Background(), "harbor", "")
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-large", gotModel)
		assert.Equal(t, "text-embedding-3-large", res.Model)
	})

	t.Run("call model wins", func(t *testing.T) {
		res, err := NewOpenAIProvider("openai-key", srv.URL, "").GenerateEmbedding(context.Background(), "harbor", "custom")
		require.NoError(t, err)
		assert.Equal(t, "custom", gotModel)
		assert.Equal(t, "custom", res.Model)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := NewOpenAIProvider("openai-key", srv.URL, "").GenerateEmbedding(context.Background(), " ", "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("openai-key", srv.URL, "").GenerateEmbedding(context.Background(), "harbor", "")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "openai", statusErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Incorrect API key")
	assert.False(t, statusErr.Temporary())
}
