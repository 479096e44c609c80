package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ai-novelwriter-be/pkg/embedding"
)

const DefaultModel = "jina-embeddings-v2-base-en"

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey, model string) *JinaProvider {
	if model == "" {
		model = DefaultModel
	}
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   model,
		client:  &http.Client{},
	}
}

// WithBaseURL points the provider at another endpoint. Empty keeps the current one.
func (p *JinaProvider) WithBaseURL(url string) *JinaProvider {
	if url != "" {
		p.baseURL = url
	}
	return p
}

func (p *JinaProvider) GenerateEmbedding(ctx context.Context, text string, model string) (*embedding.EmbeddingResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyText
	}
	if model == "" {
		model = p.model
	}

	jsonData, err := json.Marshal(embeddingRequest{Model: model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &embedding.StatusError{Provider: "jina", StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}
	if len(jinaResp.Data) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	return embedding.NewResponse(jinaResp.Data[0].Embedding, model)
}
