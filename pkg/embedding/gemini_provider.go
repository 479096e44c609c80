package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultGeminiModel = "text-embedding-004"

type GeminiProvider struct {
	ApiKey   string
	BaseURL  string
	Model    string
	TaskType string
	Client   *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:   apiKey,
		BaseURL:  "https://generativelanguage.googleapis.com/v1",
		Model:    DefaultGeminiModel,
		TaskType: "RETRIEVAL_DOCUMENT",
		Client:   &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"task_type,omitempty"`
}

type geminiResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, text string, model string) (*EmbeddingResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if model == "" {
		model = p.Model
	}

	body, err := json.Marshal(geminiRequest{
		Model:    model,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: p.TaskType,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "gemini", StatusCode: res.StatusCode, Body: string(resByte)}
	}

	var resEmbedding geminiResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, err
	}

	return NewResponse(resEmbedding.Embedding.Values, model)
}
