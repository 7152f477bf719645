package embeddings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/logger"
)

// openAICompatibleBackend talks to any /v1/embeddings-shaped service: vLLM,
// OpenAI itself, or Ollama's OpenAI-compatible surface.
type openAICompatibleBackend struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

type openaiEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewOpenAICompatibleBackend builds a Backend against an OpenAI-compatible
// embeddings endpoint.
func NewOpenAICompatibleBackend(baseURL, model string, dimension int) (Backend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embeddings: openai-compatible backend requires a base URL")
	}
	if model == "" {
		return nil, fmt.Errorf("embeddings: openai-compatible backend requires a model name")
	}
	if dimension == 0 {
		dimension = 384
	}

	logger.Infof("embeddings: initializing openai-compatible backend (model=%s, url=%s)", model, baseURL)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("embeddings: failed to connect to %s: %w", baseURL, err)
	}
	_ = resp.Body.Close()

	return &openAICompatibleBackend{
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
		client:    client,
	}, nil
}

func (o *openAICompatibleBackend) GenerateEmbedding(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := o.embedOne(text)
		if err != nil {
			return nil, fmt.Errorf("embeddings: text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

func (o *openAICompatibleBackend) embedOne(text string) ([]float32, error) {
	body, err := json.Marshal(openaiEmbedRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := o.client.Post(o.baseURL+"/v1/embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to call embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, raw)
	}

	var decoded openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("no embeddings in response")
	}
	return decoded.Data[0].Embedding, nil
}

func (o *openAICompatibleBackend) Dimension() int { return o.dimension }

func (*openAICompatibleBackend) Close() error { return nil }
