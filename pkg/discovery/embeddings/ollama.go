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

// ollamaBackend talks to a local Ollama server's /api/embeddings endpoint.
type ollamaBackend struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaBackend builds a Backend against an Ollama server, probing its
// root endpoint to fail fast if the server is unreachable.
func NewOllamaBackend(baseURL, model string) (Backend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embeddings: ollama backend requires a base URL")
	}
	if model == "" {
		return nil, fmt.Errorf("embeddings: ollama backend requires a model name")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("embeddings: failed to connect to ollama at %s: %w", baseURL, err)
	}
	_ = resp.Body.Close()

	logger.Infof("embeddings: connected to ollama backend (model=%s, url=%s)", model, baseURL)
	return &ollamaBackend{baseURL: baseURL, model: model, dimension: 0, client: client}, nil
}

func (o *ollamaBackend) embedOne(text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embeddings: failed to marshal ollama request: %w", err)
	}

	resp, err := o.client.Post(o.baseURL+"/api/embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embeddings: ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings: ollama returned %d: %s", resp.StatusCode, raw)
	}

	var decoded ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("embeddings: failed to decode ollama response: %w", err)
	}
	return decoded.Embedding, nil
}

func (o *ollamaBackend) GenerateEmbedding(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := o.embedOne(text)
		if err != nil {
			return nil, fmt.Errorf("embeddings: text %d: %w", i, err)
		}
		if o.dimension == 0 {
			o.dimension = len(emb)
		}
		out[i] = emb
	}
	return out, nil
}

func (o *ollamaBackend) Dimension() int { return o.dimension }

func (*ollamaBackend) Close() error { return nil }
