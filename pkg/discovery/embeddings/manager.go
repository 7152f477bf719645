package embeddings

import (
	"fmt"
)

const defaultMaxCacheSize = 1000

// Config selects and parameterizes an embeddings Backend.
type Config struct {
	BackendType  string
	BaseURL      string
	Model        string
	Dimension    int
	EnableCache  bool
	MaxCacheSize int
}

// Manager wraps a Backend with an optional LRU cache keyed by source text.
type Manager struct {
	backend Backend
	cache   *cache
}

// NewManager builds the Backend named by cfg.BackendType and wraps it with a
// cache when enabled. It returns an error rather than falling back to a
// different backend when construction fails.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings: manager requires a config")
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{backend: backend}
	if cfg.EnableCache {
		maxSize := cfg.MaxCacheSize
		if maxSize <= 0 {
			maxSize = defaultMaxCacheSize
		}
		m.cache = newCache(maxSize)
	}
	return m, nil
}

func newBackend(cfg *Config) (Backend, error) {
	switch cfg.BackendType {
	case "ollama":
		return NewOllamaBackend(cfg.BaseURL, cfg.Model)
	case "vllm", "unified", "openai":
		return NewOpenAICompatibleBackend(cfg.BaseURL, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("embeddings: unknown backend type %q", cfg.BackendType)
	}
}

// GenerateEmbedding returns one vector per input text, serving cache hits
// directly and only calling the backend for misses.
func (m *Manager) GenerateEmbedding(texts []string) ([][]float32, error) {
	if m.cache == nil {
		return m.backend.GenerateEmbedding(texts)
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if cached := m.cache.Get(text); cached != nil {
			out[i] = cached
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := m.backend.GenerateEmbedding(missTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range missIdx {
		out[idx] = embedded[j]
		m.cache.Put(missTexts[j], embedded[j])
	}
	return out, nil
}

// Dimension reports the backend's embedding size.
func (m *Manager) Dimension() int { return m.backend.Dimension() }

// Close releases the underlying backend's resources.
func (m *Manager) Close() error { return m.backend.Close() }
