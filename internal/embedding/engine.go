// Package embedding generates vector embeddings for note content.
// Two providers are supported: a local Ollama server and Google's
// Gemini API.
package embedding

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Engine turns text into a fixed-dimension vector.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int

	// Name identifies the provider and model, e.g. "ollama:embeddinggemma".
	Name() string
}

// Config selects and configures an embedding provider.
type Config struct {
	// Provider is "ollama" or "genai".
	Provider string `yaml:"provider"`

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`
}

// DefaultConfig returns a local-first default setup.
func DefaultConfig() Config {
	return Config{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
	}
}

// New creates an engine for the configured provider.
func New(cfg Config, log *zap.Logger) (Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Provider {
	case "ollama":
		log.Debug("creating ollama embedding engine",
			zap.String("endpoint", cfg.OllamaEndpoint),
			zap.String("model", cfg.OllamaModel))
		return NewOllama(cfg.OllamaEndpoint, cfg.OllamaModel), nil
	case "genai":
		log.Debug("creating genai embedding engine", zap.String("model", cfg.GenAIModel))
		return NewGenAI(cfg.GenAIAPIKey, cfg.GenAIModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q (use \"ollama\" or \"genai\")", cfg.Provider)
	}
}

// Cosine computes the cosine similarity of two vectors. The result is in
// [-1, 1]; zero-magnitude vectors yield 0 rather than an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
