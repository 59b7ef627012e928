package embedder

import (
	"fmt"

	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultOllamaHost  = "http://localhost:11434"
)

// NewFromEnv constructs a rag.Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER - ollama (default), openai or azure
//  2. EMBEDDING_MODEL - overrides the model; for ollama OLLAMA_EMBED_MODEL is also honoured
//  3. EMBEDDING_API_KEY - overrides the inherited OPENAI_API_KEY / AZURE_OPENAI_API_KEY
//  4. EMBEDDING_ENDPOINT - overrides OLLAMA_HOST / the OpenAI base URL / AZURE_OPENAI_ENDPOINT
//  5. EMBEDDING_DIMENSIONS - requested vector size (openai/azure only; 0 = model default)
//  6. EMBEDDING_TIMEOUT - per-call timeout, falling back to OLLAMA_TIMEOUT and then
//     RAG_EMBED_TIMEOUT (default 30s)
//
// The resolved config is validated before the embedder is built.
func NewFromEnv() (rag.Embedder, error) {
	backend := config.EnvOr("EMBEDDING_PROVIDER", "ollama")
	timeout := config.EnvDuration("EMBEDDING_TIMEOUT", config.EnvDuration("OLLAMA_TIMEOUT",
		config.EnvDuration("RAG_EMBED_TIMEOUT", rag.DefaultEmbedTimeout)))

	switch backend {
	case "ollama":
		host := config.EnvOr("EMBEDDING_ENDPOINT", config.EnvOr("OLLAMA_HOST", defaultOllamaHost))
		model := config.EnvOr("EMBEDDING_MODEL", config.EnvOr("OLLAMA_EMBED_MODEL", defaultOllamaModel))
		cfg := &OllamaConfig{Host: host, Model: model, Timeout: timeout}
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("embedder: ollama: %w", err)
		}
		return NewOllamaEmbedder(cfg), nil

	case "openai":
		cfg := &OpenAIConfig{
			BaseURL:    config.EnvOr("EMBEDDING_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:     config.EnvOr("EMBEDDING_API_KEY", config.EnvOr("OPENAI_API_KEY", "")),
			Model:      config.EnvOr("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: config.EnvInt("EMBEDDING_DIMENSIONS", 0),
			Timeout:    timeout,
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("embedder: openai: %w", err)
		}
		return NewOpenAIEmbedder(cfg), nil

	case "azure":
		endpoint := config.EnvOr("EMBEDDING_ENDPOINT", config.EnvOr("AZURE_OPENAI_ENDPOINT", ""))
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		cfg := &OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     config.EnvOr("EMBEDDING_API_KEY", config.EnvOr("AZURE_OPENAI_API_KEY", "")),
			Model:      config.EnvOr("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: config.EnvInt("EMBEDDING_DIMENSIONS", 0),
			Azure:      true,
			APIVersion: config.EnvOr("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
			Timeout:    timeout,
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("embedder: azure: %w", err)
		}
		return NewOpenAIEmbedder(cfg), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q (valid values: ollama, openai, azure)", backend)
	}
}

// Model returns the embedding model name NewFromEnv would resolve, for
// diagnostics.
func Model() string {
	if config.EnvOr("EMBEDDING_PROVIDER", "ollama") == "ollama" {
		return config.EnvOr("EMBEDDING_MODEL", config.EnvOr("OLLAMA_EMBED_MODEL", defaultOllamaModel))
	}
	return config.EnvOr("EMBEDDING_MODEL", defaultOpenAIModel)
}
