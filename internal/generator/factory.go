package generator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/findai-go/internal/budget"
	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/provider"
	"github.com/54b3r/findai-go/internal/rag"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "gemma3n:e2b"
)

// Backend names accepted by GENERATION_BACKEND.
const (
	BackendOllama   = "ollama"
	BackendProvider = "provider"
)

// NewFromEnv constructs a rag.Generator from environment variables.
//
//	GENERATION_BACKEND       = ollama (default) | provider
//	OLLAMA_HOST              (default: http://localhost:11434)
//	OLLAMA_LLM_MODEL         (default: gemma3n:e2b)
//	GENERATION_TIMEOUT       per-call timeout, falling back to OLLAMA_TIMEOUT and then
//	                         RAG_GENERATE_TIMEOUT (default 120s)
//	GENERATION_SYSTEM_PROMPT provider backend only; "-" sends no system message
//	GENERATION_MAX_CONTEXT_TOKENS provider backend only
//
// With the provider backend, MODEL_PROVIDER and its credentials select the
// chat model (see provider.ConfigFromEnv). handlers are attached to every
// chat model call.
func NewFromEnv(ctx context.Context, handlers ...callbacks.Handler) (rag.Generator, string, error) {
	timeout := config.EnvDuration("GENERATION_TIMEOUT", config.EnvDuration("OLLAMA_TIMEOUT",
		config.EnvDuration("RAG_GENERATE_TIMEOUT", rag.DefaultGenerateTimeout)))

	switch backend := config.EnvOr("GENERATION_BACKEND", BackendOllama); backend {
	case BackendOllama:
		cfg := &OllamaConfig{
			Host:    config.EnvOr("OLLAMA_HOST", defaultOllamaHost),
			Model:   config.EnvOr("OLLAMA_LLM_MODEL", defaultOllamaModel),
			Timeout: timeout,
		}
		if err := config.Validate(cfg); err != nil {
			return nil, "", fmt.Errorf("generator: ollama: %w", err)
		}
		return NewOllamaGenerator(cfg), cfg.Model, nil

	case BackendProvider:
		m, pcfg, err := provider.NewFromEnv(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("generator: %w", err)
		}
		gen := NewChatModelGenerator(m, &ChatModelConfig{
			Name:             string(pcfg.Backend),
			SystemPrompt:     config.EnvOr("GENERATION_SYSTEM_PROMPT", ""),
			MaxContextTokens: config.EnvInt("GENERATION_MAX_CONTEXT_TOKENS", budget.DefaultMaxContextTokens),
			Timeout:          timeout,
			Handlers:         handlers,
		})
		return gen, pcfg.ModelName(), nil

	default:
		return nil, "", fmt.Errorf("generator: unknown backend %q (valid values: ollama, provider)", backend)
	}
}

// OllamaModel returns the generation model the ollama backend would resolve,
// for diagnostics.
func OllamaModel() string {
	return config.EnvOr("OLLAMA_LLM_MODEL", defaultOllamaModel)
}
