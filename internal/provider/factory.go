package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/54b3r/findai-go/internal/config"
)

// ConfigFromEnv resolves a [Config] from environment variables.
//
// Environment variables:
//
//	MODEL_PROVIDER = ollama | openai | azure | ark | gemini (default: ollama)
//
//	Ollama: OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (falls back to OLLAMA_LLM_MODEL)
//	OpenAI: OPENAI_API_KEY, OPENAI_MODEL (default: gpt-4o-mini), OPENAI_BASE_URL
//	Azure:  AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
//	        AZURE_OPENAI_API_VERSION (default: 2024-02-01)
//	Ark:    ARK_API_KEY, ARK_MODEL, ARK_BASE_URL
//	Gemini: GOOGLE_API_KEY, GEMINI_MODEL (default: gemini-1.5-flash)
//
//	Shared: MODEL_MAX_TOKENS (default: 1024), MODEL_TEMPERATURE (default: 0.2)
func ConfigFromEnv() *Config {
	return &Config{
		Backend: Backend(config.EnvOr("MODEL_PROVIDER", string(BackendOllama))),
		Ollama: ProviderOllama{
			Host:  config.EnvOr("OLLAMA_HOST", "http://localhost:11434"),
			Model: config.EnvOr("OLLAMA_MODEL", config.EnvOr("OLLAMA_LLM_MODEL", "gemma3n:e2b")),
		},
		OpenAI: ProviderOpenAI{
			APIKey:  config.EnvOr("OPENAI_API_KEY", ""),
			Model:   config.EnvOr("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: config.EnvOr("OPENAI_BASE_URL", ""),
		},
		AzureOpenAI: ProviderAzureOpenAI{
			APIKey:     config.EnvOr("AZURE_OPENAI_API_KEY", ""),
			Endpoint:   config.EnvOr("AZURE_OPENAI_ENDPOINT", ""),
			Deployment: config.EnvOr("AZURE_OPENAI_DEPLOYMENT", ""),
			APIVersion: config.EnvOr("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		},
		Ark: ProviderArk{
			APIKey:  config.EnvOr("ARK_API_KEY", ""),
			Model:   config.EnvOr("ARK_MODEL", ""),
			BaseURL: config.EnvOr("ARK_BASE_URL", ""),
		},
		Gemini: ProviderGemini{
			APIKey: config.EnvOr("GOOGLE_API_KEY", ""),
			Model:  config.EnvOr("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Tuning: SharedTuning{
			MaxTokens:   config.EnvInt("MODEL_MAX_TOKENS", 1024),
			Temperature: float32(config.EnvFloat("MODEL_TEMPERATURE", 0.2)),
		},
	}
}

// NewFromEnv constructs a chat model from [ConfigFromEnv].
func NewFromEnv(ctx context.Context) (model.BaseChatModel, *Config, error) {
	cfg := ConfigFromEnv()
	m, err := New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// New constructs a chat model from an explicit Config, delegating to the
// appropriate backend constructor. It validates the config first so callers
// get a clear error at startup rather than on the first request.
func New(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		m   model.BaseChatModel
		err error
	)
	switch cfg.Backend {
	case BackendOllama:
		m, err = newOllama(ctx, cfg)
	case BackendOpenAI:
		m, err = newOpenAI(ctx, cfg)
	case BackendAzure:
		m, err = newAzure(ctx, cfg)
	case BackendArk:
		m, err = newArk(ctx, cfg)
	case BackendGemini:
		m, err = newGemini(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("provider: %s: %w", cfg.Backend, err)
	}
	return m, nil
}
