// Package config provides YAML-based configuration for findai.
// Configuration is loaded with a layered precedence: defaults → .env file →
// YAML file → env vars. Environment variables always win.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. FINDAI_CONFIG environment variable
//  3. ~/.findai/config.yaml
//  4. ./findai.yaml
//
// A .env file in the working directory (or FINDAI_ENV_FILE) is read first and
// never overrides variables that are already set. If no YAML file is found
// the system runs entirely from env vars.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Index locates the pre-built corpus artifacts.
	Index IndexConfig `yaml:"index"`

	// Ollama configures the shared Ollama endpoint.
	Ollama OllamaConfig `yaml:"ollama"`

	// Embedding configures the query embedding backend.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Generation configures the answer generation backend.
	Generation GenerationConfig `yaml:"generation"`

	// Model configures the chat model provider used when generation.backend is "provider".
	Model ModelConfig `yaml:"model"`

	// RAG configures the retrieval orchestrator.
	RAG RAGConfig `yaml:"rag"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// History configures the answered-question log.
	History HistoryConfig `yaml:"history"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// IndexConfig holds artifact paths.
type IndexConfig struct {
	// EmbeddingsPath is the embeddings matrix (.npy or .json).
	EmbeddingsPath string `yaml:"embeddings_path"`
	// TextsPath is the passage list (.pkl, .json or .jsonl).
	TextsPath string `yaml:"texts_path"`
}

// OllamaConfig holds the Ollama endpoint shared by embedding and generation.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// Timeout is the per-call timeout, e.g. "60s".
	Timeout string `yaml:"timeout"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (ollama, openai, azure).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size (openai/azure only).
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// GenerationConfig holds generation backend settings.
type GenerationConfig struct {
	// Backend selects ollama (plain /api/generate) or provider (chat model).
	Backend string `yaml:"backend"`
	// Model is the Ollama generation model name.
	Model string `yaml:"model"`
	// SystemPrompt is prepended as a system message by the chat model backend.
	SystemPrompt string `yaml:"system_prompt"`
}

// ModelConfig holds chat model provider settings.
type ModelConfig struct {
	// Provider selects the backend: ollama, openai, azure, ark, gemini.
	Provider string `yaml:"provider"`

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls response randomness (0.0–1.0).
	Temperature float32 `yaml:"temperature"`

	// Ollama holds the chat model name used with the ollama provider.
	Ollama ModelOllamaConfig `yaml:"ollama"`

	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig `yaml:"azure"`

	// Ark holds Volcengine Ark-specific settings.
	Ark ArkConfig `yaml:"ark"`

	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`
}

// ModelOllamaConfig holds the Ollama chat model name.
type ModelOllamaConfig struct {
	// Model is the Ollama model name.
	Model string `yaml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the OpenAI model name.
	Model string `yaml:"model"`
	// BaseURL overrides the API base for OpenAI-compatible servers.
	BaseURL string `yaml:"base_url"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string `yaml:"endpoint"`
	// Deployment is the Azure OpenAI deployment name.
	Deployment string `yaml:"deployment"`
	// APIVersion is the Azure OpenAI API version.
	APIVersion string `yaml:"api_version"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	// APIKey is the Ark API key. Prefer env var ARK_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Ark endpoint/model ID.
	Model string `yaml:"model"`
	// BaseURL overrides the Ark API base.
	BaseURL string `yaml:"base_url"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model"`
}

// RAGConfig holds orchestrator tuning.
type RAGConfig struct {
	// DefaultK is the number of passages retrieved when a request omits it.
	DefaultK int `yaml:"default_k"`
	// MaxQuestionLength bounds the question in characters.
	MaxQuestionLength int `yaml:"max_question_length"`
	// ExcerptLength bounds each source excerpt in characters.
	ExcerptLength int `yaml:"excerpt_length"`
	// SimilarityCutoff is reported in response metadata.
	SimilarityCutoff float32 `yaml:"similarity_cutoff"`
	// MaxAttempts bounds attempts per remote call (1 disables retry).
	MaxAttempts int `yaml:"max_attempts"`
	// RetryBackoff is the initial retry interval, e.g. "250ms".
	RetryBackoff string `yaml:"retry_backoff"`
	// EmbedTimeout bounds the embedding step, e.g. "30s".
	EmbedTimeout string `yaml:"embed_timeout"`
	// GenerateTimeout bounds the generation step, e.g. "120s".
	GenerateTimeout string `yaml:"generate_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
	// APIKey is the Bearer token for API authentication. Prefer env var FINDAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is the sustained /chat requests per second per client IP.
	RateLimit float32 `yaml:"rate_limit"`
	// RateBurst is the /chat burst size per client IP.
	RateBurst int `yaml:"rate_burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// HistoryConfig holds exchange log settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"FINDAI_EMBEDDINGS_PATH", func(c *Config) string { return c.Index.EmbeddingsPath }},
	{"FINDAI_TEXTS_PATH", func(c *Config) string { return c.Index.TextsPath }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Ollama.Host }},
	{"OLLAMA_TIMEOUT", func(c *Config) string { return c.Ollama.Timeout }},
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"GENERATION_BACKEND", func(c *Config) string { return c.Generation.Backend }},
	{"OLLAMA_LLM_MODEL", func(c *Config) string { return c.Generation.Model }},
	{"GENERATION_SYSTEM_PROMPT", func(c *Config) string { return c.Generation.SystemPrompt }},
	{"MODEL_PROVIDER", func(c *Config) string { return c.Model.Provider }},
	{"MODEL_MAX_TOKENS", func(c *Config) string { return intStr(c.Model.MaxTokens) }},
	{"MODEL_TEMPERATURE", func(c *Config) string { return float32Str(c.Model.Temperature) }},
	{"OLLAMA_MODEL", func(c *Config) string { return c.Model.Ollama.Model }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Model.OpenAI.APIKey }},
	{"OPENAI_MODEL", func(c *Config) string { return c.Model.OpenAI.Model }},
	{"OPENAI_BASE_URL", func(c *Config) string { return c.Model.OpenAI.BaseURL }},
	{"AZURE_OPENAI_API_KEY", func(c *Config) string { return c.Model.Azure.APIKey }},
	{"AZURE_OPENAI_ENDPOINT", func(c *Config) string { return c.Model.Azure.Endpoint }},
	{"AZURE_OPENAI_DEPLOYMENT", func(c *Config) string { return c.Model.Azure.Deployment }},
	{"AZURE_OPENAI_API_VERSION", func(c *Config) string { return c.Model.Azure.APIVersion }},
	{"ARK_API_KEY", func(c *Config) string { return c.Model.Ark.APIKey }},
	{"ARK_MODEL", func(c *Config) string { return c.Model.Ark.Model }},
	{"ARK_BASE_URL", func(c *Config) string { return c.Model.Ark.BaseURL }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.Model.Gemini.APIKey }},
	{"GEMINI_MODEL", func(c *Config) string { return c.Model.Gemini.Model }},
	{"RAG_DEFAULT_K", func(c *Config) string { return intStr(c.RAG.DefaultK) }},
	{"RAG_MAX_QUESTION_LENGTH", func(c *Config) string { return intStr(c.RAG.MaxQuestionLength) }},
	{"RAG_EXCERPT_LENGTH", func(c *Config) string { return intStr(c.RAG.ExcerptLength) }},
	{"RAG_SIMILARITY_CUTOFF", func(c *Config) string { return float32Str(c.RAG.SimilarityCutoff) }},
	{"RAG_MAX_ATTEMPTS", func(c *Config) string { return intStr(c.RAG.MaxAttempts) }},
	{"RAG_RETRY_BACKOFF", func(c *Config) string { return c.RAG.RetryBackoff }},
	{"RAG_EMBED_TIMEOUT", func(c *Config) string { return c.RAG.EmbedTimeout }},
	{"RAG_GENERATE_TIMEOUT", func(c *Config) string { return c.RAG.GenerateTimeout }},
	{"FINDAI_HOST", func(c *Config) string { return c.Server.Host }},
	{"RAG_BACKEND_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"FINDAI_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"FINDAI_CORS_ORIGINS", func(c *Config) string { return strings.Join(c.Server.CORSOrigins, ",") }},
	{"FINDAI_RATE_LIMIT", func(c *Config) string { return float32Str(c.Server.RateLimit) }},
	{"FINDAI_RATE_BURST", func(c *Config) string { return intStr(c.Server.RateBurst) }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"FINDAI_HISTORY_DB", func(c *Config) string { return c.History.DBPath }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// Load reads the .env file and a YAML config file, applying non-empty values
// as environment variables. Existing env vars are never overwritten.
// Returns the YAML path that was loaded, or empty string if none was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	if err := loadDotEnv(log); err != nil {
		return "", err
	}

	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" || yamlVal == "false" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// loadDotEnv applies FINDAI_ENV_FILE (or ./.env) without overriding set vars.
// A missing default file is not an error; a missing explicit file is.
func loadDotEnv(log *slog.Logger) error {
	path := os.Getenv("FINDAI_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	log.Debug("config: loaded env file", slog.String("path", path))
	return nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("FINDAI_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".findai", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("findai.yaml"); err == nil {
		return "findai.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
