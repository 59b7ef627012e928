package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/findai-go/internal/remote"
)

// op is the operation name attached to every error from this package.
const op = "embedder"

// defaultTimeout bounds a single embedding call when the config leaves it unset.
const defaultTimeout = 60 * time.Second

// OllamaEmbedder implements rag.Embedder using the Ollama /api/embeddings
// endpoint. It is safe for concurrent use. No API key is required.
type OllamaEmbedder struct {
	// host is the Ollama server base URL (e.g. "http://localhost:11434").
	host string
	// model is the embedding model name (e.g. "nomic-embed-text").
	model string
	// timeout bounds each call.
	timeout time.Duration
	// client is the shared HTTP client.
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string `validate:"required,url"`
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string `validate:"required"`
	// Timeout bounds each call. Zero means 60s.
	Timeout time.Duration `validate:"gte=0"`
	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client `validate:"-"`
}

// NewOllamaEmbedder constructs an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaEmbedder{
		host:    strings.TrimRight(cfg.Host, "/"),
		model:   cfg.Model,
		timeout: timeout,
		client:  client,
	}
}

// ollamaEmbedRequest is the JSON body sent to the Ollama /api/embeddings endpoint.
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse is the JSON body returned from the Ollama /api/embeddings endpoint.
type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for text. Failures are [*remote.Error]
// values classified as unreachable, timeout or bad response.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: marshal request: %w", err)
	}

	url := e.host + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, remote.New(op, remote.KindUnreachable, "create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	defer resp.Body.Close()

	if err := remote.CheckStatus(op, resp); err != nil {
		return nil, err
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return nil, remote.Classify(op, ctx.Err())
		}
		return nil, remote.New(op, remote.KindBadResponse, "decode response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, remote.New(op, remote.KindBadResponse, "response has no embedding")
	}

	return result.Embedding, nil
}
