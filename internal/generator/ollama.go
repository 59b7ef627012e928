package generator

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

// defaultTimeout bounds a single generation call when the config leaves it unset.
const defaultTimeout = 60 * time.Second

// OllamaGenerator implements rag.Generator using the Ollama /api/generate
// endpoint with streaming disabled. It is safe for concurrent use.
type OllamaGenerator struct {
	// host is the Ollama server base URL.
	host string
	// model is the generation model name (e.g. "gemma3n:e2b").
	model string
	// options is passed through as the request "options" object.
	options map[string]any
	// timeout bounds each call.
	timeout time.Duration
	// client is the shared HTTP client.
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaGenerator.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string `validate:"required,url"`
	// Model is the generation model name.
	Model string `validate:"required"`
	// Options are model parameters such as temperature or num_ctx. Optional.
	Options map[string]any `validate:"-"`
	// Timeout bounds each call. Zero means 60s.
	Timeout time.Duration `validate:"gte=0"`
	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client `validate:"-"`
}

// NewOllamaGenerator constructs an OllamaGenerator from the given config.
func NewOllamaGenerator(cfg *OllamaConfig) *OllamaGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaGenerator{
		host:    strings.TrimRight(cfg.Host, "/"),
		model:   cfg.Model,
		options: cfg.Options,
		timeout: timeout,
		client:  client,
	}
}

// ollamaGenerateRequest is the JSON body sent to /api/generate.
type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaGenerateResponse is the JSON body returned from /api/generate.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Generate sends the rendered prompt and returns the model's answer.
// A blank answer is a [remote.KindEmptyResponse] failure.
func (g *OllamaGenerator) Generate(ctx context.Context, passages, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   g.model,
		Prompt:  BuildPrompt(passages, question),
		Stream:  false,
		Options: g.options,
	})
	if err != nil {
		return "", fmt.Errorf("ollama generator: marshal request: %w", err)
	}

	url := g.host + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", remote.New(op, remote.KindUnreachable, "create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", remote.Classify(op, err)
	}
	defer resp.Body.Close()

	if err := remote.CheckStatus(op, resp); err != nil {
		return "", err
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return "", remote.Classify(op, ctx.Err())
		}
		return "", remote.New(op, remote.KindBadResponse, "decode response: %w", err)
	}

	answer := strings.TrimSpace(result.Response)
	if answer == "" {
		return "", remote.New(op, remote.KindEmptyResponse, "model %s returned no text", g.model)
	}
	return answer, nil
}
