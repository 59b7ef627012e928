package generator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/54b3r/findai-go/internal/rag"
)

func TestNewFromEnv_OllamaDefaults(t *testing.T) {
	for _, k := range []string{"GENERATION_BACKEND", "OLLAMA_HOST", "OLLAMA_LLM_MODEL", "GENERATION_TIMEOUT", "OLLAMA_TIMEOUT", "RAG_GENERATE_TIMEOUT"} {
		t.Setenv(k, "")
	}

	gen, model, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	o, ok := gen.(*OllamaGenerator)
	if !ok {
		t.Fatalf("type = %T, want *OllamaGenerator", gen)
	}
	if model != defaultOllamaModel || o.host != defaultOllamaHost || o.timeout != rag.DefaultGenerateTimeout {
		t.Errorf("generator = %+v, model %q", o, model)
	}
}

func TestNewFromEnv_Timeout(t *testing.T) {
	t.Setenv("GENERATION_BACKEND", "ollama")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("OLLAMA_TIMEOUT", "90s")
	t.Setenv("RAG_GENERATE_TIMEOUT", "")

	gen, _, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := gen.(*OllamaGenerator).timeout; got != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", got)
	}
}

func TestNewFromEnv_InheritsEngineTimeout(t *testing.T) {
	t.Setenv("GENERATION_BACKEND", "ollama")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("OLLAMA_TIMEOUT", "")
	t.Setenv("RAG_GENERATE_TIMEOUT", "45s")

	gen, _, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := gen.(*OllamaGenerator).timeout; got != 45*time.Second {
		t.Errorf("timeout = %v, want the engine's 45s", got)
	}
}

func TestNewFromEnv_ProviderBackend(t *testing.T) {
	t.Setenv("GENERATION_BACKEND", "provider")
	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")
	t.Setenv("OLLAMA_MODEL", "llama3.2")

	gen, model, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	c, ok := gen.(*ChatModelGenerator)
	if !ok {
		t.Fatalf("type = %T, want *ChatModelGenerator", gen)
	}
	if c.name != "ollama" || model != "llama3.2" {
		t.Errorf("name = %q, model = %q", c.name, model)
	}
}

func TestNewFromEnv_Unknown(t *testing.T) {
	t.Setenv("GENERATION_BACKEND", "lambda")

	_, _, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("err = %v", err)
	}
}
