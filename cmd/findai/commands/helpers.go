package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/embedder"
	"github.com/54b3r/findai-go/internal/generator"
	"github.com/54b3r/findai-go/internal/ollama"
	"github.com/54b3r/findai-go/internal/rag"
	"github.com/54b3r/findai-go/internal/tracing"
)

const defaultOllamaHost = "http://localhost:11434"

// app is the wired engine plus what the commands need alongside it.
type app struct {
	engine    *rag.Engine
	flush     func()
	requested []string // Ollama models the configured backends depend on
}

// buildEngine wires the embedder, generator and engine from the environment.
// The corpus is not loaded. Callers must defer rt.flush.
func buildEngine(ctx context.Context, log *slog.Logger) (*app, error) {
	var handlers []callbacks.Handler
	handler, flush, ok := tracing.FromEnv()
	if ok {
		handlers = append(handlers, handler)
		log.Info("langfuse tracing enabled")
	} else {
		log.Debug("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		flush()
		return nil, err
	}
	embedder.WarnIfChatModel(log)

	gen, genModel, err := generator.NewFromEnv(ctx, handlers...)
	if err != nil {
		flush()
		return nil, err
	}

	ragCfg := rag.ConfigFromEnv()
	ragCfg.Logger = log

	engine, err := rag.NewEngine(rag.FileLoader(ragCfg.EmbeddingsPath, ragCfg.TextsPath), emb, gen, ragCfg)
	if err != nil {
		flush()
		return nil, fmt.Errorf("engine: %w", err)
	}

	log.Info("engine configured",
		slog.String("embedding_provider", config.EnvOr("EMBEDDING_PROVIDER", "ollama")),
		slog.String("embedding_model", embedder.Model()),
		slog.String("generation_backend", config.EnvOr("GENERATION_BACKEND", generator.BackendOllama)),
		slog.String("generation_model", genModel),
	)

	return &app{
		engine:    engine,
		flush:     flush,
		requested: requiredOllamaModels(),
	}, nil
}

// requiredOllamaModels lists the models that must be installed in the local
// Ollama server for the configured backends.
func requiredOllamaModels() []string {
	var models []string
	if config.EnvOr("EMBEDDING_PROVIDER", "ollama") == "ollama" {
		models = append(models, embedder.Model())
	}
	if config.EnvOr("GENERATION_BACKEND", generator.BackendOllama) == generator.BackendOllama {
		models = append(models, generator.OllamaModel())
	}
	return models
}

// ollamaClient returns a management client for OLLAMA_HOST.
func ollamaClient() *ollama.Client {
	return ollama.New(config.EnvOr("OLLAMA_HOST", defaultOllamaHost), 0)
}
