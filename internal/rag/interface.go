// Package rag implements the retrieval orchestrator: it owns the loaded
// corpus, embeds each question, ranks the corpus against it, and hands the
// joined passages to a generation backend.
//
// The embedding and generation backends are consumed through the narrow
// interfaces below so the engine never depends on a specific provider.
package rag

import (
	"context"

	"github.com/54b3r/findai-go/internal/vectorstore"
)

// Embedder converts text into a dense vector.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed returns the embedding of text. The vector dimension must match
	// the loaded corpus.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer from retrieved passages and a question.
// Implementations must be safe to call from multiple goroutines.
type Generator interface {
	// Generate returns the model's answer. An empty answer is an error.
	Generate(ctx context.Context, passages, question string) (string, error)
}

// Loader produces the corpus. It is invoked at most once per load attempt.
type Loader func(ctx context.Context) (*vectorstore.Store, error)

// FileLoader returns a [Loader] that reads the given artifact paths with
// [vectorstore.Load].
func FileLoader(embeddingsPath, textsPath string) Loader {
	return func(context.Context) (*vectorstore.Store, error) {
		return vectorstore.Load(embeddingsPath, textsPath)
	}
}
