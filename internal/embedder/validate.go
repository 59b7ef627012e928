package embedder

import (
	"log/slog"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// WarnIfChatModel logs a warning when the resolved embedding model looks like
// a chat model. Query vectors must come from the model the corpus was built with.
func WarnIfChatModel(log *slog.Logger) {
	model := Model()
	if !looksLikeChatModel(model) {
		return
	}
	log.Warn("embedder: embedding model looks like a chat model, not an embedding model",
		slog.String("model", model),
		slog.String("hint", "use the model the corpus was embedded with, e.g. nomic-embed-text"),
	)
}
