// Package generator provides implementations of the rag.Generator interface.
// [OllamaGenerator] calls the plain Ollama /api/generate endpoint;
// [ChatModelGenerator] adapts any eino chat model built by the provider
// package (OpenAI, Azure OpenAI, Gemini, Ark, Ollama chat).
package generator

import "strings"

// op is the operation name attached to every error from this package.
const op = "generator"

// BuildPrompt renders the joined passages and the question into the single
// prompt string sent to the model:
//
//	{context}
//
//	User: {question}
//	Assistant:
func BuildPrompt(passages, question string) string {
	var b strings.Builder
	b.Grow(len(passages) + len(question) + 24)
	b.WriteString(passages)
	b.WriteString("\n\nUser: ")
	b.WriteString(question)
	b.WriteString("\nAssistant:")
	return b.String()
}
