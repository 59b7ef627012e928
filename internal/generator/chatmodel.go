package generator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/findai-go/internal/budget"
	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/remote"
)

// defaultSystemPrompt instructs chat models to stay within the retrieved passages.
const defaultSystemPrompt = "Answer the user's question using the passages provided. " +
	"If the passages do not contain the answer, say so."

// ChatModelGenerator implements rag.Generator on top of an eino chat model.
// It is safe for concurrent use if the underlying model is.
type ChatModelGenerator struct {
	// model is the eino chat model that produces the answer.
	model model.BaseChatModel
	// name labels the backend in callbacks and logs.
	name string
	// systemPrompt is sent as the first message. Empty disables it.
	systemPrompt string
	// maxContextTokens triggers a warning when the prompt estimate exceeds it.
	maxContextTokens int
	// timeout bounds each call.
	timeout time.Duration
	// handlers receive eino callbacks (e.g. Langfuse tracing) for every call.
	handlers []callbacks.Handler
}

// ChatModelConfig holds the settings for constructing a ChatModelGenerator.
type ChatModelConfig struct {
	// Name labels the backend in callbacks and logs (e.g. "openai").
	Name string
	// SystemPrompt overrides the default system message. Use "-" to send none.
	SystemPrompt string
	// MaxContextTokens is the prompt budget. Zero uses budget.DefaultMaxContextTokens.
	MaxContextTokens int
	// Timeout bounds each call. Zero means 60s.
	Timeout time.Duration
	// Handlers are eino callback handlers attached to every call. Optional.
	Handlers []callbacks.Handler
}

// NewChatModelGenerator wraps m as a rag.Generator.
func NewChatModelGenerator(m model.BaseChatModel, cfg *ChatModelConfig) *ChatModelGenerator {
	if cfg == nil {
		cfg = &ChatModelConfig{}
	}
	name := cfg.Name
	if name == "" {
		name = "chat_model"
	}
	sys := cfg.SystemPrompt
	switch sys {
	case "":
		sys = defaultSystemPrompt
	case "-":
		sys = ""
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx == 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChatModelGenerator{
		model:            m,
		name:             name,
		systemPrompt:     sys,
		maxContextTokens: maxCtx,
		timeout:          timeout,
		handlers:         cfg.Handlers,
	}
}

// Generate sends the rendered prompt as a user message and returns the
// assistant's reply. Model errors are classified as timeout or unreachable;
// a blank reply is [remote.KindEmptyResponse].
func (g *ChatModelGenerator) Generate(ctx context.Context, passages, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msgs := g.buildMessages(passages, question)
	if n, over := budget.Exceeds(msgs, g.maxContextTokens); over {
		logging.FromContext(ctx).Warn("generator: prompt exceeds context budget",
			slog.String("backend", g.name),
			slog.Int("estimated_tokens", n),
			slog.Int("budget", g.maxContextTokens),
		)
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      g.name,
		Type:      "findai.generator",
		Component: components.ComponentOfChatModel,
	}, g.handlers...)

	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		if ctx.Err() != nil {
			return "", remote.Classify(op, ctx.Err())
		}
		return "", remote.Classify(op, err)
	}
	if out == nil {
		return "", remote.New(op, remote.KindBadResponse, "%s returned a nil message", g.name)
	}

	answer := strings.TrimSpace(out.Content)
	if answer == "" {
		return "", remote.New(op, remote.KindEmptyResponse, "%s returned no text", g.name)
	}
	return answer, nil
}

func (g *ChatModelGenerator) buildMessages(passages, question string) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2)
	if g.systemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(g.systemPrompt))
	}
	return append(msgs, schema.UserMessage(BuildPrompt(passages, question)))
}
