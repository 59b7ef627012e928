// Package audit writes one structured line per CLI invocation: the command,
// the config file it resolved, the build version and the environment that
// shapes retrieval and generation.
//
// Credentials are recorded as "set" or "unset", never by value.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/54b3r/findai-go/internal/version"
)

// auditedEnv is the ordered list of env vars included in every entry.
var auditedEnv = []string{
	"FINDAI_EMBEDDINGS_PATH",
	"FINDAI_TEXTS_PATH",
	"OLLAMA_HOST",
	"EMBEDDING_PROVIDER",
	"EMBEDDING_MODEL",
	"OLLAMA_EMBED_MODEL",
	"EMBEDDING_API_KEY",
	"GENERATION_BACKEND",
	"OLLAMA_LLM_MODEL",
	"MODEL_PROVIDER",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_DEPLOYMENT",
	"ARK_API_KEY",
	"ARK_MODEL",
	"GOOGLE_API_KEY",
	"GEMINI_MODEL",
	"RAG_DEFAULT_K",
	"RAG_MAX_ATTEMPTS",
	"FINDAI_API_KEY",
	"FINDAI_HISTORY_DB",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY",
	"LANGFUSE_SECRET_KEY",
}

// secretSuffixes mark credential-bearing env var names.
var secretSuffixes = []string{"_API_KEY", "_SECRET_KEY", "_PUBLIC_KEY", "_TOKEN", "_PASSWORD"}

// IsSecret reports whether key names a credential.
func IsSecret(key string) bool {
	for _, s := range secretSuffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}

// LogCommandStart emits the audit entry for command.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditedEnv)+3)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", displayPath(configPath)),
		slog.String("version", version.Version),
	)
	for _, key := range auditedEnv {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}
	log.LogAttrs(context.Background(), slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns the form of value that may be logged for key.
func SanitiseKey(key, value string) string {
	switch {
	case value == "":
		return "unset"
	case IsSecret(key):
		return "set"
	default:
		return value
	}
}

// displayPath shortens the home directory to "~". An empty path is "none".
func displayPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(p, home+string(os.PathSeparator)) {
		return "~" + p[len(home):]
	}
	return p
}
