// Package tracing wires optional Langfuse tracing into the generation path.
package tracing

import (
	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/findai-go/internal/config"
)

const defaultHost = "http://localhost:3000"

// Settings are the Langfuse credentials. Both keys must be set for tracing
// to be enabled.
type Settings struct {
	Host      string
	PublicKey string
	SecretKey string
}

// SettingsFromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func SettingsFromEnv() Settings {
	return Settings{
		Host:      config.EnvOr("LANGFUSE_HOST", defaultHost),
		PublicKey: config.EnvOr("LANGFUSE_PUBLIC_KEY", ""),
		SecretKey: config.EnvOr("LANGFUSE_SECRET_KEY", ""),
	}
}

// Enabled reports whether both keys are present.
func (s Settings) Enabled() bool {
	return s.PublicKey != "" && s.SecretKey != ""
}

// Setup returns a Langfuse callback handler and a flush function that must
// be called before process exit. When tracing is not configured it returns
// (nil, no-op, false).
func Setup(s Settings) (callbacks.Handler, func(), bool) {
	if !s.Enabled() {
		return nil, func() {}, false
	}
	host := s.Host
	if host == "" {
		host = defaultHost
	}
	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: s.PublicKey,
		SecretKey: s.SecretKey,
	})
	return handler, flush, true
}

// FromEnv is Setup(SettingsFromEnv()).
func FromEnv() (callbacks.Handler, func(), bool) {
	return Setup(SettingsFromEnv())
}
