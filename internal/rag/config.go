package rag

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/logging"
)

// Defaults applied to zero-valued [Config] fields.
const (
	DefaultK                 = 5
	DefaultMaxQuestionLength = 1000
	DefaultExcerptLength     = 200
	DefaultContextDelimiter  = "\n---\n"
	DefaultSimilarityCutoff  = 0.3
	DefaultEmbedTimeout      = 30 * time.Second
	DefaultGenerateTimeout   = 120 * time.Second
	DefaultRetryBackoff      = 250 * time.Millisecond
	DefaultEmbeddingsPath    = "embeddings/embeddings.npy"
	DefaultTextsPath         = "embeddings/texts.pkl"
)

// truncationMarker is appended to excerpts cut at ExcerptLength.
const truncationMarker = "..."

// Config tunes the [Engine]. Zero values take the package defaults.
type Config struct {
	// EmbeddingsPath and TextsPath are reported by Stats before the corpus
	// is loaded. They do not affect what the Loader reads.
	EmbeddingsPath string
	TextsPath      string
	// DefaultK is the number of passages retrieved when the caller passes k == 0.
	DefaultK int `validate:"gte=0"`
	// MaxQuestionLength bounds the trimmed question, in characters.
	MaxQuestionLength int `validate:"gte=0"`
	// ExcerptLength bounds each source excerpt, in characters.
	ExcerptLength int `validate:"gte=0"`
	// ContextDelimiter separates passages in the generation context.
	ContextDelimiter string
	// SimilarityCutoff is reported in metadata and stats. Results are not
	// filtered by it.
	SimilarityCutoff float64 `validate:"gte=-1,lte=1"`
	// EmbedTimeout bounds each embedding attempt.
	EmbedTimeout time.Duration `validate:"gte=0"`
	// GenerateTimeout bounds each generation attempt.
	GenerateTimeout time.Duration `validate:"gte=0"`
	// MaxAttempts bounds attempts per remote call. 0 and 1 both mean no retry.
	MaxAttempts int `validate:"gte=0,lte=10"`
	// RetryBackoff is the initial retry interval.
	RetryBackoff time.Duration `validate:"gte=0"`
	// Logger receives lifecycle and retry logs. Request-scoped loggers in the
	// context take precedence.
	Logger *slog.Logger `validate:"-"`
}

// DefaultConfig returns the defaults, including the 0.3 similarity cutoff.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingsPath:   DefaultEmbeddingsPath,
		TextsPath:        DefaultTextsPath,
		SimilarityCutoff: DefaultSimilarityCutoff,
	}
}

// withDefaults validates c and fills zero fields. A nil c is [DefaultConfig].
func (c *Config) withDefaults() (Config, error) {
	if c == nil {
		c = DefaultConfig()
	}
	out := *c
	if err := config.Validate(&out); err != nil {
		return Config{}, fmt.Errorf("rag: %w", err)
	}
	if out.DefaultK == 0 {
		out.DefaultK = DefaultK
	}
	if out.MaxQuestionLength == 0 {
		out.MaxQuestionLength = DefaultMaxQuestionLength
	}
	if out.ExcerptLength == 0 {
		out.ExcerptLength = DefaultExcerptLength
	}
	if out.ContextDelimiter == "" {
		out.ContextDelimiter = DefaultContextDelimiter
	}
	if out.EmbedTimeout == 0 {
		out.EmbedTimeout = DefaultEmbedTimeout
	}
	if out.GenerateTimeout == 0 {
		out.GenerateTimeout = DefaultGenerateTimeout
	}
	if out.MaxAttempts == 0 {
		out.MaxAttempts = 1
	}
	if out.RetryBackoff == 0 {
		out.RetryBackoff = DefaultRetryBackoff
	}
	if out.Logger == nil {
		out.Logger = logging.Discard()
	}
	return out, nil
}

// ConfigFromEnv reads FINDAI_EMBEDDINGS_PATH, FINDAI_TEXTS_PATH and the
// RAG_* variables. SimilarityCutoff defaults to 0.3.
//
//	RAG_DEFAULT_K, RAG_MAX_QUESTION_LENGTH, RAG_EXCERPT_LENGTH,
//	RAG_SIMILARITY_CUTOFF, RAG_MAX_ATTEMPTS, RAG_RETRY_BACKOFF,
//	RAG_EMBED_TIMEOUT, RAG_GENERATE_TIMEOUT
func ConfigFromEnv() *Config {
	return &Config{
		EmbeddingsPath:    config.EnvOr("FINDAI_EMBEDDINGS_PATH", DefaultEmbeddingsPath),
		TextsPath:         config.EnvOr("FINDAI_TEXTS_PATH", DefaultTextsPath),
		DefaultK:          config.EnvInt("RAG_DEFAULT_K", DefaultK),
		MaxQuestionLength: config.EnvInt("RAG_MAX_QUESTION_LENGTH", DefaultMaxQuestionLength),
		ExcerptLength:     config.EnvInt("RAG_EXCERPT_LENGTH", DefaultExcerptLength),
		SimilarityCutoff:  config.EnvFloat("RAG_SIMILARITY_CUTOFF", DefaultSimilarityCutoff),
		MaxAttempts:       config.EnvInt("RAG_MAX_ATTEMPTS", 1),
		RetryBackoff:      config.EnvDuration("RAG_RETRY_BACKOFF", DefaultRetryBackoff),
		EmbedTimeout:      config.EnvDuration("RAG_EMBED_TIMEOUT", DefaultEmbedTimeout),
		GenerateTimeout:   config.EnvDuration("RAG_GENERATE_TIMEOUT", DefaultGenerateTimeout),
	}
}
