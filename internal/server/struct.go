package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/findai-go/internal/rag"
	"github.com/54b3r/findai-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// exceed ChatTimeout.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// ChatTimeout bounds a single /chat request end to end (default: 3m).
	ChatTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	// If empty, /ready returns 200 with no checks.
	Pingers []Pinger
	// RateLimit is the sustained /chat rate allowed per IP (requests/second).
	// Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on protected routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// CORSOrigins is the browser origin allow-list. Nil uses DefaultCORSOrigins.
	CORSOrigins []string
	// History records answered questions and backs GET /history. Optional.
	History store.ExchangeLog
	// Version is reported by GET /.
	Version string
	// MetricsRegistry receives the server's collectors. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is served on GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// DefaultCORSOrigins are the frontend development origins.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3001",
}

// answerer is the engine surface the handlers use. *rag.Engine satisfies it;
// tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, question string, k int) (*rag.Response, error)
	IsReady() bool
	Reload(ctx context.Context) error
	Stats() rag.Stats
}

// Server is the HTTP server that exposes the retrieval engine.
type Server struct {
	// engine answers questions and reports corpus state.
	engine answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /ready.
	pingers []Pinger
	// history is the optional exchange log.
	history store.ExchangeLog
	// metrics holds the Prometheus collectors.
	metrics *serverMetrics
	// stopRL stops the rate limiter sweeper on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /chat.
type chatRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// MaxResults is the number of passages to retrieve. Optional.
	MaxResults *int `json:"max_results,omitempty"`
}

// chatSource is one retrieved passage in a chat response.
type chatSource struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata sourceMetadata `json:"metadata"`
}

type sourceMetadata struct {
	Index int `json:"index"`
}

// chatMetadata carries the provenance counters of a chat response.
type chatMetadata struct {
	QuestionLength   int     `json:"question_length"`
	ResponseLength   int     `json:"response_length"`
	SourcesCount     int     `json:"sources_count"`
	SimilarityCutoff float64 `json:"similarity_cutoff"`
}

// chatResponse is the JSON body returned by POST /chat.
type chatResponse struct {
	Response string       `json:"response"`
	Sources  []chatSource `json:"sources"`
	Metadata chatMetadata `json:"metadata"`
}

// healthResponse is the JSON body returned by GET /health.
type healthResponse struct {
	// Status is "healthy" when the index is loaded, "unhealthy" otherwise.
	Status         string `json:"status"`
	IndexLoaded    bool   `json:"index_loaded"`
	EmbeddingsPath string `json:"embeddings_path"`
}

// statsResponse is the JSON body returned by GET /stats when ready.
type statsResponse struct {
	IndexLoaded      bool    `json:"index_loaded"`
	EmbeddingsPath   string  `json:"embeddings_path"`
	TextsPath        string  `json:"texts_path"`
	CorpusSize       int     `json:"corpus_size"`
	Dimension        int     `json:"dimension"`
	SimilarityCutoff float64 `json:"similarity_cutoff"`
	DefaultK         int     `json:"default_k"`
	Status           string  `json:"status"`
}

// rootResponse is the JSON body returned by GET /.
type rootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// historyEntry is one row of GET /history.
type historyEntry struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	SourcesCount int       `json:"sources_count"`
	TopScore     float64   `json:"top_score"`
	CreatedAt    time.Time `json:"created_at"`
}
