package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/54b3r/findai-go/internal/logging"
)

// probeTimeout is the maximum time allowed for each dependency probe during
// a readiness check.
const probeTimeout = 5 * time.Second

// Pinger is implemented by any dependency that can report its own
// reachability. Implementations must be safe to call from multiple goroutines.
type Pinger interface {
	// Ping returns nil when the dependency is reachable.
	Ping(ctx context.Context) error
	// Name returns a short label used in readiness responses (e.g. "ollama").
	Name() string
}

// MultiPinger aggregates Pingers and reports the first failure.
type MultiPinger struct {
	pingers []Pinger
}

// NewMultiPinger constructs a MultiPinger from the provided list of Pingers.
func NewMultiPinger(pingers ...Pinger) *MultiPinger {
	return &MultiPinger{pingers: pingers}
}

// Ping runs all probes sequentially and returns the first error.
func (m *MultiPinger) Ping(ctx context.Context) error {
	for _, p := range m.pingers {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

// Name returns a combined label for logging purposes.
func (m *MultiPinger) Name() string { return "multi" }

// readyCheck holds the per-dependency result of a readiness probe.
type readyCheck struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readyResponse is the JSON body returned by GET /ready.
type readyResponse struct {
	// Ready is true only when the index is loaded and every probe succeeded.
	Ready       bool         `json:"ready"`
	IndexLoaded bool         `json:"index_loaded"`
	Checks      []readyCheck `json:"checks"`
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, rootResponse{
		Message: "findai retrieval API",
		Status:  "online",
		Version: s.cfg.Version,
	})
}

// handleHealth handles GET /health. It always returns 200; the body reports
// whether the index is loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.health())
}

func (s *Server) health() healthResponse {
	st := s.engine.Stats()
	status := "unhealthy"
	if st.Ready {
		status = "healthy"
	}
	return healthResponse{
		Status:         status,
		IndexLoaded:    st.Ready,
		EmbeddingsPath: st.EmbeddingsPath,
	}
}

// handleStats handles GET /stats. It returns 503 until the index is loaded.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Stats()
	if !st.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": "index not loaded"})
		return
	}
	writeJSON(w, r, http.StatusOK, statsResponse{
		IndexLoaded:      true,
		EmbeddingsPath:   st.EmbeddingsPath,
		TextsPath:        st.TextsPath,
		CorpusSize:       st.CorpusSize,
		Dimension:        st.Dimension,
		SimilarityCutoff: st.SimilarityCutoff,
		DefaultK:         st.DefaultK,
		Status:           "operational",
	})
}

// handleReady handles GET /ready. It probes each registered Pinger with a
// short timeout and returns 200 only when the index is loaded and every
// dependency is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{IndexLoaded: s.engine.IsReady(), Checks: []readyCheck{}}
	allOK := resp.IndexLoaded

	for _, p := range s.pingers {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		check := readyCheck{Name: p.Name(), OK: err == nil}
		if err != nil {
			check.Error = err.Error()
			allOK = false
			log.Warn("readiness probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		resp.Checks = append(resp.Checks, check)
	}
	resp.Ready = allOK

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}
