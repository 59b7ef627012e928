package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/vectorstore"
)

// History listing bounds for GET /history.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// handleReload handles POST /admin/reload. It retries a failed index load
// and returns the health body, or 503 with the load error kind.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if err := s.engine.Reload(r.Context()); err != nil {
		kind := "load_failed"
		var le *vectorstore.LoadError
		if errors.As(err, &le) {
			kind = string(le.Kind)
		}
		log.Error("admin: reload failed", slog.String("kind", kind), slog.Any("error", err))
		writeError(w, r, http.StatusServiceUnavailable, kind, "index could not be loaded")
		return
	}
	log.Info("admin: index ready after reload")
	writeJSON(w, r, http.StatusOK, s.health())
}

// handleHistory handles GET /history?limit=N. It returns 404 when the
// exchange log is disabled.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	rows, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("history: query failed", slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	out := make([]historyEntry, len(rows))
	for i, e := range rows {
		out[i] = historyEntry{
			ID:           e.ID,
			RequestID:    e.RequestID,
			Question:     e.Question,
			Answer:       e.Answer,
			SourcesCount: e.SourcesCount,
			TopScore:     e.TopScore,
			CreatedAt:    e.CreatedAt.UTC(),
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"exchanges": out})
}
