package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/rag"
)

// errorBody is the JSON envelope of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}

// writeError writes the structured error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	writeJSON(w, r, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind rag.Kind) int {
	switch kind {
	case rag.KindInvalidInput:
		return http.StatusBadRequest
	case rag.KindNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes err using its rag kind and user-safe message and
// returns the kind. The cause stays in the logs.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) string {
	var re *rag.Error
	if !errors.As(err, &re) {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return "internal_error"
	}
	writeError(w, r, statusFor(re.Kind), string(re.Kind), re.Message)
	return string(re.Kind)
}
