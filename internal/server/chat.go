package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/rag"
	"github.com/54b3r/findai-go/internal/store"
)

// maxChatBody bounds the POST /chat request body.
const maxChatBody = 64 << 10

// historyWriteTimeout bounds the exchange log insert after a response.
const historyWriteTimeout = 2 * time.Second

// handleChat handles POST /chat. It answers the question from the index and
// returns the answer with its sources.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()
	s.metrics.chatInFlight.Inc()
	defer s.metrics.chatInFlight.Dec()

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, string(rag.KindInvalidInput), "invalid request body")
		s.metrics.observeChat(string(rag.KindInvalidInput), time.Since(start))
		return
	}

	k := 0
	if req.MaxResults != nil {
		if *req.MaxResults < 1 {
			writeError(w, r, http.StatusBadRequest, string(rag.KindInvalidInput), "max_results must be at least 1")
			s.metrics.observeChat(string(rag.KindInvalidInput), time.Since(start))
			return
		}
		k = *req.MaxResults
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ChatTimeout)
	defer cancel()

	resp, err := s.engine.Answer(ctx, req.Question, k)
	if err != nil {
		kind := writeEngineError(w, r, err)
		log.Warn("chat: request failed",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		s.metrics.observeChat(kind, time.Since(start))
		return
	}

	writeJSON(w, r, http.StatusOK, toChatResponse(resp))
	s.metrics.observeChat("ok", time.Since(start))

	log.Info("chat: answered",
		slog.Int("sources", resp.Metadata.SourcesCount),
		slog.Int("answer_length", resp.Metadata.AnswerLength),
		slog.Duration("duration", time.Since(start)),
	)
	s.recordExchange(r, w.Header().Get(requestIDHeader), strings.TrimSpace(req.Question), resp)
}

// recordExchange appends the answered question to the exchange log. Failures
// are logged and do not affect the response already sent.
func (s *Server) recordExchange(r *http.Request, requestID, question string, resp *rag.Response) {
	if s.history == nil {
		return
	}
	topScore := 0.0
	if len(resp.Sources) > 0 {
		topScore = resp.Sources[0].Score
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), historyWriteTimeout)
	defer cancel()
	err := s.history.Append(ctx, store.Exchange{
		RequestID:    requestID,
		Question:     question,
		Answer:       resp.Answer,
		SourcesCount: resp.Metadata.SourcesCount,
		TopScore:     topScore,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("chat: history append failed", slog.Any("error", err))
	}
}

func toChatResponse(resp *rag.Response) chatResponse {
	sources := make([]chatSource, len(resp.Sources))
	for i, src := range resp.Sources {
		sources[i] = chatSource{
			Content:  src.Excerpt,
			Score:    src.Score,
			Metadata: sourceMetadata{Index: src.Index},
		}
	}
	return chatResponse{
		Response: resp.Answer,
		Sources:  sources,
		Metadata: chatMetadata{
			QuestionLength:   resp.Metadata.QuestionLength,
			ResponseLength:   resp.Metadata.AnswerLength,
			SourcesCount:     resp.Metadata.SourcesCount,
			SimilarityCutoff: resp.Metadata.SimilarityCutoff,
		},
	}
}
