package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/remote"
	"github.com/54b3r/findai-go/internal/vectorstore"
)

// Source is one retrieved passage as shown to the caller.
type Source struct {
	// Excerpt is the passage text, truncated for display.
	Excerpt string
	// Score is the cosine similarity to the question.
	Score float64
	// Index is the passage position in the corpus.
	Index int
}

// Metadata carries provenance counters. Lengths are in characters.
type Metadata struct {
	QuestionLength   int
	AnswerLength     int
	SourcesCount     int
	SimilarityCutoff float64
}

// Response is the result of a successful [Engine.Answer].
type Response struct {
	Answer   string
	Sources  []Source
	Metadata Metadata
}

// Answer embeds question, ranks the corpus against it, and asks the generator
// to answer from the top k passages. k == 0 selects the configured default.
func (e *Engine) Answer(ctx context.Context, question string, k int) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, newError(KindInvalidInput, nil, "question must not be empty")
	}
	if n := utf8.RuneCountInString(question); n > e.cfg.MaxQuestionLength {
		return nil, newError(KindInvalidInput, nil,
			"question is %d characters, the limit is %d", n, e.cfg.MaxQuestionLength)
	}
	if k < 0 {
		return nil, newError(KindInvalidInput, nil, "max_results must be positive")
	}

	store := e.handle.Load().ready()
	if store == nil {
		return nil, newError(KindNotReady, e.LoadErr(), "the index is not loaded")
	}

	if k == 0 {
		k = min(e.cfg.DefaultK, store.Len())
	} else if k > store.Len() {
		return nil, newError(KindInvalidInput, nil,
			"max_results is %d, the index holds %d passages", k, store.Len())
	}

	log := logging.FromContext(ctx)

	query, err := withRetry(ctx, e, "embedder", e.cfg.EmbedTimeout, func(ctx context.Context) ([]float32, error) {
		return e.emb.Embed(ctx, question)
	})
	if err != nil {
		log.Error("rag: embedding failed", slog.String("error", err.Error()))
		return nil, newError(KindRetrievalFailed, err, "could not embed the question")
	}

	ranked, err := vectorstore.Rank(store, query, k)
	if err != nil {
		log.Error("rag: ranking failed", slog.String("error", err.Error()))
		return nil, newError(KindRetrievalFailed, err, "could not search the index")
	}

	passages := joinPassages(ranked, e.cfg.ContextDelimiter)
	answer, err := withRetry(ctx, e, "generator", e.cfg.GenerateTimeout, func(ctx context.Context) (string, error) {
		return e.gen.Generate(ctx, passages, question)
	})
	if err != nil {
		log.Error("rag: generation failed", slog.String("error", err.Error()))
		return nil, newError(KindGenerationFailed, err, "could not generate an answer")
	}

	sources := make([]Source, len(ranked))
	for i, r := range ranked {
		sources[i] = Source{
			Excerpt: truncate(r.Text, e.cfg.ExcerptLength),
			Score:   r.Score,
			Index:   r.Index,
		}
	}

	log.Debug("rag: answered",
		slog.Int("k", k),
		slog.Float64("top_score", ranked[0].Score),
	)

	return &Response{
		Answer:  answer,
		Sources: sources,
		Metadata: Metadata{
			QuestionLength:   utf8.RuneCountInString(question),
			AnswerLength:     utf8.RuneCountInString(answer),
			SourcesCount:     len(sources),
			SimilarityCutoff: e.cfg.SimilarityCutoff,
		},
	}, nil
}

// joinPassages concatenates ranked texts in rank order.
func joinPassages(ranked []vectorstore.RankedResult, delim string) string {
	texts := make([]string, len(ranked))
	for i, r := range ranked {
		texts[i] = r.Text
	}
	return strings.Join(texts, delim)
}

// truncate cuts s to n characters and appends the truncation marker.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + truncationMarker
}

// withRetry runs call under its own timeout, retrying transient remote
// failures up to MaxAttempts with exponential backoff.
func withRetry[T any](ctx context.Context, e *Engine, op string, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.RetryBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.cfg.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(func() error {
		attempt++
		v, err := callWithTimeout(ctx, op, timeout, call)
		if err == nil {
			out = v
			return nil
		}
		var re *remote.Error
		if ctx.Err() == nil && errors.As(err, &re) && re.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, wait time.Duration) {
		logging.FromContext(ctx).Warn("rag: retrying remote call",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	})
	return out, err
}

// callWithTimeout returns when call does or when the deadline fires,
// whichever is first, so a client that ignores its context cannot stall the
// request.
func callWithTimeout[T any](ctx context.Context, op string, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call(callCtx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-callCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, remote.New(op, remote.KindTimeout, "no reply within %s", timeout)
	}
}
