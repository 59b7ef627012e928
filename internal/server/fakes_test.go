package server

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/rag"
	"github.com/54b3r/findai-go/internal/store"
)

// ---------------------------------------------------------------------------
// Fake engine
// ---------------------------------------------------------------------------

// fakeEngine implements the answerer interface for tests.
type fakeEngine struct {
	mu sync.Mutex
	// resp and err are returned by Answer.
	resp *rag.Response
	err  error
	// gotQuestion and gotK record the last Answer call.
	gotQuestion string
	gotK        int
	calls       int
	// stats is returned by Stats; IsReady mirrors stats.Ready.
	stats rag.Stats
	// reloadErr is returned by Reload; a nil error marks the engine ready.
	reloadErr error
}

func (f *fakeEngine) Answer(_ context.Context, question string, k int) (*rag.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotQuestion, f.gotK = question, k
	return f.resp, f.err
}

func (f *fakeEngine) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats.Ready
}

func (f *fakeEngine) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reloadErr == nil {
		f.stats.Ready = true
	}
	return f.reloadErr
}

func (f *fakeEngine) Stats() rag.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func readyStats() rag.Stats {
	return rag.Stats{
		Ready:            true,
		CorpusSize:       3,
		Dimension:        768,
		EmbeddingsPath:   "embeddings/embeddings.npy",
		TextsPath:        "embeddings/texts.pkl",
		SimilarityCutoff: 0.3,
		DefaultK:         5,
	}
}

func sampleResponse() *rag.Response {
	return &rag.Response{
		Answer: "Cats and dogs are mammals.",
		Sources: []rag.Source{
			{Excerpt: "Cats are mammals.", Score: 0.99, Index: 0},
			{Excerpt: "Dogs are mammals.", Score: 0.96, Index: 2},
		},
		Metadata: rag.Metadata{QuestionLength: 26, AnswerLength: 26, SourcesCount: 2, SimilarityCutoff: 0.3},
	}
}

// newTestServer builds a *Server around engine with an isolated metrics
// registry and a discarding logger.
func newTestServer(t *testing.T, engine answerer, mutate ...func(*Config)) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &Config{
		Logger:          logging.Discard(),
		MetricsRegistry: reg,
		MetricsGatherer: reg,
		Version:         "test",
	}
	for _, m := range mutate {
		m(cfg)
	}
	s, err := New(engine, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, reg
}

// memHistory is an in-memory store.ExchangeLog.
type memHistory struct {
	mu   sync.Mutex
	rows []store.Exchange
	err  error
}

func (m *memHistory) Append(_ context.Context, e store.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, e)
	return nil
}

func (m *memHistory) Recent(_ context.Context, n int) ([]store.Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []store.Exchange{}
	for i := len(m.rows) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *memHistory) Close() error { return nil }
