package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/54b3r/findai-go/internal/vectorstore"
)

// loadHandle is one load attempt. once guards the call to the loader so racing
// callers share a single read and observe the same store or error.
type loadHandle struct {
	once  sync.Once
	done  atomic.Bool
	store *vectorstore.Store
	err   error
}

func (h *loadHandle) load(ctx context.Context, loader Loader, log *slog.Logger) (*vectorstore.Store, error) {
	h.once.Do(func() {
		start := time.Now()
		h.store, h.err = callLoader(ctx, loader)
		if h.err == nil && h.store == nil {
			h.err = errors.New("rag: loader returned no store")
		}
		h.done.Store(true)
		if h.err != nil {
			log.Error("rag: corpus load failed", slog.String("error", h.err.Error()))
			return
		}
		log.Info("rag: corpus loaded",
			slog.Int("corpus_size", h.store.Len()),
			slog.Int("dimension", h.store.Dim()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
	return h.store, h.err
}

// callLoader runs loader, turning a panic into an error so the handle still
// completes and Reload can replace it.
func callLoader(ctx context.Context, loader Loader) (store *vectorstore.Store, err error) {
	defer func() {
		if r := recover(); r != nil {
			store, err = nil, fmt.Errorf("rag: loader panicked: %v", r)
		}
	}()
	return loader(ctx)
}

// ready returns the store if this handle completed successfully.
func (h *loadHandle) ready() *vectorstore.Store {
	if !h.done.Load() || h.err != nil {
		return nil
	}
	return h.store
}

// Engine answers questions against a once-loaded corpus. The corpus is
// read-only after load, so Answer takes no locks and is safe for concurrent
// use.
type Engine struct {
	loader Loader
	emb    Embedder
	gen    Generator
	cfg    Config
	handle atomic.Pointer[loadHandle]
	// reloadMu serialises Reload so two admins cannot swap handles at once.
	reloadMu sync.Mutex
}

// NewEngine constructs an Engine. The corpus is not loaded until
// [Engine.EnsureLoaded] is called.
func NewEngine(loader Loader, emb Embedder, gen Generator, cfg *Config) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("rag: loader must not be nil")
	}
	if emb == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if gen == nil {
		return nil, fmt.Errorf("rag: generator must not be nil")
	}
	c, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	e := &Engine{loader: loader, emb: emb, gen: gen, cfg: c}
	e.handle.Store(&loadHandle{})
	return e, nil
}

// EnsureLoaded loads the corpus if no attempt has run yet. Concurrent callers
// block on the same attempt and receive the same result. A failed attempt is
// sticky until [Engine.Reload].
func (e *Engine) EnsureLoaded(ctx context.Context) error {
	_, err := e.handle.Load().load(ctx, e.loader, e.cfg.Logger)
	return err
}

// IsReady reports whether the corpus is loaded.
func (e *Engine) IsReady() bool {
	return e.handle.Load().ready() != nil
}

// Reload retries a failed load. A successfully loaded corpus is never
// replaced; Reload then returns nil without reading the artifacts again.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	cur := e.handle.Load()
	if cur.ready() != nil {
		return nil
	}
	if cur.done.Load() {
		e.handle.CompareAndSwap(cur, &loadHandle{})
	}
	return e.EnsureLoaded(ctx)
}

// LoadErr returns the error of the current load attempt, or nil when the
// corpus is loaded or no attempt has finished.
func (e *Engine) LoadErr() error {
	h := e.handle.Load()
	if !h.done.Load() {
		return nil
	}
	return h.err
}

// Stats describes the engine's configuration and corpus.
type Stats struct {
	Ready            bool
	CorpusSize       int
	Dimension        int
	EmbeddingsPath   string
	TextsPath        string
	SimilarityCutoff float64
	DefaultK         int
	// LoadError is the last load failure, empty when none.
	LoadError string
}

// Stats returns a snapshot of the engine state.
func (e *Engine) Stats() Stats {
	st := Stats{
		EmbeddingsPath:   e.cfg.EmbeddingsPath,
		TextsPath:        e.cfg.TextsPath,
		SimilarityCutoff: e.cfg.SimilarityCutoff,
		DefaultK:         e.cfg.DefaultK,
	}
	if err := e.LoadErr(); err != nil {
		st.LoadError = err.Error()
	}
	if s := e.handle.Load().ready(); s != nil {
		st.Ready = true
		st.CorpusSize = s.Len()
		st.Dimension = s.Dim()
		if p := s.EmbeddingsPath(); p != "" {
			st.EmbeddingsPath = p
		}
		if p := s.TextsPath(); p != "" {
			st.TextsPath = p
		}
	}
	return st
}
