package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/54b3r/findai-go/internal/remote"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	got := BuildPrompt("Cats are mammals.\n---\nDogs are mammals.", "What are cats?")
	want := "Cats are mammals.\n---\nDogs are mammals.\n\nUser: What are cats?\nAssistant:"
	if got != want {
		t.Errorf("BuildPrompt =\n%q\nwant\n%q", got, want)
	}
}

func TestOllamaGenerator_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Stream {
			t.Error("stream must be false")
		}
		if req.Model != "gemma3n:e2b" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Prompt != "ctx\n\nUser: q?\nAssistant:" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		if req.Options["temperature"] != 0.1 {
			t.Errorf("options = %v", req.Options)
		}
		_, _ = w.Write([]byte(`{"response":" Cats are mammals. ","done":true}`))
	}))
	defer srv.Close()

	gen := NewOllamaGenerator(&OllamaConfig{
		Host:    srv.URL,
		Model:   "gemma3n:e2b",
		Options: map[string]any{"temperature": 0.1},
	})
	got, err := gen.Generate(context.Background(), "ctx", "q?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Cats are mammals." {
		t.Errorf("answer = %q", got)
	}
}

func TestOllamaGenerator_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"response":"   "}`))
			},
			want: remote.ErrEmptyResponse,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: remote.ErrBadResponse,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			want: remote.ErrBadResponse,
		},
		{
			name: "slow model",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			want: remote.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			gen := NewOllamaGenerator(&OllamaConfig{Host: srv.URL, Model: "m", Timeout: 100 * time.Millisecond})
			_, err := gen.Generate(context.Background(), "ctx", "q")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOllamaGenerator_CallerCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	gen := NewOllamaGenerator(&OllamaConfig{Host: srv.URL, Model: "m", Timeout: 10 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	start := time.Now()
	_, err := gen.Generate(ctx, "ctx", "q")
	if err == nil {
		t.Fatal("expected error after cancel")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("cancel did not propagate promptly: %v", time.Since(start))
	}
}
