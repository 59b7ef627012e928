package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/54b3r/findai-go/internal/store"
	"github.com/54b3r/findai-go/internal/vectorstore"
)

func post(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	return w
}

// ---------------------------------------------------------------------------
// POST /admin/reload
// ---------------------------------------------------------------------------

func TestHandleReload_Success(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{stats: readyStats()}
	eng.stats.Ready = false
	s, _ := newTestServer(t, eng)

	w := post(t, s, "/admin/reload")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d - body: %s", w.Code, w.Body.String())
	}
	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || !body.IndexLoaded {
		t.Errorf("body = %+v", body)
	}
}

func TestHandleReload_Failure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		wantKind string
	}{
		{"missing artifact", &vectorstore.LoadError{Kind: vectorstore.KindMissingArtifact, Path: "/secret/path.npy"}, "missing_artifact"},
		{"other", errors.New("loader exploded"), "load_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestServer(t, &fakeEngine{reloadErr: tc.err})

			w := post(t, s, "/admin/reload")
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", w.Code)
			}
			var body errorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", body.Error.Kind, tc.wantKind)
			}
		})
	}
}

func TestHandleReload_RequiresAuth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeEngine{}, func(c *Config) { c.APIKey = "secret" })
	if w := post(t, s, "/admin/reload"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /history
// ---------------------------------------------------------------------------

func TestHandleHistory_Disabled(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeEngine{})
	if w := get(t, s, "/history"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHandleHistory_Limit(t *testing.T) {
	t.Parallel()

	hist := &memHistory{}
	for _, q := range []string{"q1", "q2", "q3"} {
		_ = hist.Append(t.Context(), store.Exchange{Question: q, Answer: "a", CreatedAt: time.Now()})
	}
	s, _ := newTestServer(t, &fakeEngine{}, func(c *Config) { c.History = hist })

	w := get(t, s, "/history?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Exchanges []historyEntry `json:"exchanges"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Exchanges) != 2 || body.Exchanges[0].Question != "q3" {
		t.Errorf("exchanges = %+v", body.Exchanges)
	}
}

func TestHandleHistory_BadLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeEngine{}, func(c *Config) { c.History = &memHistory{} })
	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		if w := get(t, s, "/history?"+q); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestHandleHistory_StoreError(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeEngine{}, func(c *Config) { c.History = &memHistory{err: errors.New("locked")} })
	if w := get(t, s, "/history"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
