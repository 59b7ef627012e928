package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/54b3r/findai-go/internal/logging"
)

// okHandler is a trivial handler used to verify that allowed requests reach
// the downstream handler.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// fakeClock is a settable time source for the limiter.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// newTestLimiter returns a limiter driven by a fake clock.
func newTestLimiter(t *testing.T, rps float64, burst int) (*rateLimiter, *fakeClock) {
	t.Helper()
	rl, stop := newRateLimiter(rps, burst, logging.Discard())
	t.Cleanup(stop)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 1, 3)
	h := rl.middleware(okHandler)

	for i := range 3 {
		if w := hit(h, "10.0.0.1:9999"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := hit(h, "10.0.0.1:9999")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if !strings.Contains(w.Body.String(), "rate_limited") {
		t.Errorf("body = %s, want the rate_limited kind", w.Body.String())
	}
}

func TestRateLimit_Refills(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(t, 0.5, 1)
	h := rl.middleware(okHandler)

	hit(h, "10.0.0.2:1")
	w := hit(h, "10.0.0.2:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}

	// A rejected request must not have borrowed the next token.
	clock.advance(2 * time.Second)
	if w := hit(h, "10.0.0.2:1"); w.Code != http.StatusOK {
		t.Errorf("after refill: expected 200, got %d", w.Code)
	}
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 0.001, 1)
	h := rl.middleware(okHandler)

	for range 5 {
		hit(h, "192.168.1.1:1111")
	}
	if w := hit(h, "192.168.1.2:2222"); w.Code != http.StatusOK {
		t.Errorf("second client: expected 200, got %d", w.Code)
	}
}

func TestRateLimit_SweepDropsIdleClients(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(t, 10, 10)
	h := rl.middleware(okHandler)

	hit(h, "10.0.0.3:1")
	clock.advance(idleTTL - time.Second)
	hit(h, "10.0.0.4:1")
	if got := rl.tracked(); got != 2 {
		t.Fatalf("tracked = %d, want 2", got)
	}

	clock.advance(2 * time.Second)
	rl.sweep()
	if got := rl.tracked(); got != 1 {
		t.Errorf("tracked after sweep = %d, want 1", got)
	}
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		wait time.Duration
		want string
	}{
		{10 * time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{48 * time.Hour, "3600"},
	}
	for _, tc := range cases {
		if got := retryAfter(tc.wait); got != tc.want {
			t.Errorf("retryAfter(%s) = %q, want %q", tc.wait, got, tc.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		remoteAddr string
		wantIP     string
	}{
		{"127.0.0.1:54321", "127.0.0.1"},
		{"10.0.0.1:80", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"noport", "noport"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if got := clientIP(req); got != tc.wantIP {
			t.Errorf("remoteAddr=%q: expected %q, got %q", tc.remoteAddr, tc.wantIP, got)
		}
	}
}
