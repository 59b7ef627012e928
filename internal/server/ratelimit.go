package server

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/54b3r/findai-go/internal/logging"
)

// Per-IP /chat limits applied when the config leaves them unset.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

const (
	// idleTTL is how long a client keeps its bucket without traffic.
	idleTTL = 5 * time.Minute
	// sweepEvery is the interval between idle sweeps.
	sweepEvery = time.Minute
)

// visitor is one client's bucket.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a token bucket per client IP on the routes it wraps.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	log      *slog.Logger
}

// newRateLimiter returns a limiter and starts its idle sweeper. The returned
// stop function ends the sweeper and may be called more than once.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		log:      log,
	}

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				rl.sweep()
			}
		}
	}()

	var once sync.Once
	return rl, func() { once.Do(func() { close(done) }) }
}

// reserve takes a token for ip. It returns zero when the request may proceed,
// otherwise how long the client must wait. A rejected reservation is
// cancelled so it does not consume future tokens.
func (rl *rateLimiter) reserve(ip string) time.Duration {
	rl.mu.Lock()
	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	r := v.bucket.ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	wait := r.DelayFrom(now)
	if wait > 0 {
		r.CancelAt(now)
	}
	return wait
}

// sweep drops clients idle for longer than idleTTL.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	dropped := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			dropped++
		}
	}
	if dropped > 0 {
		rl.log.Debug("rate limiter: dropped idle clients",
			slog.Int("dropped", dropped),
			slog.Int("tracked", len(rl.visitors)),
		)
	}
}

// tracked returns the number of clients with a live bucket.
func (rl *rateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// middleware rejects over-limit requests with 429, a Retry-After header in
// whole seconds, and the rate_limited error kind.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		wait := rl.reserve(ip)
		if wait == 0 {
			next.ServeHTTP(w, r)
			return
		}

		logging.FromContext(r.Context()).Warn("rate limit exceeded",
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
			slog.Duration("retry_after", wait),
		)
		w.Header().Set("Retry-After", retryAfter(wait))
		writeError(w, r, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	})
}

// retryAfter renders wait as whole seconds, at least 1 and at most an hour.
func retryAfter(wait time.Duration) string {
	secs := int64(math.Ceil(wait.Seconds()))
	secs = max(1, min(secs, 3600))
	return strconv.FormatInt(secs, 10)
}

// clientIP returns the host part of RemoteAddr. X-Forwarded-For is not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
