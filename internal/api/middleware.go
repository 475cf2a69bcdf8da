package api

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/season-engine/internal/api/response"
)

// Idle client limiters are forgotten after this long.
const limiterIdleTTL = 10 * time.Minute

// writeLimiter rate limits POST, PUT, PATCH and DELETE requests per client IP.
// Reads are never limited.
type writeLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newWriteLimiter(perSecond float64, burst int) *writeLimiter {
	return &writeLimiter{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *writeLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *writeLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if !l.allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				response.TooManyRequests(w, errors.New("write rate limit exceeded"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the request's IP without the port. RealIP runs earlier in the
// chain, so proxied requests are keyed by the forwarded address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// jsonContentType enforces application/json on requests with a body.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength != 0 {
				contentType := r.Header.Get("Content-Type")
				if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
					response.Error(w, http.StatusUnsupportedMediaType, errors.New("content type must be application/json"))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
