// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Idle buckets are dropped after IdleExpiration.
const (
	IdleExpiration  = 10 * time.Minute
	CleanupInterval = 5 * time.Minute
)

// Limiter allows perMinute requests per key with a burst of the same size.
type Limiter struct {
	perMinute int
	buckets   *gocache.Cache
	now       func() time.Time
}

// New creates a limiter. A non-positive perMinute disables limiting.
func New(perMinute int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		buckets:   gocache.New(IdleExpiration, CleanupInterval),
		now:       time.Now,
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	if err := l.buckets.Add(key, fresh, gocache.DefaultExpiration); err != nil {
		// lost the race, use the winner's bucket
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return fresh
}

// Allow consumes one token for key. When the bucket is empty it reports how
// long until the next token.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l.perMinute <= 0 {
		return true, 0
	}
	now := l.now()
	r := l.bucket(key).ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Middleware rejects requests over the limit of their client IP. onLimited
// writes the 429 response; Retry-After is already set when it runs.
func (l *Limiter) Middleware(onLimited func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(ClientIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. Run chi's RealIP middleware
// first to honour proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
