package ratelimit

import (
	"sync"
	"time"

	xhttp "SentimentDesk/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key. Buckets idle longer than ttl are dropped by a
// sweep that runs at most once per sweepEvery.
type Limiter struct {
	mu         sync.Mutex
	m          map[string]*entry
	rate       rate.Limit
	burst      int
	ttl        time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:          make(map[string]*entry),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		ttl:        10 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
}

// Allow reports whether one request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now
	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweepLocked(now)
	}
	return e.limiter.AllowN(now, 1)
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) sweepLocked(now time.Time) {
	l.lastSweep = now
	for k, e := range l.m {
		if now.Sub(e.lastSeen) > l.ttl {
			delete(l.m, k)
		}
	}
}

// Middleware rejects requests over the per-address budget with 429.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.TooManyRequestsError("rate limit exceeded")
			}
			return next(c)
		}
	}
}
