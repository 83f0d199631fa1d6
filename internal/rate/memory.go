package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: mismo algoritmo fixed-window que RedisLimiter pero
// in-process, sobre go-cache. Solo para dev/tests de una instancia; el
// estado no es visible para otras réplicas.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, time.Minute),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	l.mu.Lock()
	defer l.mu.Unlock()

	var hits int64 = 1
	if v, exp, ok := l.c.GetWithExpiration(k); ok {
		hits = v.(int64) + 1
		l.c.Set(k, hits, time.Until(exp))
	} else {
		l.c.Set(k, hits, winStart.Add(l.Window).Sub(now))
	}

	res := Result{Allowed: hits <= l.Max, Remaining: maxInt64(l.Max-hits, 0)}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.Window).Sub(now)
	}
	return res, nil
}
