package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

// ErrGuardUnavailable indica que el backend del guard no responde.
// El caller debe fallar cerrado: si no podemos verificar el lockout,
// el intento se deniega.
var ErrGuardUnavailable = errors.New("lockout backend unavailable")

// LockStatus es el estado de lockout de una clave de cliente.
type LockStatus struct {
	Locked     bool
	Failures   int64
	RetryAfter time.Duration
}

// Guard trackea intentos de autenticación fallidos por clave de cliente y
// aplica lockout temporal al llegar al umbral.
//
// Máquina de estados por clave:
//
//	Clean → Accumulating (1..N-1 fallos) → Locked (N fallos) → Clean (vencida la ventana)
type Guard interface {
	// Check se consulta antes de verificar credenciales. Si está Locked,
	// el intento se rechaza con RetryAfter > 0 sin tocar el contador.
	Check(ctx context.Context, key string) (LockStatus, error)

	// RecordFailure suma un fallo. Retorna true si la clave quedó Locked.
	RecordFailure(ctx context.Context, key string) (bool, error)

	// Reset limpia el contador (login exitoso).
	Reset(ctx context.Context, key string) error
}

// RedisGuard implementa Guard sobre redis. INCR/EXPIRE son atómicos: varios
// intentos concurrentes de la misma clave no subcuentan fallos.
type RedisGuard struct {
	Client    *rdb.Client
	Prefix    string
	Threshold int64
	Window    time.Duration
}

func NewRedisGuard(client *rdb.Client, prefix string, threshold int, window time.Duration) *RedisGuard {
	if prefix == "" {
		prefix = "lo:"
	}
	return &RedisGuard{Client: client, Prefix: prefix, Threshold: int64(threshold), Window: window}
}

func (g *RedisGuard) key(k string) string { return g.Prefix + k }

func (g *RedisGuard) Check(ctx context.Context, key string) (LockStatus, error) {
	count, err := g.Client.Get(ctx, g.key(key)).Int64()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return LockStatus{}, nil
		}
		return LockStatus{}, fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	st := LockStatus{Failures: count}
	if count >= g.Threshold {
		st.Locked = true
		ttl, err := g.Client.TTL(ctx, g.key(key)).Result()
		if err != nil || ttl < 0 {
			ttl = g.Window
		}
		st.RetryAfter = ttl
	}
	return st, nil
}

func (g *RedisGuard) RecordFailure(ctx context.Context, key string) (bool, error) {
	count, err := g.Client.Incr(ctx, g.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	switch {
	case count == 1:
		// primera falla: ventana de acumulación
		_ = g.Client.Expire(ctx, g.key(key), g.Window).Err()
	case count == g.Threshold:
		// se alcanzó el umbral: la ventana de lockout arranca ahora
		_ = g.Client.Expire(ctx, g.key(key), g.Window).Err()
	}
	return count >= g.Threshold, nil
}

func (g *RedisGuard) Reset(ctx context.Context, key string) error {
	if err := g.Client.Del(ctx, g.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	return nil
}

// MemoryGuard: Guard in-process sobre go-cache, para dev/tests.
type MemoryGuard struct {
	mu        sync.Mutex
	c         *gocache.Cache
	Threshold int64
	Window    time.Duration
}

func NewMemoryGuard(threshold int, window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		c:         gocache.New(window, time.Minute),
		Threshold: int64(threshold),
		Window:    window,
	}
}

func (g *MemoryGuard) Check(_ context.Context, key string) (LockStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, exp, ok := g.c.GetWithExpiration(key)
	if !ok {
		return LockStatus{}, nil
	}
	count := v.(int64)
	st := LockStatus{Failures: count}
	if count >= g.Threshold {
		st.Locked = true
		st.RetryAfter = time.Until(exp)
		if st.RetryAfter <= 0 {
			st.RetryAfter = time.Second
		}
	}
	return st, nil
}

func (g *MemoryGuard) RecordFailure(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var count int64 = 1
	if v, exp, ok := g.c.GetWithExpiration(key); ok {
		count = v.(int64) + 1
		if count == g.Threshold {
			g.c.Set(key, count, g.Window)
		} else {
			g.c.Set(key, count, time.Until(exp))
		}
	} else {
		g.c.Set(key, count, g.Window)
	}
	return count >= g.Threshold, nil
}

func (g *MemoryGuard) Reset(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.c.Delete(key)
	return nil
}
