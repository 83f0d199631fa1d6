// Package rate implementa el control de admisión del servicio: rate limiting
// general por identidad de cliente y lockout por intentos de login fallidos.
//
// Los dos mecanismos guardan su estado en un store compartido (redis) para
// que todas las instancias vean los mismos contadores; los backends de
// memoria existen para desarrollo y tests de una sola instancia.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es la decisión del limiter para una request. RetryAfter sólo tiene
// valor cuando la request fue rechazada: lo que falta de la ventana actual.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter admite o rechaza requests por clave de cliente.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter implementa Limiter con una ventana fija: cada clave mapea a
// un contador por ventana y el INCR atómico de redis evita subcontar hits
// concurrentes de la misma clave desde varias instancias.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

// key incluye el inicio de la ventana: al rotar la ventana el contador
// anterior simplemente deja de consultarse y expira solo.
func (l *RedisLimiter) key(k string, winStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(k, " ", "_"), winStart.Unix())
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.Window)
	bucket := l.key(key, winStart)

	hits, err := l.Client.Incr(ctx, bucket).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}
	if hits == 1 {
		// primer hit de la ventana: el contador vive lo que la ventana
		_ = l.Client.Expire(ctx, bucket, l.Window).Err()
	}

	res := Result{Allowed: hits <= l.Max, Remaining: maxInt64(l.Max-hits, 0)}
	if !res.Allowed {
		ttl, err := l.Client.TTL(ctx, bucket).Result()
		if err != nil || ttl <= 0 {
			ttl = winStart.Add(l.Window).Sub(time.Now().UTC())
		}
		res.RetryAfter = ttl
	}
	return res, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
