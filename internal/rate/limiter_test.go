package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/authcore/internal/rate"
)

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	l := rate.NewRedisLimiter(client, "rl:", 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rechazada antes del límite", i)
		}
		if want := int64(3 - i); res.Remaining != want {
			t.Errorf("Remaining = %d, want %d", res.Remaining, want)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("cuarta request debe rechazarse")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}

	// otra clave no comparte contador
	other, _ := l.Allow(ctx, "5.6.7.8")
	if !other.Allowed {
		t.Fatal("claves distintas no comparten ventana")
	}
}

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := rate.NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "k")
		if err != nil || !res.Allowed {
			t.Fatalf("Allow: allowed=%v err=%v", res.Allowed, err)
		}
	}
	res, _ := l.Allow(ctx, "k")
	if res.Allowed {
		t.Fatal("por encima del límite debe rechazar")
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}
}
