package rate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/authcore/internal/rate"
)

func newRedisGuard(t *testing.T, threshold int, window time.Duration) (*rate.RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	return rate.NewRedisGuard(client, "lo:", threshold, window), mr
}

func TestGuardLocksAtThreshold(t *testing.T) {
	g, _ := newRedisGuard(t, 5, 15*time.Minute)
	ctx := context.Background()
	key := "bob@example.com|1.2.3.4"

	for i := 1; i <= 4; i++ {
		locked, err := g.RecordFailure(ctx, key)
		if err != nil {
			t.Fatalf("RecordFailure %d: %v", i, err)
		}
		if locked {
			t.Fatalf("locked tras %d fallos, umbral es 5", i)
		}
	}

	locked, err := g.RecordFailure(ctx, key)
	if err != nil {
		t.Fatalf("RecordFailure 5: %v", err)
	}
	if !locked {
		t.Fatal("quinto fallo debe lockear")
	}

	// lockeado: Check rechaza con RetryAfter positivo aunque el password
	// del próximo intento fuera correcto
	st, err := g.Check(ctx, key)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !st.Locked {
		t.Fatal("Check debería reportar Locked")
	}
	if st.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, debe ser > 0", st.RetryAfter)
	}
}

func TestGuardWindowElapses(t *testing.T) {
	g, mr := newRedisGuard(t, 5, 15*time.Minute)
	ctx := context.Background()
	key := "k"

	for i := 0; i < 5; i++ {
		_, _ = g.RecordFailure(ctx, key)
	}
	if st, _ := g.Check(ctx, key); !st.Locked {
		t.Fatal("debería estar lockeado")
	}

	mr.FastForward(16 * time.Minute)

	st, err := g.Check(ctx, key)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st.Locked || st.Failures != 0 {
		t.Fatalf("tras la ventana el estado debe ser limpio, got %+v", st)
	}
}

func TestGuardResetOnSuccess(t *testing.T) {
	g, _ := newRedisGuard(t, 5, 15*time.Minute)
	ctx := context.Background()
	key := "k"

	for i := 0; i < 3; i++ {
		_, _ = g.RecordFailure(ctx, key)
	}
	if err := g.Reset(ctx, key); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	st, _ := g.Check(ctx, key)
	if st.Failures != 0 {
		t.Fatalf("Reset no limpió: %+v", st)
	}
}

func TestGuardFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	g := rate.NewRedisGuard(client, "lo:", 5, 15*time.Minute)
	mr.Close()

	key := "k"
	if _, err := g.Check(context.Background(), key); err == nil {
		t.Fatal("backend caído debe devolver error, no estado limpio")
	}
	if _, err := g.RecordFailure(context.Background(), key); err == nil {
		t.Fatal("backend caído debe devolver error")
	}
}

func TestMemoryGuard(t *testing.T) {
	g := rate.NewMemoryGuard(3, time.Minute)
	ctx := context.Background()
	key := "k"

	for i := 1; i <= 2; i++ {
		if locked, _ := g.RecordFailure(ctx, key); locked {
			t.Fatalf("locked tras %d fallos", i)
		}
	}
	locked, _ := g.RecordFailure(ctx, key)
	if !locked {
		t.Fatal("tercer fallo debe lockear")
	}
	st, _ := g.Check(ctx, key)
	if !st.Locked || st.RetryAfter <= 0 {
		t.Fatalf("estado inesperado: %+v", st)
	}

	_ = g.Reset(ctx, key)
	if st, _ := g.Check(ctx, key); st.Locked {
		t.Fatal("Reset no destrabó")
	}
}
