// internal/ratelimit/ratelimit_test.go
//
// Run: go test ./internal/ratelimit -v
//
// The Redis test runs only when INTAKE_TEST_REDIS_ADDR points at a server.

package ratelimit

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T, limit int, window time.Duration) (*MemoryStore, *fakeClock) {
	t.Helper()
	m, err := NewMemoryStore(Policy{Limit: limit, Window: window})
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = clk.now
	return m, clk
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	m, clk := newTestStore(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := m.CheckAndConsume(ctx, "1.2.3.4"); !ok {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if ok, _ := m.CheckAndConsume(ctx, "1.2.3.4"); ok {
		t.Fatal("fourth request allowed")
	}
	if ok, _ := m.CheckAndConsume(ctx, "5.6.7.8"); !ok {
		t.Fatal("other key affected")
	}

	clk.advance(59 * time.Second)
	if ok, _ := m.CheckAndConsume(ctx, "1.2.3.4"); ok {
		t.Fatal("window reset early")
	}
	clk.advance(time.Second)
	if ok, _ := m.CheckAndConsume(ctx, "1.2.3.4"); !ok {
		t.Fatal("window did not reset")
	}
}

func TestMemoryStore_ConcurrentNoLostUpdates(t *testing.T) {
	const limit = 50
	m, _ := newTestStore(t, limit, time.Hour)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.CheckAndConsume(context.Background(), "k"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := allowed.Load(); got != limit {
		t.Fatalf("allowed %d, want exactly %d", got, limit)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	m, clk := newTestStore(t, 1, time.Minute)
	ctx := context.Background()
	m.CheckAndConsume(ctx, "a")
	clk.advance(30 * time.Second)
	m.CheckAndConsume(ctx, "b")
	clk.advance(30 * time.Second)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
}

func TestPolicyValidate(t *testing.T) {
	if _, err := NewMemoryStore(Policy{Limit: 0, Window: time.Minute}); err == nil {
		t.Error("zero limit accepted")
	}
	if _, err := NewMemoryStore(Policy{Limit: 1}); err == nil {
		t.Error("zero window accepted")
	}
	if _, err := NewRedisStore(nil, "x:", Policy{Limit: 1, Window: time.Second}); err == nil {
		t.Error("nil client accepted")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("INTAKE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("INTAKE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer rdb.Close()

	r, err := NewRedisStore(rdb, "intake:test:", Policy{Limit: 2, Window: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	key := uuid.NewString()
	for i := 0; i < 2; i++ {
		if ok, err := r.CheckAndConsume(ctx, key); err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := r.CheckAndConsume(ctx, key); ok {
		t.Fatal("third request allowed")
	}
	ttl, err := rdb.PTTL(ctx, "intake:test:"+key).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("counter has no TTL: %v %v", ttl, err)
	}
}
