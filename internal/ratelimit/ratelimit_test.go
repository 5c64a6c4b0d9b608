package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := &clock{now: time.Unix(1700000000, 0)}
	rl := newMemory(3, 15*time.Minute, c.Now)
	defer rl.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := rl.Allow(ctx, "ip:1.2.3.4")
		assert.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, i, d.Count)
	}
	assert.False(t, rl.Allow(ctx, "ip:1.2.3.4").Allowed)
	assert.True(t, rl.Allow(ctx, "ip:5.6.7.8").Allowed, "keys are independent")

	c.Advance(15 * time.Minute)
	assert.True(t, rl.Allow(ctx, "ip:1.2.3.4").Allowed, "new window")

	c.Advance(15 * time.Minute)
	rl.cleanup(c.Now())
	rl.mu.Lock()
	assert.Empty(t, rl.entries)
	rl.mu.Unlock()
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewMemory(0, time.Minute)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(context.Background(), "k").Allowed)
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	rl := NewRedis(client, 1, time.Minute, nil)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(context.Background(), "ip:1.2.3.4").Allowed)
	}
}

func TestMiddleware(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewMemory(2, time.Minute)
	defer rl.Close()

	rejected := 0
	h := Middleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(r *http.Request) { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if i == 2 {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, 1, rejected)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
