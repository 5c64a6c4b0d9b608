// Package ratelimit throttles repeated credential attempts per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	WindowEnd time.Time
}

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
	Close()
}

type memoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]state
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
}

type state struct {
	count     int
	windowEnd time.Time
}

// NewMemory returns an in-process limiter allowing limit hits per window.
// Close stops its cleanup goroutine.
func NewMemory(limit int, window time.Duration) Limiter {
	return newMemory(limit, window, time.Now)
}

func newMemory(limit int, window time.Duration, now func() time.Time) *memoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	rl := &memoryLimiter{
		limit:   limit,
		window:  window,
		now:     now,
		entries: make(map[string]state),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *memoryLimiter) Allow(ctx context.Context, key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true}
	}
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	st, ok := rl.entries[key]
	if !ok || !now.Before(st.windowEnd) {
		st = state{count: 1, windowEnd: now.Add(rl.window)}
		rl.entries[key] = st
		return Decision{Allowed: true, Count: 1, Limit: rl.limit, WindowEnd: st.windowEnd}
	}
	if st.count >= rl.limit {
		return Decision{Allowed: false, Count: st.count, Limit: rl.limit, WindowEnd: st.windowEnd}
	}
	st.count++
	rl.entries[key] = st
	return Decision{Allowed: true, Count: st.count, Limit: rl.limit, WindowEnd: st.windowEnd}
}

func (rl *memoryLimiter) sweepLoop() {
	defer close(rl.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *memoryLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, st := range rl.entries {
		if !now.Before(st.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *memoryLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stopCh)
		<-rl.done
	})
}
