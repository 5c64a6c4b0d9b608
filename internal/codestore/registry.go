package codestore

import (
	"sync"
	"time"
)

// Record is a point-in-time copy of a registry entry.
type Record[T any] struct {
	ID         string
	Payload    T
	Status     Status
	ExpiresAt  time.Time
	ResolvedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r Record[T]) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Registry is a mutex-guarded map of pending codes keyed by their secret id.
// Device and confirmation codes each get their own Registry and lock.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*Record[T]
}

func newRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]*Record[T])}
}

// insert adds a pending record. It refuses when id is taken, or when
// conflicts reports a clash with a live pending record.
func (r *Registry[T]) insert(now time.Time, id string, payload T, expiresAt time.Time, conflicts func(T) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return false
	}
	if conflicts != nil {
		for _, rec := range r.entries {
			if rec.Status == StatusPending && !rec.Expired(now) && conflicts(rec.Payload) {
				return false
			}
		}
	}

	r.entries[id] = &Record[T]{
		ID:        id,
		Payload:   payload,
		Status:    StatusPending,
		ExpiresAt: expiresAt,
	}
	return true
}

func (r *Registry[T]) get(id string) (Record[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.entries[id]
	if !ok {
		return Record[T]{}, false
	}
	return *rec, true
}

// findPending returns the first pending, unexpired record matching match.
func (r *Registry[T]) findPending(now time.Time, match func(T) bool) (Record[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.entries {
		if rec.Status == StatusPending && !rec.Expired(now) && match(rec.Payload) {
			return *rec, true
		}
	}
	return Record[T]{}, false
}

// transition moves id to status to when its current status is one of from,
// applying mutate to the payload. With live set, expired records are left
// alone. It reports whether the transition happened.
func (r *Registry[T]) transition(now time.Time, id string, from []Status, to Status, live bool, mutate func(*T)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.entries[id]
	if !ok {
		return false
	}
	if live && rec.Expired(now) {
		return false
	}
	allowed := false
	for _, s := range from {
		if rec.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if mutate != nil {
		mutate(&rec.Payload)
	}
	rec.Status = to
	rec.ResolvedAt = now
	return true
}

// sweep deletes expired and invalidated records, and terminal records within
// grace of their expiry. It returns the number of records removed.
func (r *Registry[T]) sweep(now time.Time, grace time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rec := range r.entries {
		switch {
		case rec.Expired(now),
			rec.Status == StatusInvalidated,
			rec.Status.Terminal() && rec.ExpiresAt.Before(now.Add(grace)):
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *Registry[T]) countPending(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.entries {
		if rec.Status == StatusPending && !rec.Expired(now) {
			n++
		}
	}
	return n
}

func (r *Registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
