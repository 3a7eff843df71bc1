// Package debounce coalesces bursts of activity per key into one callback
// that fires once the key has been quiet for the delay given on its last
// touch.
package debounce

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drake/retimer/retimer"
	"github.com/drake/retimer/timer"
)

// Group holds one retimer per key, bounded by an LRU. Evicted or cancelled
// keys are cleared and never fire.
type Group[K comparable, V any] struct {
	host timer.Facility
	fire func(K, V)

	mu      sync.Mutex // serializes create-or-reschedule per key
	entries *lru.Cache[K, *entry[V]]
}

type entry[V any] struct {
	timer *retimer.Timer

	mu    sync.Mutex
	value V
}

// New creates a group holding at most size keys.
func New[K comparable, V any](host timer.Facility, size int, fire func(K, V)) (*Group[K, V], error) {
	if fire == nil {
		return nil, timer.ErrNilCallback
	}
	cache, err := lru.NewWithEvict(size, func(_ K, e *entry[V]) {
		e.timer.Clear()
	})
	if err != nil {
		return nil, fmt.Errorf("debounce: %w", err)
	}
	return &Group[K, V]{
		host:    host,
		fire:    fire,
		entries: cache,
	}, nil
}

// Touch records activity on key, firing d after the last touch. The latest
// value wins.
func (g *Group[K, V]) Touch(key K, value V, d time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries.Get(key); ok {
		e.set(value)
		_, err := e.timer.Reschedule(d)
		return err
	}

	e := &entry[V]{value: value}
	t, err := retimer.New(g.host, func(...any) {
		g.fire(key, e.get())
	}, d)
	if err != nil {
		return err
	}
	e.timer = t
	g.entries.Add(key, e)
	return nil
}

// Cancel clears key's timer and forgets it. It reports whether key was known.
func (g *Group[K, V]) Cancel(key K) bool {
	return g.entries.Remove(key)
}

// Purge clears every key.
func (g *Group[K, V]) Purge() {
	g.entries.Purge()
}

// Len returns the number of tracked keys, fired or not.
func (g *Group[K, V]) Len() int {
	return g.entries.Len()
}

// Pending returns the number of keys waiting to fire.
func (g *Group[K, V]) Pending() int {
	n := 0
	for _, e := range g.entries.Values() {
		if e.timer.State() == retimer.Armed {
			n++
		}
	}
	return n
}

func (e *entry[V]) set(v V) {
	e.mu.Lock()
	e.value = v
	e.mu.Unlock()
}

func (e *entry[V]) get() V {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}
