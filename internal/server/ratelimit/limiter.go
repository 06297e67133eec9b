// Package ratelimit implements an in-memory sliding-window request counter
// keyed by arbitrary strings (client IPs, account identifiers).
//
// Each key owns an ordered log of event timestamps. A hit prunes entries that
// have left the window, rejects when the remaining count has reached the
// limit and otherwise records the event. Pruning happens lazily on access;
// there is no background sweeper. State lives for the process lifetime only.
package ratelimit

import (
	"hash/maphash"
	"math"
	"sync"
	"time"

	"github.com/dmitrijs2005/housing/internal/timex"
)

const defaultShards = 64

// Decision is the outcome of a single hit.
type Decision struct {
	Allowed bool
	// RetryAfter is set only when Allowed is false. It is rounded up to a
	// whole number of seconds and is never less than one second.
	RetryAfter time.Duration
}

// window is one key's event log. Its mutex is the per-key critical section.
type window struct {
	mu     sync.Mutex
	events []time.Time
	// dead is set once the window has been detached from its shard by Reset;
	// a hit that raced with the detach must look the key up again.
	dead bool
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// Limiter is safe for concurrent use. Shard locks only guard map lookups;
// the read-prune-append sequence for a key runs under that key's own lock,
// so unrelated keys never wait on each other's bookkeeping.
type Limiter struct {
	seed   maphash.Seed
	shards []*shard
	now    timex.Clock
}

type Option func(*Limiter)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c timex.Clock) Option {
	return func(l *Limiter) { l.now = c }
}

// WithShards sets the number of lookup shards (minimum 1).
func WithShards(n int) Option {
	return func(l *Limiter) {
		if n < 1 {
			n = 1
		}
		l.shards = newShards(n)
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		seed:   maphash.MakeSeed(),
		shards: newShards(defaultShards),
		now:    timex.SystemClock,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func newShards(n int) []*shard {
	s := make([]*shard, n)
	for i := range s {
		s[i] = &shard{windows: make(map[string]*window)}
	}
	return s
}

func (l *Limiter) shardFor(key string) *shard {
	return l.shards[maphash.String(l.seed, key)%uint64(len(l.shards))]
}

func (l *Limiter) lookup(key string) *window {
	sh := l.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	w, ok := sh.windows[key]
	if !ok {
		w = &window{}
		sh.windows[key] = w
	}
	return w
}

// Hit records one event for key if fewer than limit events happened within
// the trailing window, and reports whether it was allowed.
func (l *Limiter) Hit(key string, limit int, window time.Duration) Decision {
	for {
		w := l.lookup(key)
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		d := w.hit(l.now(), limit, window)
		w.mu.Unlock()
		return d
	}
}

func (w *window) hit(now time.Time, limit int, size time.Duration) Decision {
	cutoff := now.Add(-size)
	keep := 0
	for keep < len(w.events) && !w.events[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		w.events = append(w.events[:0], w.events[keep:]...)
	}

	if len(w.events) >= limit {
		oldest := now
		if len(w.events) > 0 {
			oldest = w.events[0]
		}
		return Decision{Allowed: false, RetryAfter: retryAfter(oldest.Add(size).Sub(now))}
	}

	w.events = append(w.events, now)
	return Decision{Allowed: true}
}

func retryAfter(d time.Duration) time.Duration {
	secs := math.Ceil(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Reset forgets all history for key.
func (l *Limiter) Reset(key string) {
	sh := l.shardFor(key)
	sh.mu.Lock()
	w, ok := sh.windows[key]
	if ok {
		delete(sh.windows, key)
	}
	sh.mu.Unlock()

	if ok {
		w.mu.Lock()
		w.dead = true
		w.events = nil
		w.mu.Unlock()
	}
}

// size returns the number of keys currently tracked.
func (l *Limiter) size() int {
	n := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}
