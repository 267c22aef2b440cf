package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// RateLimiter is the single-process counterpart of the redis fixed-window
// limiter, used when redis is disabled. It counts the same way: at most limit
// events per key per window, with the count reset when the window ends.
type RateLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{now: time.Now, windows: make(map[string]*window)}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(win)}
		r.windows[key] = w
		r.gc(now)
	}
	w.count++
	return w.count <= limit, nil
}

// gc drops expired windows; called only when a new window is opened.
func (r *RateLimiter) gc(now time.Time) {
	if len(r.windows) < 1024 {
		return
	}
	for k, w := range r.windows {
		if !now.Before(w.reset) {
			delete(r.windows, k)
		}
	}
}
