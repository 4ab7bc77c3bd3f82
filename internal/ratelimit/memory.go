package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Memory is an in-process fixed-window limiter.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	windows map[string]*window
}

// NewMemory creates a limiter admitting max requests per window and key.
func NewMemory(max int, windowLen time.Duration) *Memory {
	return NewMemoryWithClock(max, windowLen, time.Now)
}

// NewMemoryWithClock is NewMemory with an injectable clock.
func NewMemoryWithClock(max int, windowLen time.Duration, now func() time.Time) *Memory {
	if max < 1 {
		max = 1
	}
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		max:     max,
		window:  windowLen,
		now:     now,
		windows: make(map[string]*window),
	}
}

// Admit counts one request for key. Rollover and increment happen under the
// same lock, so concurrent callers never both reset an expired window.
func (m *Memory) Admit(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		w = &window{start: now}
		m.windows[key] = w
	}

	retryAfter := m.window - now.Sub(w.start)
	if w.count >= m.max {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: m.max - w.count, RetryAfter: retryAfter}, nil
}

// Sweep drops windows that ended before now and returns how many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(m.now())
		case <-ctx.Done():
			return
		}
	}
}

// Len reports the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
