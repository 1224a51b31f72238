package ratelimit

import (
	"sync"
	"time"
)

// window tracks the timestamps of a single identity's recent actions.
type window struct {
	stamps   []time.Time
	lastSeen time.Time
	mutex    sync.Mutex
}

// RateLimiter throttles callers to a fixed action budget per rolling time
// window, keyed by identity. Entries expire deterministically: stamps are
// pruned on every access and idle identities are swept on a schedule.
type RateLimiter struct {
	budget  int
	span    time.Duration
	windows map[string]*window
	mutex   sync.RWMutex

	now func() time.Time // swappable for tests
}

func NewRateLimiter(budget int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		budget:  budget,
		span:    span,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow consumes one slot for identity if the budget permits. When the
// budget is exhausted it returns false and the computed wait until the
// oldest in-window action rolls off.
func (rl *RateLimiter) Allow(identity string) (bool, time.Duration) {
	rl.mutex.RLock()
	w, exists := rl.windows[identity]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if w, exists = rl.windows[identity]; !exists {
			w = &window{}
			rl.windows[identity] = w
		}
		rl.mutex.Unlock()
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	now := rl.now()
	w.lastSeen = now

	cutoff := now.Add(-rl.span)
	kept := w.stamps[:0]
	for _, s := range w.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= rl.budget {
		wait := w.stamps[0].Add(rl.span).Sub(now)
		return false, wait
	}

	w.stamps = append(w.stamps, now)
	return true, 0
}

// Remaining reports how many actions the identity still has in the
// current window.
func (rl *RateLimiter) Remaining(identity string) int {
	rl.mutex.RLock()
	w, exists := rl.windows[identity]
	rl.mutex.RUnlock()
	if !exists {
		return rl.budget
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	cutoff := rl.now().Add(-rl.span)
	inWindow := 0
	for _, s := range w.stamps {
		if s.After(cutoff) {
			inWindow++
		}
	}
	if inWindow >= rl.budget {
		return 0
	}
	return rl.budget - inWindow
}

// Sweep removes identities idle for longer than one full window.
func (rl *RateLimiter) Sweep() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-2 * rl.span)
	for identity, w := range rl.windows {
		w.mutex.Lock()
		idle := w.lastSeen.Before(cutoff)
		w.mutex.Unlock()
		if idle {
			delete(rl.windows, identity)
		}
	}
}

// StartSweepRoutine sweeps idle identities on a schedule. Run once at
// startup.
func (rl *RateLimiter) StartSweepRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			rl.Sweep()
		}
	}()
}
