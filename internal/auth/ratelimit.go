package auth

import (
	"sync"
	"time"
)

const (
	defaultLoginLimit   = 5
	defaultLoginWindow  = 15 * time.Minute
	defaultLoginLockout = 30 * time.Minute
	throttleSweepEvery  = 5 * time.Minute
)

// LoginThrottle limits failed logins per client IP and login name. Failures
// older than the window are forgotten; reaching the limit locks the pair out.
type LoginThrottle struct {
	limit   int
	window  time.Duration
	lockout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[throttleKey]*failureLog

	done     chan struct{}
	stopOnce sync.Once
}

type throttleKey struct {
	ip    string
	login string
}

type failureLog struct {
	at          []time.Time // oldest first
	lockedUntil time.Time
}

// prune drops failures outside the window ending at now.
func (f *failureLog) prune(now time.Time, window time.Duration) {
	cut := 0
	for cut < len(f.at) && now.Sub(f.at[cut]) > window {
		cut++
	}
	f.at = f.at[cut:]
}

func (f *failureLog) idle(now time.Time) bool {
	return len(f.at) == 0 && !now.Before(f.lockedUntil)
}

// NewLoginThrottle starts a sweep goroutine; call Stop to end it. Zero
// values select the defaults.
func NewLoginThrottle(limit int, window, lockout time.Duration) *LoginThrottle {
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	if window <= 0 {
		window = defaultLoginWindow
	}
	if lockout <= 0 {
		lockout = defaultLoginLockout
	}

	t := &LoginThrottle{
		limit:   limit,
		window:  window,
		lockout: lockout,
		now:     time.Now,
		clients: make(map[throttleKey]*failureLog),
		done:    make(chan struct{}),
	}
	go t.sweepLoop(throttleSweepEvery)
	return t
}

func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

// Allow reports whether another attempt is permitted and, if not, how long
// the caller has to wait.
func (t *LoginThrottle) Allow(ip, login string) (bool, time.Duration) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.clients[throttleKey{ip, login}]
	if !ok {
		return true, 0
	}
	if now.Before(f.lockedUntil) {
		return false, f.lockedUntil.Sub(now)
	}
	f.prune(now, t.window)
	if len(f.at) < t.limit {
		return true, 0
	}
	// the oldest failure leaving the window frees one attempt
	return false, t.window - now.Sub(f.at[0])
}

// RecordFailure counts a failed attempt and reports whether it triggered a
// lockout.
func (t *LoginThrottle) RecordFailure(ip, login string) (bool, time.Duration) {
	now := t.now()
	key := throttleKey{ip, login}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.clients[key]
	if !ok {
		f = &failureLog{}
		t.clients[key] = f
	}
	f.prune(now, t.window)
	f.at = append(f.at, now)

	if len(f.at) < t.limit {
		return false, 0
	}
	f.lockedUntil = now.Add(t.lockout)
	f.at = nil
	return true, t.lockout
}

// RecordSuccess forgets earlier failures.
func (t *LoginThrottle) RecordSuccess(ip, login string) {
	t.mu.Lock()
	delete(t.clients, throttleKey{ip, login})
	t.mu.Unlock()
}

func (t *LoginThrottle) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.done:
			return
		}
	}
}

func (t *LoginThrottle) sweep() {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, f := range t.clients {
		f.prune(now, t.window)
		if f.idle(now) {
			delete(t.clients, key)
		}
	}
}
