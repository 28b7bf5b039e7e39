package usecase

import (
	"sync"
	"time"
)

// ExpiryTimer counts down to a scannable code's expiry, one second at a
// time. It emits "expired" exactly once when the countdown reaches zero,
// never goes negative, and keeps existing until the owner stops it; the
// owner is responsible for calling Stop. A timer is single-use; restart by
// creating a new one.
type ExpiryTimer struct {
	interval  time.Duration
	onTick    func(remaining int)
	onExpired func()

	mu        sync.Mutex
	remaining int
	expired   bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewExpiryTimer computes the remaining seconds once, clamped at zero.
// Either callback may be nil.
func NewExpiryTimer(expiresAt time.Time, onTick func(remaining int), onExpired func()) *ExpiryTimer {
	remaining := int(time.Until(expiresAt) / time.Second)
	if remaining < 0 {
		remaining = 0
	}

	return &ExpiryTimer{
		interval:  time.Second,
		onTick:    onTick,
		onExpired: onExpired,
		remaining: remaining,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the countdown in the background.
func (t *ExpiryTimer) Start() {
	go t.run()
}

func (t *ExpiryTimer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			if t.tick() {
				return
			}
		}
	}
}

// tick advances the countdown and reports whether it just expired.
func (t *ExpiryTimer) tick() bool {
	t.mu.Lock()
	if t.expired {
		t.mu.Unlock()
		return true
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	justExpired := remaining == 0
	if justExpired {
		t.expired = true
	}
	t.mu.Unlock()

	if justExpired {
		if t.onExpired != nil {
			t.onExpired()
		}
		return true
	}

	if t.onTick != nil {
		t.onTick(remaining)
	}
	return false
}

// Remaining returns the current countdown value in seconds.
func (t *ExpiryTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Expired reports whether the countdown has reached zero.
func (t *ExpiryTimer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Stop halts the countdown. Safe to call more than once; a stopped timer
// never fires again.
func (t *ExpiryTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}
