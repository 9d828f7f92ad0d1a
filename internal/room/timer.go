package room

import (
	"sync"
	"time"
)

// TurnTimer is the local countdown that forces an automatic move when
// the player holding the turn sits on it. Purely advisory: the expiry
// callback races the human through the same move transaction, and the
// cell-occupied check decides which of the two commits.
type TurnTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Reset (re)arms the countdown.
func (t *TurnTimer) Reset(d time.Duration, expire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, expire)
}

// Stop cancels a pending countdown.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
