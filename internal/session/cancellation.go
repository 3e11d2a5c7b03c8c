package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// CancellationToken signals that the running command should stop. It is set
// from the interrupt watcher goroutine and observed by the interpreter through
// a context obtained from Bind.
type CancellationToken struct {
	cancelled atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Reset clears the cancelled flag. Called at the start of every read cycle.
func (t *CancellationToken) Reset() {
	t.cancelled.Store(false)
}

// Cancel sets the flag and cancels the currently bound context, if any.
func (t *CancellationToken) Cancel() {
	t.cancelled.Store(true)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// Cancelled reports whether Cancel was called since the last Reset.
func (t *CancellationToken) Cancelled() bool {
	return t.cancelled.Load()
}

// Bind derives a context from parent that is cancelled when the token is.
// If the token is already cancelled the returned context is done immediately.
// The returned release function must be called once execution finishes.
func (t *CancellationToken) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	if t.Cancelled() {
		cancel()
	}

	return ctx, func() {
		t.mu.Lock()
		t.cancel = nil
		t.mu.Unlock()
		cancel()
	}
}
