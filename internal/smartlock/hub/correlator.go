package hub

import (
	"context"
	"sync"
	"time"
)

// Resolution completes a pending enrollment.
type Resolution func(success bool)

// Correlator matches enrollment acknowledgements from the lock controller to
// the HTTP requests waiting on them, keyed by fingerprint slot.
type Correlator struct {
	mu      sync.Mutex
	pending map[int]Resolution
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[int]Resolution)}
}

// Await registers resolve for slot. A slot that is already pending is
// rejected rather than overwritten.
func (c *Correlator) Await(slot int, resolve Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[slot]; exists {
		return ErrDuplicateSlot
	}
	c.pending[slot] = resolve
	return nil
}

// Resolve removes the entry for slot and invokes it with success. The
// resolution runs outside the lock and at most once.
func (c *Correlator) Resolve(slot int, success bool) error {
	c.mu.Lock()
	resolve, ok := c.pending[slot]
	if ok {
		delete(c.pending, slot)
	}
	c.mu.Unlock()

	if !ok {
		return ErrUnknownSlot
	}
	resolve(success)
	return nil
}

// Cancel drops the entry for slot without resolving it. It reports whether an
// entry was removed.
func (c *Correlator) Cancel(slot int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[slot]
	delete(c.pending, slot)
	return ok
}

// Pending returns the number of in-flight enrollments.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Waiter is a channel-backed pending entry created by Expect.
type Waiter struct {
	c    *Correlator
	slot int
	ch   chan bool
}

// Expect registers a pending entry for slot whose outcome is collected with
// Wait.
func (c *Correlator) Expect(slot int) (*Waiter, error) {
	ch := make(chan bool, 1)
	if err := c.Await(slot, func(success bool) { ch <- success }); err != nil {
		return nil, err
	}
	return &Waiter{c: c, slot: slot, ch: ch}, nil
}

// Wait blocks until the slot is resolved, ctx is done or timeout elapses
// (timeout <= 0 waits without bound). On timeout or cancellation the entry is
// removed so a late acknowledgement is treated as unknown.
func (w *Waiter) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case ok := <-w.ch:
		return ok, nil
	case <-expired:
		return w.abandon(ErrTimeout)
	case <-ctx.Done():
		return w.abandon(ctx.Err())
	}
}

// Cancel drops the pending entry. Safe to call after Wait returned.
func (w *Waiter) Cancel() {
	w.c.Cancel(w.slot)
}

func (w *Waiter) abandon(cause error) (bool, error) {
	if w.c.Cancel(w.slot) {
		return false, cause
	}
	// Resolve already claimed the entry; its result is on the way.
	return <-w.ch, nil
}
