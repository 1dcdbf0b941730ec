package hub

import (
	"sync"
)

// fakeConn records frames in memory. full makes Send report a slow consumer.
type fakeConn struct {
	mu     sync.Mutex
	frames []string
	closed int
	full   bool
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 {
		return ErrSessionClosed
	}
	if c.full {
		return ErrSlowConsumer
	}
	c.frames = append(c.frames, string(frame))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
