package hub

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ClientClass is the role a socket client plays. It is fixed at connect time.
type ClientClass string

const (
	ClassHardware ClientClass = "hardware"
	ClassWeb      ClientClass = "web"
)

// ClassifyClient maps the clientType query parameter to a class. Unrecognised
// values fall back to ClassHardware with ok=false so the caller can decide
// whether to reject them.
func ClassifyClient(clientType string) (class ClientClass, ok bool) {
	switch strings.ToLower(strings.TrimSpace(clientType)) {
	case "hardware-web", "web":
		return ClassWeb, true
	case "hardware", "esp32":
		return ClassHardware, true
	}
	return ClassHardware, false
}

// Conn is the transport handle of one socket. Send must not block: it either
// queues the frame or fails.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

// Session is one accepted socket connection.
type Session struct {
	ID          string
	Class       ClientClass
	ConnectedAt time.Time

	conn      Conn
	alive     atomic.Bool
	closeOnce sync.Once
}

func newSession(id string, class ClientClass, conn Conn) *Session {
	s := &Session{
		ID:          id,
		Class:       class,
		ConnectedAt: time.Now().UTC(),
		conn:        conn,
	}
	s.alive.Store(true)
	return s
}

func (s *Session) Alive() bool { return s.alive.Load() }

func (s *Session) send(frame []byte) error {
	if !s.alive.Load() {
		return ErrSessionClosed
	}
	return s.conn.Send(frame)
}

// release closes the underlying handle exactly once.
func (s *Session) release() {
	s.closeOnce.Do(func() {
		s.alive.Store(false)
		_ = s.conn.Close()
	})
}
