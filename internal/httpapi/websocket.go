package httpapi

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
)

// wsConn adapts a gorilla connection to hub.Conn. Frames are queued on send
// and written by writePump; the connection itself is only written from there.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, queue int) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

func (c *wsConn) Send(frame []byte) error {
	select {
	case <-c.done:
		return hub.ErrSessionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return hub.ErrSlowConsumer
	}
}

// Close stops the write pump, which sends a close frame and closes the
// underlying connection. Safe to call more than once.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) writePump(cfg SocketConfig, log zerolog.Logger) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// handleSocketOnly serves a path shared with no other route: upgrades are
// accepted, plain requests get 404.
func (s *Server) handleSocketOnly(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	s.handleSocket(w, r)
}

// handleSocket upgrades the request, registers the session under the class
// named by the clientType query parameter and serves inbound frames until
// the peer goes away.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	clientType := r.URL.Query().Get("clientType")
	class, known := hub.ClassifyClient(clientType)
	if !known && s.socket.RejectUnknownClients {
		if s.metrics != nil {
			s.metrics.SocketRejected()
		}
		s.logger.Warn().Str("client_type", clientType).Str("from", r.RemoteAddr).Msg("socket rejected")
		writeError(w, http.StatusBadRequest, "unknown_client_type", "clientType must be hardware or hardware-web")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newWSConn(conn, s.socket.SendQueue)
	id := s.registry.Register(c, class)
	log := s.logger.With().Str("session_id", id).Str("client_class", string(class)).Logger()

	go c.writePump(s.socket, log)
	s.readPump(c, id, log)
	s.registry.Unregister(id)
}

func (s *Server) readPump(c *wsConn, id string, log zerolog.Logger) {
	defer c.Close()

	wait := s.socket.PingInterval + s.socket.PongTimeout
	c.conn.SetReadLimit(s.socket.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			} else {
				log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		// Any frame counts as liveness; the controller firmware does not
		// always answer protocol pings.
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))

		if err := s.dispatcher.Handle(s.ctx, id, frame); err != nil {
			if errors.Is(err, service.ErrMalformedMessage) {
				log.Warn().Err(err).Int("bytes", len(frame)).Msg("malformed socket message")
				continue
			}
			log.Error().Err(err).Msg("socket message handling failed")
		}
	}
}
