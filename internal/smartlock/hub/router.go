package hub

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Router delivers frames to registered sessions. Frames are passed through
// verbatim; callers choose between plain-text commands and JSON.
type Router struct {
	registry *Registry
	logger   zerolog.Logger
}

func NewRouter(reg *Registry, logger zerolog.Logger) *Router {
	return &Router{
		registry: reg,
		logger:   logger.With().Str("component", "router").Logger(),
	}
}

// Send delivers frame to the first live session of class. If that session
// fails to accept the frame the next one in registration order is tried.
func (r *Router) Send(class ClientClass, frame []byte) error {
	for _, s := range r.registry.snapshot(class) {
		if err := r.deliver(s, frame); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoRecipient, class)
}

// SendTo delivers frame to one specific session.
func (r *Router) SendTo(id string, frame []byte) error {
	s, ok := r.registry.lookup(id)
	if !ok {
		return ErrUnknownSession
	}
	return r.deliver(s, frame)
}

// Broadcast delivers frame to every live session of class and returns how many
// accepted it. Sessions that close mid-iteration are skipped.
func (r *Router) Broadcast(class ClientClass, frame []byte) int {
	delivered := 0
	for _, s := range r.registry.snapshot(class) {
		if err := r.deliver(s, frame); err != nil {
			continue
		}
		delivered++
	}
	r.logger.Debug().
		Str("client_class", string(class)).
		Int("recipients", delivered).
		Msg("broadcast sent")
	return delivered
}

func (r *Router) deliver(s *Session, frame []byte) error {
	err := s.send(frame)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSlowConsumer) {
		r.logger.Warn().Str("session_id", s.ID).Msg("client too slow, disconnecting")
		r.registry.Unregister(s.ID)
	} else if !errors.Is(err, ErrSessionClosed) {
		r.logger.Warn().Err(err).Str("session_id", s.ID).Msg("send failed")
	}
	return err
}
