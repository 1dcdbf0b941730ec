package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry owns the set of live socket sessions. Sessions are kept in
// registration order so that FindFirst is deterministic.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions []*Session
	byID     map[string]*Session
	hardware int

	notifyMu  sync.Mutex
	observers []func(present bool)

	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		byID:   make(map[string]*Session),
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// OnPresenceChange registers fn to be called whenever hardware presence may
// have flipped. fn receives the presence value at notification time.
func (r *Registry) OnPresenceChange(fn func(present bool)) {
	r.notifyMu.Lock()
	r.observers = append(r.observers, fn)
	r.notifyMu.Unlock()
}

// Register admits conn under class and returns the new session id.
func (r *Registry) Register(conn Conn, class ClientClass) string {
	s := newSession(uuid.NewString(), class, conn)

	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.byID[s.ID] = s
	flipped := false
	if class == ClassHardware {
		r.hardware++
		flipped = r.hardware == 1
	}
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info().
		Str("session_id", s.ID).
		Str("client_class", string(class)).
		Int("clients", total).
		Msg("client connected")

	if flipped {
		r.notifyPresence()
	}
	return s.ID
}

// Unregister removes the session and releases its handle. Unknown or
// already-removed ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	s, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	for i, cur := range r.sessions {
		if cur == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			break
		}
	}
	flipped := false
	if s.Class == ClassHardware {
		r.hardware--
		flipped = r.hardware == 0
	}
	total := len(r.sessions)
	r.mu.Unlock()

	s.release()

	r.logger.Info().
		Str("session_id", id).
		Str("client_class", string(s.Class)).
		Int("clients", total).
		Msg("client disconnected")

	if flipped {
		r.notifyPresence()
	}
}

// FindFirst returns the earliest-registered live session of class.
func (r *Registry) FindFirst(class ClientClass) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.Class == class && s.Alive() {
			return s.ID, true
		}
	}
	return "", false
}

func (r *Registry) IsHardwarePresent() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hardware > 0
}

// Count returns the number of registered sessions of class.
func (r *Registry) Count(class ClientClass) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if s.Class == class {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Class reports the classification of a registered session.
func (r *Registry) Class(id string) (ClientClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return "", false
	}
	return s.Class, true
}

// CloseAll unregisters every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		ids = append(ids, s.ID)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Unregister(id)
	}
}

func (r *Registry) lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// snapshot copies the live sessions of class in registration order so callers
// can deliver without holding the lock.
func (r *Registry) snapshot(class ClientClass) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Class == class && s.Alive() {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) notifyPresence() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	present := r.IsHardwarePresent()
	for _, fn := range r.observers {
		fn(present)
	}
}
