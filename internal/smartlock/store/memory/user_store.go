package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]types.User

	// lastBio is the highest biometric id ever assigned. Deletes do not lower
	// it.
	lastBio int
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]types.User)}
}

func (s *UserStore) CreateUser(_ context.Context, u types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, strings.TrimSpace(u.Email)) {
			return types.User{}, store.ErrConflict
		}
		if u.BiometricID != 0 && existing.BiometricID == u.BiometricID {
			return types.User{}, store.ErrConflict
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = types.RoleLecturer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = strings.TrimSpace(u.Email)
	if u.BiometricID == 0 {
		u.BiometricID = s.lastBio + 1
	}
	if u.BiometricID > s.lastBio {
		s.lastBio = u.BiometricID
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) GetUser(_ context.Context, id string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) FindByBiometricID(_ context.Context, biometricID int) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.BiometricID == biometricID {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *UserStore) ListUsers(_ context.Context) ([]types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BiometricID < out[j].BiometricID })
	return out, nil
}

func (s *UserStore) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *UserStore) SetBiometricEnrolled(_ context.Context, id string, enrolled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.BiometricEnrolled = enrolled
	s.users[id] = u
	return nil
}

func (s *UserStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}
