package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// NotificationStore keeps notifications in insertion order.
type NotificationStore struct {
	mu    sync.Mutex
	items []types.Notification

	// FailWith makes every write fail.
	FailWith error
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateNotification(_ context.Context, n types.Notification) (types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return types.Notification{}, s.FailWith
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	s.items = append(s.items, n)
	return n, nil
}

func (s *NotificationStore) ListNotifications(_ context.Context, limit int) ([]types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.Notification, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func (s *NotificationStore) SetNotificationRead(_ context.Context, id string, read bool, at time.Time) (types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return types.Notification{}, s.FailWith
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = read
			s.items[i].UpdatedAt = at.UTC()
			return s.items[i], nil
		}
	}
	return types.Notification{}, store.ErrNotFound
}
