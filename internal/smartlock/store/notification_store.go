package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// NotificationStore persists dashboard notifications.
type NotificationStore interface {
	// CreateNotification fills in the id and timestamps when they are zero.
	CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error)
	// ListNotifications returns notifications newest first. limit <= 0 returns
	// all.
	ListNotifications(ctx context.Context, limit int) ([]types.Notification, error)
	// SetNotificationRead returns ErrNotFound for an unknown id.
	SetNotificationRead(ctx context.Context, id string, read bool, at time.Time) (types.Notification, error)
}
