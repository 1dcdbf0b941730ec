package store

import (
	"context"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// UserStore persists people who may open the door.
type UserStore interface {
	// CreateUser assigns ID and CreatedAt, and BiometricID (one past the
	// highest ever assigned, so a deleted user's slot is never reused) unless
	// the caller set one. A case-insensitive duplicate
	// email or a taken BiometricID yields ErrConflict.
	CreateUser(ctx context.Context, u types.User) (types.User, error)
	GetUser(ctx context.Context, id string) (types.User, error)
	FindByBiometricID(ctx context.Context, biometricID int) (types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	CountUsers(ctx context.Context) (int, error)
	SetBiometricEnrolled(ctx context.Context, id string, enrolled bool) error
	DeleteUser(ctx context.Context, id string) error
}
