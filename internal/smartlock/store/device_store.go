package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// DeviceStore holds the status record of each lock controller. Writers create
// a default record (locked, full battery, wifi up) for unknown ids.
type DeviceStore interface {
	GetDevice(ctx context.Context, deviceID string) (types.Device, error)
	SetLockState(ctx context.Context, deviceID string, state types.LockState, at time.Time) error
	UpdateTelemetry(ctx context.Context, deviceID string, battery *int, wifi *bool, at time.Time) (types.Device, error)
}
