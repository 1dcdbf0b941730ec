package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/smartlock/internal/db"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type DeviceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDeviceStore(db *sql.DB, writer *dbpkg.Worker) *DeviceStore {
	return &DeviceStore{db: db, writer: writer}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (types.Device, error) {
	var (
		d                    types.Device
		state                string
		wifi                 int
		createdMs, updatedMs int64
	)
	if err := row.Scan(&d.DeviceID, &state, &d.BatteryLevel, &wifi, &createdMs, &updatedMs); err != nil {
		return types.Device{}, err
	}
	d.LockState = types.LockState(state)
	d.WifiStatus = wifi == 1
	d.CreatedAt = time.UnixMilli(createdMs).UTC()
	d.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return d, nil
}

const selectDevice = `
SELECT device_id, lock_state, battery_level, wifi_status, created_at_ms, updated_at_ms
FROM devices
WHERE device_id = ?;
`

func (s *DeviceStore) GetDevice(ctx context.Context, deviceID string) (types.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	d, err := scanDevice(s.db.QueryRowContext(ctx, selectDevice, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Device{}, store.ErrNotFound
	}
	if err != nil {
		return types.Device{}, fmt.Errorf("GetDevice query: %w", err)
	}
	return d, nil
}

func (s *DeviceStore) SetLockState(ctx context.Context, deviceID string, state types.LockState, at time.Time) error {
	deviceID = strings.TrimSpace(deviceID)
	if at.IsZero() {
		at = time.Now().UTC()
	}
	atMs := at.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureDevice(ctx, tx, deviceID, atMs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE devices
SET lock_state = ?, updated_at_ms = ?
WHERE device_id = ?;
`, string(state), atMs, deviceID); err != nil {
			return fmt.Errorf("SetLockState update: %w", err)
		}
		return nil
	})
}

func (s *DeviceStore) UpdateTelemetry(ctx context.Context, deviceID string, battery *int, wifi *bool, at time.Time) (types.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if at.IsZero() {
		at = time.Now().UTC()
	}
	atMs := at.UTC().UnixMilli()

	var batteryArg, wifiArg any
	if battery != nil {
		batteryArg = *battery
	}
	if wifi != nil {
		wifiArg = boolToInt(*wifi)
	}

	var out types.Device
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureDevice(ctx, tx, deviceID, atMs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE devices
SET battery_level = COALESCE(?, battery_level),
    wifi_status   = COALESCE(?, wifi_status),
    updated_at_ms = ?
WHERE device_id = ?;
`, batteryArg, wifiArg, atMs, deviceID); err != nil {
			return fmt.Errorf("UpdateTelemetry update: %w", err)
		}
		d, err := scanDevice(tx.QueryRowContext(ctx, selectDevice, deviceID))
		if err != nil {
			return fmt.Errorf("UpdateTelemetry reload: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}
