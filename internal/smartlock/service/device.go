package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// HardwarePresence reports whether a lock controller socket is connected.
type HardwarePresence interface {
	IsHardwarePresent() bool
}

// DeviceService exposes the status record of the configured lock controller.
type DeviceService struct {
	devices  store.DeviceStore
	lock     *LockSynchronizer
	presence HardwarePresence
}

func NewDeviceService(devices store.DeviceStore, lock *LockSynchronizer, presence HardwarePresence) *DeviceService {
	return &DeviceService{devices: devices, lock: lock, presence: presence}
}

func (s *DeviceService) Get(ctx context.Context) (types.Device, error) {
	return s.devices.GetDevice(ctx, s.lock.DeviceID())
}

// Update applies a partial status update. Lock state changes go through the
// synchronizer so the dashboard sees them; telemetry is written directly.
func (s *DeviceService) Update(ctx context.Context, upd types.DeviceUpdate) (types.Device, error) {
	if upd.Empty() {
		return types.Device{}, ErrEmptyUpdate
	}
	if upd.LockState != nil && !upd.LockState.Valid() {
		return types.Device{}, ErrInvalidLockState
	}
	if upd.BatteryLevel != nil && (*upd.BatteryLevel < 0 || *upd.BatteryLevel > 100) {
		return types.Device{}, ErrInvalidBattery
	}

	id := s.lock.DeviceID()
	if _, err := s.devices.GetDevice(ctx, id); err != nil {
		return types.Device{}, err
	}

	// A storage error on the lock state does not stop the telemetry write;
	// both failures are reported together.
	var stateErr error
	if upd.LockState != nil {
		req := LockRequest{Origin: OriginREST}
		if *upd.LockState == types.LockStateUnlocked {
			stateErr = s.lock.RequestUnlock(ctx, req)
		} else {
			stateErr = s.lock.RequestLock(ctx, req)
		}
		if stateErr != nil && !errors.Is(stateErr, ErrStorage) {
			return types.Device{}, stateErr
		}
	}

	if upd.BatteryLevel != nil || upd.WifiStatus != nil {
		d, err := s.devices.UpdateTelemetry(ctx, id, upd.BatteryLevel, upd.WifiStatus, timeNow())
		if err != nil {
			return d, errors.Join(stateErr, fmt.Errorf("%w: update telemetry: %w", ErrStorage, err))
		}
		return d, stateErr
	}
	d, err := s.devices.GetDevice(ctx, id)
	if err != nil {
		return d, errors.Join(stateErr, err)
	}
	return d, stateErr
}

// Diagnose refreshes the telemetry the server can observe itself: wifi is
// set from whether the controller socket is connected. Battery is left as
// last reported.
func (s *DeviceService) Diagnose(ctx context.Context) (types.Device, error) {
	id := s.lock.DeviceID()
	if _, err := s.devices.GetDevice(ctx, id); err != nil {
		return types.Device{}, err
	}
	online := s.presence != nil && s.presence.IsHardwarePresent()
	d, err := s.devices.UpdateTelemetry(ctx, id, nil, &online, timeNow())
	if err != nil {
		return types.Device{}, fmt.Errorf("%w: diagnostics: %w", ErrStorage, err)
	}
	return d, nil
}
