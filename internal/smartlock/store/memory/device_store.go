package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]types.Device
	writes  int

	// FailWith makes every write fail.
	FailWith error
}

// NewDeviceStore seeds a default record for each of deviceIDs.
func NewDeviceStore(deviceIDs ...string) *DeviceStore {
	s := &DeviceStore{devices: make(map[string]types.Device)}
	now := time.Now().UTC()
	for _, id := range deviceIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			s.devices[id] = defaultDevice(id, now)
		}
	}
	return s
}

func defaultDevice(id string, now time.Time) types.Device {
	return types.Device{
		DeviceID:     id,
		LockState:    types.LockStateLocked,
		BatteryLevel: 100,
		WifiStatus:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *DeviceStore) GetDevice(_ context.Context, deviceID string) (types.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return types.Device{}, store.ErrNotFound
	}
	return d, nil
}

func (s *DeviceStore) SetLockState(_ context.Context, deviceID string, state types.LockState, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	d, ok := s.devices[deviceID]
	if !ok {
		d = defaultDevice(deviceID, at)
	}
	d.LockState = state
	d.UpdatedAt = at
	s.devices[deviceID] = d
	s.writes++
	return nil
}

func (s *DeviceStore) UpdateTelemetry(_ context.Context, deviceID string, battery *int, wifi *bool, at time.Time) (types.Device, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return types.Device{}, s.FailWith
	}
	d, ok := s.devices[deviceID]
	if !ok {
		d = defaultDevice(deviceID, at)
	}
	if battery != nil {
		d.BatteryLevel = *battery
	}
	if wifi != nil {
		d.WifiStatus = *wifi
	}
	d.UpdatedAt = at
	s.devices[deviceID] = d
	s.writes++
	return d, nil
}

// Writes counts successful mutations. Test-only helper.
func (s *DeviceStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
