package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// DoorService applies dashboard lock/unlock commands.
type DoorService struct {
	devices store.DeviceStore
	lock    *LockSynchronizer
	router  Sender
	logger  zerolog.Logger
}

func NewDoorService(devices store.DeviceStore, lock *LockSynchronizer, router Sender, logger zerolog.Logger) *DoorService {
	return &DoorService{
		devices: devices,
		lock:    lock,
		router:  router,
		logger:  logger.With().Str("component", "door").Logger(),
	}
}

// Control moves the lock to the state named by action and forwards the
// command to the first connected controller. The state write happens even
// when no controller is connected; in that case the response is still
// returned alongside an error wrapping hub.ErrNoRecipient.
func (s *DoorService) Control(ctx context.Context, action string) (types.DoorControlResponse, error) {
	var state types.LockState
	switch strings.TrimSpace(action) {
	case types.CommandUnlock:
		state = types.LockStateUnlocked
	case types.CommandLock:
		state = types.LockStateLocked
	default:
		return types.DoorControlResponse{}, ErrInvalidAction
	}

	if _, err := s.devices.GetDevice(ctx, s.lock.DeviceID()); err != nil {
		return types.DoorControlResponse{}, err
	}

	req := LockRequest{Origin: OriginREST}
	var storeErr error
	if state == types.LockStateUnlocked {
		storeErr = s.lock.RequestUnlock(ctx, req)
	} else {
		storeErr = s.lock.RequestLock(ctx, req)
	}
	if storeErr != nil && !errors.Is(storeErr, ErrStorage) {
		return types.DoorControlResponse{}, storeErr
	}
	// A storage failure has already moved the in-memory state and told the
	// dashboard, so the controller must still get the command.

	resp := types.DoorControlResponse{Success: true, Message: "Door locked"}
	if state == types.LockStateUnlocked {
		resp.Message = "Door unlocked"
	}

	if err := s.router.Send(hub.ClassHardware, types.CommandFrame(state)); err != nil {
		s.logger.Warn().Err(err).Str("state", string(state)).Msg("command not delivered to controller")
		return resp, errors.Join(storeErr, fmt.Errorf("deliver %s: %w", state, err))
	}
	resp.Delivered = true
	s.logger.Info().Str("state", string(state)).Msg("door command sent")
	return resp, storeErr
}
