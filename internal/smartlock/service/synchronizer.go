package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// Sender delivers a frame to the first live session of a client class.
type Sender interface {
	Send(class hub.ClientClass, frame []byte) error
}

// LockRequest describes one requested transition. Source and BiometricID are
// only meaningful for hardware-reported events.
type LockRequest struct {
	Origin      Origin
	Source      types.AccessMethod
	BiometricID *int
}

type SynchronizerConfig struct {
	DeviceID string
	// MobilePrincipalID is the acting user recorded for unlocks that the
	// controller reports with source=mobile.
	MobilePrincipalID string
}

// LockSynchronizer is the only writer of the device lock state. Every
// transition is persisted and pushed to the dashboard; redundant transitions
// are applied like any other.
type LockSynchronizer struct {
	mu    sync.Mutex
	state types.LockState

	cfg       SynchronizerConfig
	devices   store.DeviceStore
	users     store.UserStore
	recorder  *AccessRecorder
	notifier  Sender
	observers observers
	logger    zerolog.Logger
}

func NewLockSynchronizer(
	cfg SynchronizerConfig,
	devices store.DeviceStore,
	users store.UserStore,
	recorder *AccessRecorder,
	notifier Sender,
	logger zerolog.Logger,
	obs ...Observer,
) *LockSynchronizer {
	return &LockSynchronizer{
		state:     types.LockStateLocked,
		cfg:       cfg,
		devices:   devices,
		users:     users,
		recorder:  recorder,
		notifier:  notifier,
		observers: obs,
		logger:    logger.With().Str("component", "lock_sync").Logger(),
	}
}

// Load reads the persisted state. A missing device record leaves the door
// locked.
func (s *LockSynchronizer) Load(ctx context.Context) error {
	d, err := s.devices.GetDevice(ctx, s.cfg.DeviceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.state = types.LockStateLocked
	case err != nil:
		return fmt.Errorf("load lock state: %w", err)
	case d.LockState.Valid():
		s.state = d.LockState
	}
	s.logger.Info().Str("device_id", s.cfg.DeviceID).Str("state", string(s.state)).Msg("lock state loaded")
	return nil
}

func (s *LockSynchronizer) State() types.LockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *LockSynchronizer) DeviceID() string { return s.cfg.DeviceID }

func (s *LockSynchronizer) RequestUnlock(ctx context.Context, req LockRequest) error {
	return s.apply(ctx, types.LockStateUnlocked, req)
}

func (s *LockSynchronizer) RequestLock(ctx context.Context, req LockRequest) error {
	return s.apply(ctx, types.LockStateLocked, req)
}

// RecordFailure logs a rejected attempt reported by the controller. The lock
// state is left alone and no user is attached: a failed credential does not
// identify anyone.
func (s *LockSynchronizer) RecordFailure(ctx context.Context, req LockRequest) error {
	return s.recorder.Record(ctx, AccessEvent{
		Success: false,
		Method:  req.Source,
		Action:  ActionFailedAttempt,
	})
}

func (s *LockSynchronizer) apply(ctx context.Context, state types.LockState, req LockRequest) error {
	var storeErr error

	// The state write and the dashboard push happen under one lock so both
	// observe transitions in the same order.
	s.mu.Lock()
	s.state = state
	if err := s.devices.SetLockState(ctx, s.cfg.DeviceID, state, time.Now().UTC()); err != nil {
		s.logger.Error().Err(err).Str("state", string(state)).Msg("lock state not persisted")
		storeErr = fmt.Errorf("%w: persist lock state: %w", ErrStorage, err)
	}
	if err := s.notifier.Send(hub.ClassWeb, types.NotificationFrame(state)); err != nil {
		s.logger.Debug().Err(err).Str("state", string(state)).Msg("dashboard not notified")
	}
	s.mu.Unlock()

	s.observers.lockStateChanged(s.cfg.DeviceID, state, req.Origin)
	s.logger.Info().
		Str("state", string(state)).
		Str("origin", string(req.Origin)).
		Str("source", string(req.Source)).
		Msg("lock state changed")

	// The controller echoes REST-issued commands back as hardware events;
	// only those echoes land in the audit log.
	if req.Origin != OriginHardware {
		return storeErr
	}

	ev := AccessEvent{Success: true, Method: req.Source, Action: ActionDoorLocked}
	if state == types.LockStateUnlocked {
		ev.Action = ActionDoorUnlocked
		ev.UserID, ev.Notes = s.actingUser(ctx, req)
	}
	return errors.Join(storeErr, s.recorder.Record(ctx, ev))
}

// actingUser resolves who stood at the door. Mobile unlocks belong to the
// configured gateway principal; everything else is looked up by biometric id.
func (s *LockSynchronizer) actingUser(ctx context.Context, req LockRequest) (userID, notes string) {
	if req.Source == types.AccessMethodMobile {
		return s.cfg.MobilePrincipalID, ""
	}
	if req.BiometricID == nil || *req.BiometricID <= 0 {
		return "", ""
	}
	u, err := s.users.FindByBiometricID(ctx, *req.BiometricID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", "unknown biometric id " + strconv.Itoa(*req.BiometricID)
	case err != nil:
		s.logger.Warn().Err(err).Int("biometric_id", *req.BiometricID).Msg("acting user lookup failed")
		return "", ""
	}
	return u.ID, ""
}
