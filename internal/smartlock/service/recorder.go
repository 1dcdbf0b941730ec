package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// Audit action labels written with each access event.
const (
	ActionDoorUnlocked  = "door unlocked"
	ActionDoorLocked    = "door locked"
	ActionFailedAttempt = "failed attempt"
)

// AccessEvent is one audit entry before persistence.
type AccessEvent struct {
	Success bool
	Method  types.AccessMethod
	Action  string
	UserID  string // optional
	Notes   string
}

// AccessRecorder appends access events to the audit log.
type AccessRecorder struct {
	events    store.AccessEventStore
	deviceID  string
	observers observers
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAccessRecorder(es store.AccessEventStore, deviceID string, logger zerolog.Logger, obs ...Observer) *AccessRecorder {
	return &AccessRecorder{
		events:    es,
		deviceID:  deviceID,
		observers: obs,
		logger:    logger.With().Str("component", "access_recorder").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record persists ev. A storage failure is logged and returned wrapped in
// ErrStorage; callers never undo the transition that triggered it.
func (r *AccessRecorder) Record(ctx context.Context, ev AccessEvent) error {
	rec := store.AccessEventRecord{
		DeviceID:     r.deviceID,
		UserID:       ev.UserID,
		AccessMethod: ev.Method,
		Success:      ev.Success,
		Action:       ev.Action,
		Notes:        ev.Notes,
		CreatedAt:    r.now(),
	}
	if err := r.events.RecordEvent(ctx, rec); err != nil {
		r.logger.Error().Err(err).
			Str("action", ev.Action).
			Bool("success", ev.Success).
			Msg("access event not persisted")
		return fmt.Errorf("%w: record access event: %w", ErrStorage, err)
	}

	r.observers.accessRecorded(ev.Method, ev.Success)
	r.logger.Info().
		Str("action", ev.Action).
		Str("method", string(ev.Method)).
		Bool("success", ev.Success).
		Str("user_id", ev.UserID).
		Msg("access event recorded")
	return nil
}
