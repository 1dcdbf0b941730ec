package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// Dispatcher turns inbound socket frames into core operations. One call to
// Handle runs per frame, in arrival order for a given session.
type Dispatcher struct {
	registry   *hub.Registry
	router     *hub.Router
	correlator *hub.Correlator
	lock       *LockSynchronizer
	logger     zerolog.Logger
}

func NewDispatcher(reg *hub.Registry, router *hub.Router, corr *hub.Correlator, lock *LockSynchronizer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:   reg,
		router:     router,
		correlator: corr,
		lock:       lock,
		logger:     logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Handle processes one frame received on sessionID. A malformed frame returns
// ErrMalformedMessage; the connection is expected to stay open.
func (d *Dispatcher) Handle(ctx context.Context, sessionID string, frame []byte) error {
	var msg types.InboundMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if msg.Action == "" {
		return fmt.Errorf("%w: missing action", ErrMalformedMessage)
	}

	log := d.logger.With().Str("session_id", sessionID).Str("action", msg.Action).Logger()

	switch msg.Action {
	case types.ActionCheckHardwareStatus:
		reply := types.HardwareStatusFrame(d.registry.IsHardwarePresent())
		if err := d.router.SendTo(sessionID, reply); err != nil {
			log.Debug().Err(err).Msg("hardware status reply dropped")
		}
		return nil

	case types.ActionEnrollAck:
		if msg.FingerprintID == nil {
			return fmt.Errorf("%w: enrollAck without fingerprintId", ErrMalformedMessage)
		}
		err := d.correlator.Resolve(*msg.FingerprintID, msg.Success)
		if errors.Is(err, hub.ErrUnknownSlot) {
			log.Warn().Int("slot", *msg.FingerprintID).Msg("acknowledgement for unknown slot ignored")
			return nil
		}
		return err

	case types.ActionUnlocked:
		return d.lock.RequestUnlock(ctx, LockRequest{
			Origin:      OriginHardware,
			Source:      msg.Source,
			BiometricID: msg.ID,
		})

	case types.ActionLocked:
		return d.lock.RequestLock(ctx, LockRequest{
			Origin: OriginHardware,
			Source: msg.Source,
		})

	case types.ActionFailed:
		return d.lock.RecordFailure(ctx, LockRequest{
			Origin:      OriginHardware,
			Source:      msg.Source,
			BiometricID: msg.ID,
		})

	default:
		log.Debug().RawJSON("frame", frame).Msg("unhandled socket action")
		return nil
	}
}
