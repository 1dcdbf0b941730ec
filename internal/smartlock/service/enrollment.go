package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// Broadcaster delivers a frame to every live session of a client class.
type Broadcaster interface {
	Broadcast(class hub.ClientClass, frame []byte) int
}

// EnrollmentService asks the controller to scan a fingerprint for a user and
// waits for its acknowledgement.
type EnrollmentService struct {
	users      store.UserStore
	router     Broadcaster
	correlator *hub.Correlator
	timeout    time.Duration
	logger     zerolog.Logger
}

func NewEnrollmentService(users store.UserStore, router Broadcaster, corr *hub.Correlator, timeout time.Duration, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		users:      users,
		router:     router,
		correlator: corr,
		timeout:    timeout,
		logger:     logger.With().Str("component", "enrollment").Logger(),
	}
}

// Enroll blocks until the controller acknowledges the scan, the timeout
// elapses or ctx ends. The returned user carries the updated enrollment flag.
func (s *EnrollmentService) Enroll(ctx context.Context, userID string) (types.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.User{}, ErrInvalidUserID
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	slot := u.BiometricID

	// Register before broadcasting so a fast acknowledgement is not lost.
	w, err := s.correlator.Expect(slot)
	if err != nil {
		return types.User{}, fmt.Errorf("slot %d: %w", slot, err)
	}

	if n := s.router.Broadcast(hub.ClassHardware, types.ScanFrame(slot)); n == 0 {
		w.Cancel()
		return types.User{}, fmt.Errorf("%w: %s", hub.ErrNoRecipient, hub.ClassHardware)
	}
	s.logger.Info().Str("user_id", u.ID).Int("slot", slot).Msg("enroll mode active")

	ok, err := w.Wait(ctx, s.timeout)
	if err != nil {
		s.logger.Warn().Err(err).Int("slot", slot).Msg("enrollment abandoned")
		return types.User{}, err
	}
	if !ok {
		s.logger.Info().Int("slot", slot).Msg("enrollment rejected by controller")
		return types.User{}, ErrEnrollmentFailed
	}

	if err := s.users.SetBiometricEnrolled(ctx, u.ID, true); err != nil {
		return types.User{}, fmt.Errorf("%w: mark enrolled: %w", ErrStorage, err)
	}
	u.BiometricEnrolled = true
	s.logger.Info().Str("user_id", u.ID).Int("slot", slot).Msg("enrollment successful")
	return u, nil
}
