package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

const defaultNotificationQueue = 64

// NotificationService lists dashboard notifications and raises new ones from
// failed access attempts and controller presence changes. Raised
// notifications are queued and written by a background loop, since
// observers run on the socket reader.
type NotificationService struct {
	store  store.NotificationStore
	logger zerolog.Logger

	queue    chan types.Notification
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewNotificationService(s store.NotificationStore, queue int, logger zerolog.Logger) *NotificationService {
	if queue <= 0 {
		queue = defaultNotificationQueue
	}
	return &NotificationService{
		store:  s,
		logger: logger.With().Str("component", "notifications").Logger(),
		queue:  make(chan types.Notification, queue),
		done:   make(chan struct{}),
	}
}

func (s *NotificationService) List(ctx context.Context) ([]types.Notification, error) {
	return s.store.ListNotifications(ctx, 0)
}

func (s *NotificationService) MarkRead(ctx context.Context, req types.NotificationUpdateRequest) (types.Notification, error) {
	id := strings.TrimSpace(req.NotificationID)
	if id == "" {
		return types.Notification{}, ErrInvalidNotificationID
	}
	if req.Read == nil {
		return types.Notification{}, ErrMissingRead
	}
	return s.store.SetNotificationRead(ctx, id, *req.Read, timeNow())
}

// Notify writes a notification synchronously.
func (s *NotificationService) Notify(ctx context.Context, typ types.NotificationType, msg string) (types.Notification, error) {
	n, err := s.store.CreateNotification(ctx, types.Notification{Type: typ, Message: msg, CreatedAt: timeNow()})
	if err != nil {
		return types.Notification{}, fmt.Errorf("%w: create notification: %w", ErrStorage, err)
	}
	return n, nil
}

// ── Observer ─────────────────────────────────────────────────────────────────

func (s *NotificationService) LockStateChanged(string, types.LockState, Origin) {}

func (s *NotificationService) AccessRecorded(method types.AccessMethod, success bool) {
	if success {
		return
	}
	msg := "Failed access attempt"
	if method != "" {
		msg = fmt.Sprintf("Failed access attempt via %s", method)
	}
	s.enqueue(types.NotificationSecurity, msg)
}

// PresenceChanged is registered with the socket registry.
func (s *NotificationService) PresenceChanged(present bool) {
	if present {
		s.enqueue(types.NotificationSystem, "Lock controller connected")
		return
	}
	s.enqueue(types.NotificationSystem, "Lock controller disconnected")
}

func (s *NotificationService) enqueue(typ types.NotificationType, msg string) {
	select {
	case s.queue <- types.Notification{Type: typ, Message: msg, CreatedAt: timeNow()}:
	default:
		s.logger.Warn().Str("type", string(typ)).Str("message", msg).Msg("notification queue full, dropped")
	}
}

// ── Writer loop ──────────────────────────────────────────────────────────────

// Start writes queued notifications until ctx is cancelled or Stop is called.
func (s *NotificationService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop ends the writer loop and waits for it. Safe to call more than once.
func (s *NotificationService) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		} else {
			close(s.done)
		}
	})
	<-s.done
}

func (s *NotificationService) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.queue:
			if _, err := s.store.CreateNotification(ctx, n); err != nil {
				s.logger.Error().Err(err).Str("type", string(n.Type)).Msg("notification not persisted")
			}
		}
	}
}
