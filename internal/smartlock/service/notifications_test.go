package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store/memory"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

func newNotificationService(t *testing.T) (*service.NotificationService, *memory.NotificationStore) {
	t.Helper()
	ns := memory.NewNotificationStore()
	svc := service.NewNotificationService(ns, 4, zerolog.Nop())
	return svc, ns
}

// waitForNotifications polls until the store holds n notifications.
func waitForNotifications(t *testing.T, ns *memory.NotificationStore, n int) []types.Notification {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := ns.ListNotifications(context.Background(), 0)
		if len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, _ := ns.ListNotifications(context.Background(), 0)
	t.Fatalf("expected %d notifications, got %+v", n, got)
	return nil
}

// ── MarkRead ─────────────────────────────────────────────────────────────────

func TestNotificationMarkRead_Validation(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()
	read := true

	if _, err := svc.MarkRead(ctx, types.NotificationUpdateRequest{Read: &read}); !errors.Is(err, service.ErrInvalidNotificationID) {
		t.Errorf("expected ErrInvalidNotificationID, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, types.NotificationUpdateRequest{NotificationID: "n-1"}); !errors.Is(err, service.ErrMissingRead) {
		t.Errorf("expected ErrMissingRead, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, types.NotificationUpdateRequest{NotificationID: "n-1", Read: &read}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationMarkRead_TogglesFlag(t *testing.T) {
	svc, _ := newNotificationService(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, types.NotificationInfo, "hello")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	read := true
	got, err := svc.MarkRead(ctx, types.NotificationUpdateRequest{NotificationID: " " + n.ID + " ", Read: &read})
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !got.Read {
		t.Error("expected read=true")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || !list[0].Read {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestNotify_StorageFailure(t *testing.T) {
	svc, ns := newNotificationService(t)
	ns.FailWith = errors.New("disk full")

	if _, err := svc.Notify(context.Background(), types.NotificationSystem, "x"); !errors.Is(err, service.ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
}

// ── Raised notifications ─────────────────────────────────────────────────────

func TestNotifications_FailedAccessRaisesSecurityNotice(t *testing.T) {
	svc, ns := newNotificationService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.AccessRecorded(types.AccessMethodPin, true)
	svc.AccessRecorded(types.AccessMethodPin, false)

	got := waitForNotifications(t, ns, 1)
	if len(got) != 1 {
		t.Fatalf("expected only the failure to raise a notification, got %+v", got)
	}
	if got[0].Type != types.NotificationSecurity || got[0].Message != "Failed access attempt via pin" {
		t.Errorf("unexpected notification %+v", got[0])
	}
	if got[0].UserID != "" {
		t.Errorf("expected no user on a failed attempt, got %q", got[0].UserID)
	}
}

func TestNotifications_PresenceRaisesSystemNotice(t *testing.T) {
	svc, ns := newNotificationService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.PresenceChanged(true)
	svc.PresenceChanged(false)

	got := waitForNotifications(t, ns, 2)
	if got[0].Message != "Lock controller disconnected" || got[1].Message != "Lock controller connected" {
		t.Errorf("unexpected messages %q, %q", got[0].Message, got[1].Message)
	}
	for _, n := range got {
		if n.Type != types.NotificationSystem {
			t.Errorf("expected system type, got %s", n.Type)
		}
	}
}

func TestNotifications_FailedHardwareAttemptEndToEnd(t *testing.T) {
	h := newHarness(t, true)
	svc, ns := newNotificationService(t)
	svc.Start(context.Background())
	defer svc.Stop()

	recorder := service.NewAccessRecorder(h.events, testDeviceID, zerolog.Nop(), svc)
	lock := service.NewLockSynchronizer(
		service.SynchronizerConfig{DeviceID: testDeviceID, MobilePrincipalID: mobilePrincipal},
		h.devices, h.users, recorder, h.router, zerolog.Nop(),
	)
	if err := lock.RecordFailure(context.Background(), service.LockRequest{Origin: service.OriginHardware, Source: types.AccessMethodBiometric}); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	got := waitForNotifications(t, ns, 1)
	if got[0].Message != "Failed access attempt via biometric" {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestNotifications_StopWithoutStart(t *testing.T) {
	svc, _ := newNotificationService(t)
	svc.Stop()
	svc.Stop()
}

func TestNotifications_FullQueueDrops(t *testing.T) {
	svc, ns := newNotificationService(t)

	// Not started: the queue of 4 fills and the rest are dropped without
	// blocking the caller.
	for i := 0; i < 10; i++ {
		svc.PresenceChanged(i%2 == 0)
	}
	svc.Start(context.Background())
	defer svc.Stop()

	waitForNotifications(t, ns, 4)
	time.Sleep(20 * time.Millisecond)
	if got, _ := ns.ListNotifications(context.Background(), 0); len(got) != 4 {
		t.Errorf("expected 4 queued notifications, got %d", len(got))
	}
}
