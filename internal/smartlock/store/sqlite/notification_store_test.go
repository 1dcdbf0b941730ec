package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	sqlitestore "github.com/BrandonDHaskell/smartlock/internal/smartlock/store/sqlite"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

func newNotificationStore(t *testing.T) *sqlitestore.NotificationStore {
	t.Helper()
	conn := openTestDB(t)
	return sqlitestore.NewNotificationStore(conn, newTestWriter(t, conn))
}

// ═══════════════════════════════════════════════════════════════════════════
// Create / List
// ═══════════════════════════════════════════════════════════════════════════

func TestNotificationStore_ListNewestFirst(t *testing.T) {
	ns := newNotificationStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		_, err := ns.CreateNotification(ctx, types.Notification{
			Type:      types.NotificationInfo,
			Message:   msg,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateNotification %s: %v", msg, err)
		}
	}

	all, err := ns.ListNotifications(ctx, 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(all))
	}
	if all[0].Message != "third" || all[2].Message != "first" {
		t.Errorf("expected newest first, got %q .. %q", all[0].Message, all[2].Message)
	}
	if all[0].ID == "" || all[0].Read {
		t.Errorf("expected generated id and unread, got %+v", all[0])
	}
	if !all[0].UpdatedAt.Equal(all[0].CreatedAt) {
		t.Errorf("expected updatedAt to default to createdAt, got %v vs %v", all[0].UpdatedAt, all[0].CreatedAt)
	}

	limited, err := ns.ListNotifications(ctx, 2)
	if err != nil {
		t.Fatalf("ListNotifications limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 with limit, got %d", len(limited))
	}
}

func TestNotificationStore_ListEmpty(t *testing.T) {
	ns := newNotificationStore(t)

	all, err := ns.ListNotifications(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", all)
	}
}

func TestNotificationStore_RejectsUnknownType(t *testing.T) {
	ns := newNotificationStore(t)

	_, err := ns.CreateNotification(context.Background(), types.Notification{Type: "urgent", Message: "x"})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for unknown type")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// SetNotificationRead
// ═══════════════════════════════════════════════════════════════════════════

func TestNotificationStore_SetRead(t *testing.T) {
	ns := newNotificationStore(t)
	ctx := context.Background()

	n, err := ns.CreateNotification(ctx, types.Notification{
		UserID:  "user-1",
		Type:    types.NotificationSecurity,
		Message: "failed attempt",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	at := n.CreatedAt.Add(time.Hour)
	got, err := ns.SetNotificationRead(ctx, n.ID, true, at)
	if err != nil {
		t.Fatalf("SetNotificationRead: %v", err)
	}
	if !got.Read {
		t.Error("expected read=true")
	}
	if got.UserID != "user-1" || got.Type != types.NotificationSecurity {
		t.Errorf("unexpected fields after update: %+v", got)
	}
	if got.UpdatedAt.UnixMilli() != at.UnixMilli() {
		t.Errorf("expected updatedAt %v, got %v", at, got.UpdatedAt)
	}

	got, err = ns.SetNotificationRead(ctx, n.ID, false, at)
	if err != nil {
		t.Fatalf("SetNotificationRead false: %v", err)
	}
	if got.Read {
		t.Error("expected read=false after reset")
	}
}

func TestNotificationStore_SetReadUnknown(t *testing.T) {
	ns := newNotificationStore(t)

	_, err := ns.SetNotificationRead(context.Background(), "missing", true, time.Now())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
