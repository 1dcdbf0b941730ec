package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/db"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	sqlitestore "github.com/BrandonDHaskell/smartlock/internal/smartlock/store/sqlite"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

func TestDeviceStore_GetDevice_NotFound(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))

	_, err := ds.GetDevice(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeviceStore_GetDevice_Seeded(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if _, err := db.SeedDevice(ctx, conn, "lock-1"); err != nil {
		t.Fatalf("SeedDevice: %v", err)
	}

	d, err := ds.GetDevice(ctx, "lock-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.LockState != types.LockStateLocked || d.BatteryLevel != 100 || !d.WifiStatus {
		t.Errorf("unexpected seed record %+v", d)
	}
}

// ── SetLockState ──────────────────────────────────────────────────────────

func TestDeviceStore_SetLockState_CreatesAndUpdates(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	at := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	if err := ds.SetLockState(ctx, "lock-1", types.LockStateUnlocked, at); err != nil {
		t.Fatalf("SetLockState: %v", err)
	}

	d, err := ds.GetDevice(ctx, "lock-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.LockState != types.LockStateUnlocked {
		t.Errorf("expected unlocked, got %s", d.LockState)
	}
	if !d.UpdatedAt.Equal(at) {
		t.Errorf("expected updated_at %v, got %v", at, d.UpdatedAt)
	}

	if err := ds.SetLockState(ctx, "lock-1", types.LockStateLocked, at.Add(time.Second)); err != nil {
		t.Fatalf("SetLockState: %v", err)
	}
	d, _ = ds.GetDevice(ctx, "lock-1")
	if d.LockState != types.LockStateLocked {
		t.Errorf("expected locked, got %s", d.LockState)
	}
}

// ── UpdateTelemetry ───────────────────────────────────────────────────────

func TestDeviceStore_UpdateTelemetry_PartialFields(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	battery := 42
	d, err := ds.UpdateTelemetry(ctx, "lock-1", &battery, nil, time.Time{})
	if err != nil {
		t.Fatalf("UpdateTelemetry: %v", err)
	}
	if d.BatteryLevel != 42 || !d.WifiStatus {
		t.Errorf("expected battery=42 wifi=true, got %+v", d)
	}

	wifi := false
	d, err = ds.UpdateTelemetry(ctx, "lock-1", nil, &wifi, time.Time{})
	if err != nil {
		t.Fatalf("UpdateTelemetry: %v", err)
	}
	if d.BatteryLevel != 42 || d.WifiStatus {
		t.Errorf("expected battery=42 wifi=false, got %+v", d)
	}
}

func TestDeviceStore_UpdateTelemetry_RejectsOutOfRange(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDeviceStore(conn, newTestWriter(t, conn))

	battery := 150
	if _, err := ds.UpdateTelemetry(context.Background(), "lock-1", &battery, nil, time.Time{}); err == nil {
		t.Fatal("expected CHECK constraint failure for battery=150")
	}
}
