package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	sqlitestore "github.com/BrandonDHaskell/smartlock/internal/smartlock/store/sqlite"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: column values
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_ColumnsCorrect(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		ID:           "ev-1",
		DeviceID:     "lock-1",
		UserID:       "user-7",
		AccessMethod: types.AccessMethodBiometric,
		Success:      true,
		Action:       "unlock",
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	var (
		deviceID, userID, method, action string
		success                          int
		notes                            sql.NullString
		createdMs                        int64
	)
	err = conn.QueryRowContext(context.Background(), `
SELECT device_id, user_id, access_method, success, action, notes, created_at_ms
FROM access_events WHERE event_id = ?`, "ev-1",
	).Scan(&deviceID, &userID, &method, &success, &action, &notes, &createdMs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if deviceID != "lock-1" || userID != "user-7" {
		t.Errorf("unexpected ids device=%q user=%q", deviceID, userID)
	}
	if method != "biometric" {
		t.Errorf("expected access_method=biometric, got %q", method)
	}
	if success != 1 {
		t.Errorf("expected success=1, got %d", success)
	}
	if action != "unlock" {
		t.Errorf("expected action=unlock, got %q", action)
	}
	if notes.Valid {
		t.Errorf("expected notes NULL, got %q", notes.String)
	}
	if createdMs != now.UnixMilli() {
		t.Errorf("expected created_at_ms=%d, got %d", now.UnixMilli(), createdMs)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: unknown actor
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_NoUserRoundTrips(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := as.RecordEvent(ctx, store.AccessEventRecord{
		DeviceID: "lock-1",
		Success:  false,
		Action:   "unlock",
		Notes:    "fingerprint rejected",
	}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	got, err := as.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	ev := got[0]
	if ev.ID == "" {
		t.Error("expected generated event id")
	}
	if ev.UserID != "" || ev.AccessMethod != "" {
		t.Errorf("expected empty user/method, got %q/%q", ev.UserID, ev.AccessMethod)
	}
	if ev.Notes != "fingerprint rejected" {
		t.Errorf("unexpected notes %q", ev.Notes)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be defaulted")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ListEvents / CountEvents
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_ListEvents_NewestFirstWithLimit(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := as.RecordEvent(ctx, store.AccessEventRecord{
			DeviceID:  "lock-1",
			Success:   i%2 == 0,
			Action:    "unlock",
			Notes:     string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("RecordEvent %d: %v", i, err)
		}
	}

	got, err := as.ListEvents(ctx, 3)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []string{"e", "d", "c"} {
		if got[i].Notes != want {
			t.Errorf("position %d: expected %q, got %q", i, want, got[i].Notes)
		}
	}

	total, ok, err := as.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if total != 5 || ok != 3 {
		t.Errorf("expected total=5 ok=3, got total=%d ok=%d", total, ok)
	}
}

func TestAccessEventStore_CountEvents_Empty(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	total, ok, err := as.CountEvents(context.Background())
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if total != 0 || ok != 0 {
		t.Errorf("expected zeros, got %d/%d", total, ok)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// PruneOlderThan
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{48 * time.Hour, 36 * time.Hour, time.Hour} {
		if err := as.RecordEvent(ctx, store.AccessEventRecord{
			DeviceID:  "lock-1",
			Success:   true,
			Action:    "lock",
			CreatedAt: now.Add(-age),
		}); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	deleted, err := as.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	total, _, err := as.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 remaining, got %d", total)
	}
}
