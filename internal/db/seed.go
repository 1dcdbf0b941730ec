package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SeedDevice makes sure the configured lock controller has a devices row,
// starting locked with a full battery. It reports whether a row was created.
func SeedDevice(ctx context.Context, db *sql.DB, deviceID string) (bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return false, fmt.Errorf("seed device: device id is required")
	}

	now := time.Now().UTC().UnixMilli()
	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO devices(
  device_id, lock_state, battery_level, wifi_status, created_at_ms, updated_at_ms
) VALUES (?, 'locked', 100, 1, ?, ?);`, deviceID, now, now)
	if err != nil {
		return false, fmt.Errorf("seed device %s: %w", deviceID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
