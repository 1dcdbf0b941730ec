package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/smartlock/internal/db"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  event_id, device_id, user_id, access_method, success, action, notes, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, nullableString(rec.DeviceID), nullableString(rec.UserID),
			nullableString(string(rec.AccessMethod)), boolToInt(rec.Success),
			nullableString(rec.Action), nullableString(rec.Notes),
			rec.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

func (s *AccessEventStore) ListEvents(ctx context.Context, limit int) ([]store.AccessEventRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, device_id, user_id, access_method, success, action, notes, created_at_ms
FROM access_events
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListEvents query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessEventRecord
	for rows.Next() {
		var (
			rec                                    store.AccessEventRecord
			deviceID, userID, method, action, note sql.NullString
			success                                int
			createdMs                              int64
		)
		if err := rows.Scan(&rec.ID, &deviceID, &userID, &method, &success, &action, &note, &createdMs); err != nil {
			return nil, fmt.Errorf("ListEvents scan: %w", err)
		}
		rec.DeviceID = deviceID.String
		rec.UserID = userID.String
		rec.AccessMethod = types.AccessMethod(method.String)
		rec.Success = success == 1
		rec.Action = action.String
		rec.Notes = note.String
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEvents rows: %w", err)
	}
	return out, nil
}

func (s *AccessEventStore) CountEvents(ctx context.Context) (int, int, error) {
	var total, ok int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(success), 0) FROM access_events;
`).Scan(&total, &ok)
	if err != nil {
		return 0, 0, fmt.Errorf("CountEvents: %w", err)
	}
	return total, ok, nil
}

// PruneOlderThan deletes events created before cutoff and returns how many
// rows went. Uses idx_access_events_time.
func (s *AccessEventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_events
WHERE created_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
