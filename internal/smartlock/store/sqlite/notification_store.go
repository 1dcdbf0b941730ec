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

const notificationColumns = `notification_id, user_id, type, message, read, created_at_ms, updated_at_ms`

type NotificationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewNotificationStore(db *sql.DB, writer *dbpkg.Worker) *NotificationStore {
	return &NotificationStore{db: db, writer: writer}
}

func (s *NotificationStore) CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications(`+notificationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			n.ID, nullableString(n.UserID), string(n.Type), n.Message, boolToInt(n.Read),
			n.CreatedAt.UTC().UnixMilli(), n.UpdatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("CreateNotification insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

func (s *NotificationStore) ListNotifications(ctx context.Context, limit int) ([]types.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+notificationColumns+`
FROM notifications
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListNotifications query: %w", err)
	}
	defer rows.Close()

	out := []types.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListNotifications scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotifications rows: %w", err)
	}
	return out, nil
}

func (s *NotificationStore) SetNotificationRead(ctx context.Context, id string, read bool, at time.Time) (types.Notification, error) {
	var n types.Notification
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE notifications SET read = ?, updated_at_ms = ? WHERE notification_id = ?;
`, boolToInt(read), at.UTC().UnixMilli(), id)
		if err != nil {
			return fmt.Errorf("SetNotificationRead update: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return store.ErrNotFound
		}
		n, err = scanNotification(tx.QueryRowContext(ctx,
			`SELECT `+notificationColumns+` FROM notifications WHERE notification_id = ?;`, id))
		if err != nil {
			return fmt.Errorf("SetNotificationRead reload: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

func scanNotification(row rowScanner) (types.Notification, error) {
	var (
		n                  types.Notification
		userID             sql.NullString
		typ                string
		read               int
		createdMs, updated int64
	)
	if err := row.Scan(&n.ID, &userID, &typ, &n.Message, &read, &createdMs, &updated); err != nil {
		return types.Notification{}, err
	}
	n.UserID = userID.String
	n.Type = types.NotificationType(typ)
	n.Read = read == 1
	n.CreatedAt = time.UnixMilli(createdMs).UTC()
	n.UpdatedAt = time.UnixMilli(updated).UTC()
	return n, nil
}
