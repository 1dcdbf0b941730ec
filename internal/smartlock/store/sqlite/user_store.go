package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/smartlock/internal/db"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type UserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(db *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{db: db, writer: writer}
}

const userColumns = `
user_id, email, full_name, role, device_id, pin, biometric_id, biometric_enrolled, created_at_ms
`

func scanUser(row rowScanner) (types.User, error) {
	var (
		u         types.User
		role      string
		deviceID  sql.NullString
		enrolled  int
		createdMs int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &role, &deviceID, &u.Pin,
		&u.BiometricID, &enrolled, &createdMs); err != nil {
		return types.User{}, err
	}
	u.Role = types.Role(role)
	u.DeviceID = deviceID.String
	u.BiometricEnrolled = enrolled == 1
	u.CreatedAt = time.UnixMilli(createdMs).UTC()
	return u, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *UserStore) CreateUser(ctx context.Context, u types.User) (types.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = types.RoleLecturer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE;
`, u.Email).Scan(&taken); err != nil {
			return fmt.Errorf("CreateUser email check: %w", err)
		}
		if taken > 0 {
			return store.ErrConflict
		}

		slot, err := reserveSlot(ctx, tx, u.BiometricID)
		if err != nil {
			return err
		}
		u.BiometricID = slot

		_, err = tx.ExecContext(ctx, `
INSERT INTO users(`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			u.ID, u.Email, u.FullName, string(u.Role), nullableString(u.DeviceID), u.Pin,
			u.BiometricID, boolToInt(u.BiometricEnrolled), u.CreatedAt.UTC().UnixMilli(),
		)
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("CreateUser insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return u, nil
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+`;`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, store.ErrNotFound
	}
	if err != nil {
		return types.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (types.User, error) {
	return s.getOne(ctx, "user_id = ?", id)
}

func (s *UserStore) FindByBiometricID(ctx context.Context, biometricID int) (types.User, error) {
	return s.getOne(ctx, "biometric_id = ?", biometricID)
}

func (s *UserStore) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY biometric_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers query: %w", err)
	}
	defer rows.Close()

	out := []types.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers rows: %w", err)
	}
	return out, nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountUsers: %w", err)
	}
	return n, nil
}

func (s *UserStore) SetBiometricEnrolled(ctx context.Context, id string, enrolled bool) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users SET biometric_enrolled = ? WHERE user_id = ?;
`, boolToInt(enrolled), id)
		if err != nil {
			return fmt.Errorf("SetBiometricEnrolled: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?;`, id)
		if err != nil {
			return fmt.Errorf("DeleteUser: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// reserveSlot records a biometric slot as used. With want == 0 the next slot
// from the AUTOINCREMENT sequence is taken; an explicit slot also advances the
// sequence past it.
func reserveSlot(ctx context.Context, tx *sql.Tx, want int) (int, error) {
	if want != 0 {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO biometric_slots(slot) VALUES (?);
`, want); err != nil {
			return 0, fmt.Errorf("CreateUser reserve biometric id: %w", err)
		}
		return want, nil
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO biometric_slots DEFAULT VALUES;`)
	if err != nil {
		return 0, fmt.Errorf("CreateUser next biometric id: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser next biometric id: %w", err)
	}
	return int(id), nil
}
