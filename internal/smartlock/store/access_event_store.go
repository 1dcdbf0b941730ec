package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// AccessEventRecord is one entry of the append-only access audit log.
type AccessEventRecord struct {
	ID           string // generated when empty
	DeviceID     string
	UserID       string // empty when the actor is unknown
	AccessMethod types.AccessMethod
	Success      bool
	Action       string
	Notes        string
	CreatedAt    time.Time
}

// AccessEventStore persists access events. Records are never updated; the only
// deletion path is retention pruning.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
	// ListEvents returns events newest first. limit <= 0 returns all.
	ListEvents(ctx context.Context, limit int) ([]AccessEventRecord, error)
	CountEvents(ctx context.Context) (total, successful int, err error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
