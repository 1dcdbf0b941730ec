package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

const recentLogLimit = 5

var timeNow = func() time.Time { return time.Now().UTC() }

// DashboardService serves the read side of the dashboard: the access log
// with acting users attached and the summary tile.
type DashboardService struct {
	devices  store.DeviceStore
	users    store.UserStore
	events   store.AccessEventStore
	deviceID string
	logger   zerolog.Logger
}

func NewDashboardService(devices store.DeviceStore, users store.UserStore, events store.AccessEventStore, deviceID string, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		devices:  devices,
		users:    users,
		events:   events,
		deviceID: deviceID,
		logger:   logger.With().Str("component", "dashboard").Logger(),
	}
}

// AccessLogs returns access events newest first. limit <= 0 returns all.
func (s *DashboardService) AccessLogs(ctx context.Context, limit int) ([]types.AccessLog, error) {
	recs, err := s.events.ListEvents(ctx, limit)
	if err != nil {
		return nil, err
	}

	cache := make(map[string]*types.AccessLogUser)
	out := make([]types.AccessLog, 0, len(recs))
	for _, rec := range recs {
		out = append(out, types.AccessLog{
			ID:           rec.ID,
			User:         s.resolveUser(ctx, rec.UserID, cache),
			AccessMethod: rec.AccessMethod,
			Success:      rec.Success,
			Action:       rec.Action,
			Notes:        rec.Notes,
			CreatedAt:    rec.CreatedAt,
		})
	}
	return out, nil
}

// resolveUser attaches name and email. Users deleted since the event, and the
// mobile gateway principal, keep only their id.
func (s *DashboardService) resolveUser(ctx context.Context, id string, cache map[string]*types.AccessLogUser) *types.AccessLogUser {
	if id == "" {
		return nil
	}
	if u, ok := cache[id]; ok {
		return u
	}

	var ref *types.AccessLogUser
	u, err := s.users.GetUser(ctx, id)
	switch {
	case err == nil:
		ref = &types.AccessLogUser{ID: u.ID, FullName: u.FullName, Email: u.Email}
	case errors.Is(err, store.ErrNotFound):
		ref = &types.AccessLogUser{ID: id}
	default:
		s.logger.Warn().Err(err).Str("user_id", id).Msg("access log user lookup failed")
	}
	cache[id] = ref
	return ref
}

func (s *DashboardService) Summary(ctx context.Context) (types.DashboardSummary, error) {
	d, err := s.devices.GetDevice(ctx, s.deviceID)
	if err != nil {
		return types.DashboardSummary{}, err
	}
	recent, err := s.AccessLogs(ctx, recentLogLimit)
	if err != nil {
		return types.DashboardSummary{}, err
	}
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return types.DashboardSummary{}, err
	}
	total, ok, err := s.events.CountEvents(ctx)
	if err != nil {
		return types.DashboardSummary{}, err
	}

	return types.DashboardSummary{
		Device:        d,
		RecentLogs:    recent,
		UserCount:     users,
		TotalAccesses: total,
		SuccessRate:   successRate(ok, total),
	}, nil
}

func successRate(ok, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(ok) / float64(total) * 100))
}
