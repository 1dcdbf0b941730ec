package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
)

// AccessLogPruner periodically deletes access events older than the
// retention window. A retention of 0 keeps everything and the pruner never
// starts.
type AccessLogPruner struct {
	store     store.AccessEventStore
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

type PrunerConfig struct {
	// RetentionDays is how many days of access history to keep.
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

func NewAccessLogPruner(s store.AccessEventStore, cfg PrunerConfig, logger zerolog.Logger) *AccessLogPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &AccessLogPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger.With().Str("component", "access_log_pruner").Logger(),
		done:      make(chan struct{}),
	}
}

// Start runs one prune immediately and then repeats on the interval until ctx
// is cancelled or Stop is called.
func (p *AccessLogPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info().Msg("access log pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)

	p.logger.Info().
		Int("retention_days", int(p.retention.Hours()/24)).
		Int("interval_hours", int(p.interval.Hours())).
		Msg("access log pruner started")
}

// Stop signals the loop to exit and waits for it. Safe to call more than once.
func (p *AccessLogPruner) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	<-p.done
}

func (p *AccessLogPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.PruneOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes everything older than now minus the retention window and
// returns the number of rows removed.
func (p *AccessLogPruner) PruneOnce(ctx context.Context) int64 {
	cutoff := timeNow().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Msg("access log prune failed")
		return 0
	}
	if deleted > 0 {
		p.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("access log pruned")
	}
	return deleted
}
