// Package reclaim periodically re-assigns stream entries that have been
// pending longer than a threshold, typically because the consumer that
// claimed them crashed before acknowledging. Without this sweep such entries
// stay pending forever and the group leaks them.
package reclaim

import (
	"context"
	"time"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/worker/internal/metrics"
)

// Handler receives a reclaimed entry for reprocessing. Wired to the worker's
// entry handling so reclaimed entries follow the exact same retry and
// quarantine path as fresh ones.
type Handler func(ctx context.Context, entry stream.Entry)

// Config tunes a Sweeper.
type Config struct {
	// Consumer is the identity reclaimed entries are transferred to.
	Consumer string

	// Interval is how often the sweep runs.
	Interval time.Duration

	// MinIdle is how long an entry must sit unacknowledged before it is
	// considered orphaned. Must comfortably exceed normal processing time or
	// the sweep will steal entries still being worked on, violating the
	// single-claimant invariant.
	MinIdle time.Duration

	// Batch bounds how many entries one sweep reclaims.
	Batch int64
}

// Sweeper owns the periodic reclaim loop.
type Sweeper struct {
	store  *stream.Store
	handle Handler
	cfg    Config
	log    *logging.Logger
}

// New wires a Sweeper. Zero Interval and Batch fall back to defaults; MinIdle
// is taken as given, since zero is meaningful (reclaim pending entries
// regardless of idle time) and the service config carries its default.
func New(store *stream.Store, handle Handler, cfg Config, log *logging.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MinIdle < 0 {
		cfg.MinIdle = 0
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 16
	}
	return &Sweeper{
		store:  store,
		handle: handle,
		cfg:    cfg,
		log:    log.With(logging.Consumer(cfg.Consumer)),
	}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "reclaim sweep started",
		"interval", s.cfg.Interval.String(),
		"min_idle", s.cfg.MinIdle.String(),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "reclaim sweep stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one reclaim pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	entries, err := s.store.AutoClaim(ctx, s.cfg.Consumer, s.cfg.MinIdle, s.cfg.Batch)
	if err != nil {
		if ctx.Err() == nil {
			s.log.ErrorContext(ctx, "reclaim failed", logging.Error(err))
		}
		return
	}

	for _, entry := range entries {
		metrics.EntriesReclaimed.Inc()
		s.log.WarnContext(ctx, "reclaimed orphaned entry", logging.EntryID(entry.ID))
		s.handle(ctx, entry)
	}
}
