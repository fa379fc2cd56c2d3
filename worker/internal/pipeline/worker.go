// Package pipeline implements the at-least-once worker loop over the
// transaction stream: claim, decode, persist, score, publish, acknowledge,
// with bounded retries and poison-entry quarantine.
package pipeline

import (
	"context"
	"time"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/worker/internal/metrics"
	"github.com/venuepulse/venuepulse/worker/internal/quarantine"
	"github.com/venuepulse/venuepulse/worker/internal/retry"
)

// EventProcessor runs the success path for one decoded event.
type EventProcessor interface {
	Process(ctx context.Context, ev TransactionEvent) error
}

// Config tunes a Worker.
type Config struct {
	// Consumer is this worker's identity within the shared consumer group.
	Consumer string

	// MaxRetries bounds redelivery: once the failure counter exceeds it the
	// entry is quarantined. An always-failing entry therefore sees exactly
	// MaxRetries+1 delivery attempts.
	MaxRetries int64

	// Block is how long a read waits for new entries before returning empty.
	Block time.Duration

	// Backoff is the pause after a failed read before the loop tries again.
	Backoff time.Duration
}

// Worker claims stream entries one at a time and drives each through the
// processing state machine. Multiple workers share one consumer group; the
// stream store guarantees an entry is claimed by at most one of them, so
// workers need no locking between themselves.
type Worker struct {
	store      *stream.Store
	retries    *retry.Counter
	quarantine quarantine.Writer
	proc       EventProcessor
	cfg        Config
	log        *logging.Logger
}

// New wires a Worker. Zero config durations fall back to sane defaults.
func New(store *stream.Store, retries *retry.Counter, q quarantine.Writer, proc EventProcessor, cfg Config, log *logging.Logger) *Worker {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Second
	}
	return &Worker{
		store:      store,
		retries:    retries,
		quarantine: q,
		proc:       proc,
		cfg:        cfg,
		log:        log.With(logging.Consumer(cfg.Consumer)),
	}
}

// Run processes entries until ctx is cancelled. One entry is in flight at a
// time, which bounds the blast radius of a poison entry. Read failures back
// off and retry; they never kill the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "worker stopped")
			return nil
		default:
		}

		entries, err := w.store.ReadGroup(ctx, w.cfg.Consumer, 1, w.cfg.Block)
		if err != nil {
			if ctx.Err() != nil {
				w.log.InfoContext(ctx, "worker stopped")
				return nil
			}
			metrics.ReadErrors.Inc()
			w.log.ErrorContext(ctx, "stream read failed", logging.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.cfg.Backoff):
			}
			continue
		}

		for _, entry := range entries {
			// The claimed entry is finished through to acknowledged or
			// quarantined even when shutdown races the read; anything else
			// would leave it persisted but pending, or pending forever.
			w.HandleEntry(context.WithoutCancel(ctx), entry)
		}
	}
}

// HandleEntry drives one claimed entry through decode and processing, then
// acknowledges, retries, or quarantines it. Exported so the reclaim sweep can
// funnel reclaimed entries through identical handling.
func (w *Worker) HandleEntry(ctx context.Context, entry stream.Entry) {
	start := time.Now()

	ev, err := decodeEntry(entry.Fields)
	if err == nil {
		err = w.proc.Process(ctx, ev)
	}

	if err != nil {
		w.fail(ctx, entry, err)
		return
	}

	if err := w.store.Ack(ctx, entry.ID); err != nil {
		// The transaction is persisted but the entry stays pending; the
		// reclaim sweep will redeliver it. At-least-once, not exactly-once.
		w.log.ErrorContext(ctx, "ack failed", logging.EntryID(entry.ID), logging.Error(err))
		return
	}
	if err := w.retries.Clear(ctx, entry.ID); err != nil {
		w.log.WarnContext(ctx, "clear retry counter failed", logging.EntryID(entry.ID), logging.Error(err))
	}

	metrics.EntriesProcessed.Inc()
	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	w.log.InfoContext(ctx, "entry processed",
		logging.EntryID(entry.ID),
		logging.VenueID(ev.VenueID),
	)
}

// fail records a delivery failure and decides between redelivery and
// quarantine. Worker-side errors are never surfaced to any caller; they are
// observable through the dead-letter log, metrics and logs only.
func (w *Worker) fail(ctx context.Context, entry stream.Entry, procErr error) {
	attempts, err := w.retries.Bump(ctx, entry.ID)
	if err != nil {
		// Without an agreed counter we cannot decide; leave the entry pending
		// so a later redelivery retries from a consistent state.
		w.log.ErrorContext(ctx, "bump retry counter failed", logging.EntryID(entry.ID), logging.Error(err))
		return
	}

	if attempts <= w.cfg.MaxRetries {
		metrics.EntriesRetried.Inc()
		w.log.WarnContext(ctx, "entry failed, leaving pending for redelivery",
			logging.EntryID(entry.ID),
			logging.Attempt(attempts),
			logging.Error(procErr),
		)
		return
	}

	rec := quarantine.Record{
		EntryID:         entry.ID,
		OriginalMessage: entry.Fields,
		Error:           procErr.Error(),
	}
	if err := w.quarantine.Write(ctx, rec); err != nil {
		// Do not ack: losing the entry and its dead-letter record at once is
		// worse than another redelivery cycle.
		w.log.ErrorContext(ctx, "quarantine write failed", logging.EntryID(entry.ID), logging.Error(err))
		return
	}

	if err := w.store.Ack(ctx, entry.ID); err != nil {
		w.log.ErrorContext(ctx, "ack after quarantine failed", logging.EntryID(entry.ID), logging.Error(err))
		return
	}
	if err := w.retries.Clear(ctx, entry.ID); err != nil {
		w.log.WarnContext(ctx, "clear retry counter failed", logging.EntryID(entry.ID), logging.Error(err))
	}

	metrics.EntriesQuarantined.Inc()
	w.log.ErrorContext(ctx, "entry quarantined",
		logging.EntryID(entry.ID),
		logging.Attempt(attempts),
		logging.Error(procErr),
	)
}
