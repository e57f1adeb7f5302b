// Package sync drains the durable queue of pending score mutations to
// the remote API. A single guard prevents concurrent drain cycles;
// entries replay strictly in insertion order, fail up to a retry
// ceiling, and are preserved as dead letters when abandoned.
package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/pkg/logger"
	"github.com/FawziYas/osce-project/pkg/metrics"
)

const (
	defaultMaxAttempts    = 5
	defaultAttemptTimeout = 15 * time.Second
	defaultInterval       = 30 * time.Second
)

// Reason explains why a drain cycle returned without doing any work.
type Reason string

// Skip reasons.
const (
	ReasonAlreadySyncing Reason = "already_syncing"
	ReasonOffline        Reason = "offline"
)

// Queue is the slice of the durable store the engine drains.
type Queue interface {
	SnapshotQueue(ctx context.Context) ([]model.SyncQueueEntry, error)
	RemoveQueueEntries(ctx context.Context, ids []int64) error
	BumpAttempts(ctx context.Context, ids []int64) error
	AddDeadLetter(ctx context.Context, entry model.SyncQueueEntry, lastError string) error
}

// Replayer performs one network replay of a queue entry.
type Replayer interface {
	Replay(ctx context.Context, entry model.SyncQueueEntry) error
}

// EntryError pairs a queue entry with the error its replay produced.
type EntryError struct {
	ID  int64
	Err string
}

// Result summarizes one drain cycle for the UI layer.
type Result struct {
	Skipped   bool
	Reason    Reason
	Synced    int
	Failed    int
	Abandoned int
	Errors    []EntryError
}

// Engine owns the drain state machine: Idle, Draining, back to Idle.
// The syncing guard is the only thing that serializes cycles; a cycle
// runs to completion once started, with no mid-cycle cancellation.
type Engine struct {
	queue    Queue
	replayer Replayer
	log      logger.Logger

	maxAttempts    int
	attemptTimeout time.Duration
	interval       time.Duration

	online  atomic.Bool
	syncing atomic.Bool
	wake    chan struct{}

	mu           stdsync.Mutex
	lastSync     time.Time
	onTransition []func(online bool)
	onResult     []func(Result)
}

// New creates an engine draining queue through replayer. The engine
// starts offline; callers flip connectivity with SetOnline.
func New(queue Queue, replayer Replayer, opts ...Option) *Engine {
	e := &Engine{
		queue:          queue,
		replayer:       replayer,
		log:            logger.Named("sync"),
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
		interval:       defaultInterval,
		wake:           make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetOnline records a connectivity change. The offline to online
// transition wakes the run loop for an immediate drain; registered
// transition callbacks fire on every actual change.
func (e *Engine) SetOnline(online bool) {
	if e.online.Swap(online) == online {
		return
	}
	metrics.UpdateOnline(online)

	e.mu.Lock()
	callbacks := make([]func(bool), len(e.onTransition))
	copy(callbacks, e.onTransition)
	e.mu.Unlock()
	for _, cb := range callbacks {
		cb(online)
	}

	if online {
		select {
		case e.wake <- struct{}{}:
		default:
		}
	}
}

// Online reports current connectivity.
func (e *Engine) Online() bool { return e.online.Load() }

// LastSync returns the completion time of the most recent drain cycle
// that actually ran, zero if none has.
func (e *Engine) LastSync() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// OnTransition registers a callback for connectivity changes. Register
// before Run.
func (e *Engine) OnTransition(cb func(online bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTransition = append(e.onTransition, cb)
}

// OnResult registers a callback receiving each non-skipped drain
// summary. Register before Run.
func (e *Engine) OnResult(cb func(Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResult = append(e.onResult, cb)
}

// Run drives periodic drains until ctx is done. Timer ticks and
// online transitions funnel through the same guarded Drain, so
// overlapping triggers collapse into a no-op.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Drain(ctx)
		case <-e.wake:
			e.Drain(ctx)
		}
	}
}

// Drain runs one full drain cycle. It never returns an error: failures
// are aggregated into the Result, and a cycle that cannot start at all
// reports its skip reason instead.
func (e *Engine) Drain(ctx context.Context) Result {
	if !e.syncing.CompareAndSwap(false, true) {
		metrics.RecordDrainCycle(string(ReasonAlreadySyncing))
		return Result{Skipped: true, Reason: ReasonAlreadySyncing}
	}
	defer e.syncing.Store(false)

	if !e.online.Load() {
		metrics.RecordDrainCycle(string(ReasonOffline))
		return Result{Skipped: true, Reason: ReasonOffline}
	}

	start := time.Now()
	res := e.drain(ctx)

	e.mu.Lock()
	e.lastSync = time.Now()
	callbacks := make([]func(Result), len(e.onResult))
	copy(callbacks, e.onResult)
	e.mu.Unlock()
	for _, cb := range callbacks {
		cb(res)
	}

	metrics.RecordDrainDuration(float64(time.Since(start).Milliseconds()))
	outcome := "clean"
	if res.Failed > 0 {
		outcome = "partial"
	}
	metrics.RecordDrainCycle(outcome)
	return res
}

func (e *Engine) drain(ctx context.Context) Result {
	var res Result

	entries, err := e.queue.SnapshotQueue(ctx)
	if err != nil {
		e.log.Error(ctx, "snapshot queue", logger.Error(err))
		res.Failed++
		res.Errors = append(res.Errors, EntryError{Err: err.Error()})
		return res
	}
	if len(entries) == 0 {
		return res
	}

	e.log.Debug(ctx, "drain cycle started", logger.Int("pending", len(entries)))

	var toRemove, toBump []int64
	for _, entry := range entries {
		attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
		replayErr := e.replayer.Replay(attemptCtx, entry)
		cancel()

		if replayErr == nil {
			res.Synced++
			toRemove = append(toRemove, entry.ID)
			continue
		}

		res.Failed++
		res.Errors = append(res.Errors, EntryError{ID: entry.ID, Err: replayErr.Error()})
		metrics.RecordEntryFailed()

		if entry.Attempts+1 >= e.maxAttempts {
			// Retry ceiling reached: the entry leaves the queue for
			// good but is preserved for manual recovery.
			if dlErr := e.queue.AddDeadLetter(ctx, entry, replayErr.Error()); dlErr != nil {
				e.log.Error(ctx, "preserve dead letter", logger.Int64("entry", entry.ID), logger.Error(dlErr))
			}
			toRemove = append(toRemove, entry.ID)
			res.Abandoned++
			metrics.RecordEntryAbandoned()
			e.log.Warn(ctx, "entry abandoned after retry ceiling",
				logger.Int64("entry", entry.ID),
				logger.String("kind", string(entry.Kind)),
				logger.Error(replayErr))
		} else {
			toBump = append(toBump, entry.ID)
		}
	}

	if err := e.queue.RemoveQueueEntries(ctx, toRemove); err != nil {
		e.log.Error(ctx, "remove replayed entries", logger.Error(err))
	}
	if err := e.queue.BumpAttempts(ctx, toBump); err != nil {
		e.log.Error(ctx, "bump attempt counters", logger.Error(err))
	}
	metrics.RecordEntriesSynced(res.Synced)

	e.log.Info(ctx, "drain cycle finished",
		logger.Int("synced", res.Synced),
		logger.Int("failed", res.Failed),
		logger.Int("abandoned", res.Abandoned))
	return res
}
