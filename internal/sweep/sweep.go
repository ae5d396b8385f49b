// Package sweep is the periodic driver behind the admission queue, the
// seat lock and the ranking cache.  Each job runs on its own ticker,
// never overlaps itself, and treats a failed cycle as something the next
// interval retries rather than a reason to stop.
package sweep

import (
    "context"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/ranking"
    "github.com/iliyamo/concert-reservation/internal/seatlock"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

// Config carries the operational knobs of the driver.  Interval gates all
// four jobs; BatchSize is the admission batch handed to ActivateBatch and
// Window is the trailing ranking window.
type Config struct {
    Interval  time.Duration
    BatchSize int
    Window    time.Duration
}

// Runner wires the periodic jobs to their components.
type Runner struct {
    cfg    Config
    queue  *waitingroom.Queue
    lock   *seatlock.Lock
    seats  seatlock.SeatStore
    cache  *ranking.Cache
    mirror *ranking.Mirror
    clk    clock.Clock
    log    zerolog.Logger
}

// NewRunner constructs a Runner.  mirror may be nil when no redis is
// configured.
func NewRunner(cfg Config, queue *waitingroom.Queue, lock *seatlock.Lock, seats seatlock.SeatStore, cache *ranking.Cache, mirror *ranking.Mirror, clk clock.Clock, log zerolog.Logger) *Runner {
    return &Runner{
        cfg:    cfg,
        queue:  queue,
        lock:   lock,
        seats:  seats,
        cache:  cache,
        mirror: mirror,
        clk:    clk,
        log:    log,
    }
}

// Start launches the four sweep loops and returns immediately.  The loops
// stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
    go r.loop(ctx, "admission-activate", r.activateCycle)
    go r.loop(ctx, "token-sweep", r.tokenCycle)
    go r.loop(ctx, "seat-restore", r.seatCycle)
    go r.loop(ctx, "ranking-recalc", r.rankingCycle)
    r.log.Info().Dur("interval", r.cfg.Interval).Int("batch_size", r.cfg.BatchSize).Msg("sweep runner started")
}

// loop runs one job on a ticker.  A sync.Mutex TryLock keeps each job
// single-flight: a cycle that would overlap the previous one is skipped.
func (r *Runner) loop(ctx context.Context, name string, cycle func(context.Context)) {
    var busy sync.Mutex
    ticker := time.NewTicker(r.cfg.Interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            r.log.Debug().Str("job", name).Msg("sweep loop stopped")
            return
        case <-ticker.C:
            if !busy.TryLock() {
                r.log.Warn().Str("job", name).Msg("previous cycle still running, skipping")
                continue
            }
            cycle(ctx)
            busy.Unlock()
        }
    }
}

func (r *Runner) activateCycle(ctx context.Context) {
    if n := r.queue.ActivateBatch(r.cfg.BatchSize); n > 0 {
        r.log.Debug().Int("activated", n).Msg("admission cycle complete")
    }
}

func (r *Runner) tokenCycle(ctx context.Context) {
    r.queue.SweepExpired()
}

func (r *Runner) seatCycle(ctx context.Context) {
    ids, err := r.seats.ExpiredHoldSeatIDs(ctx, r.clk.Now())
    if err != nil {
        r.log.Error().Err(err).Msg("failed to discover expired seat holds")
        return
    }
    if len(ids) == 0 {
        return
    }
    r.lock.RestoreExpired(ctx, ids)
}

func (r *Runner) rankingCycle(ctx context.Context) {
    r.cache.RecalculateAll(r.cfg.Window)
    r.mirror.Publish(ctx, r.cache.TopN(0))
}
