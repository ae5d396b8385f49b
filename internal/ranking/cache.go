// Package ranking tracks recent sale velocity per concert.  Writes come
// in two tiers: Bump is the approximate low-latency increment used on the
// confirm hot path, RecordSale appends to the authoritative per-item log.
// A periodic sweep (RecalculateAll) evicts aged entries and overwrites
// every cached score with the exact windowed count, bounding the drift of
// the fast path.
package ranking

import (
    "sort"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/clock"
)

// Ranked is one row of a TopN result.  Rank is 1-based.
type Ranked struct {
    Rank   int    `json:"rank"`
    ItemID uint64 `json:"item_id"`
    Score  int    `json:"score"`
}

// Cache owns the per-item sale logs and cached scores.
type Cache struct {
    mu     sync.Mutex
    logs   map[uint64][]time.Time // append-ordered sale timestamps
    scores map[uint64]int

    recalcBusy sync.Mutex // single-flight guard for RecalculateAll
    clk        clock.Clock
    log        zerolog.Logger
}

// NewCache returns an empty Cache.
func NewCache(clk clock.Clock, log zerolog.Logger) *Cache {
    return &Cache{
        logs:   make(map[uint64][]time.Time),
        scores: make(map[uint64]int),
        clk:    clk,
        log:    log,
    }
}

// RecordSale appends a sale event to the item's time-ordered log.  The
// cached score is not touched; Bump covers the real-time feedback and the
// sweep reconciles the exact value.
func (c *Cache) RecordSale(itemID uint64, ts time.Time) {
    c.mu.Lock()
    c.logs[itemID] = append(c.logs[itemID], ts.UTC())
    if _, ok := c.scores[itemID]; !ok {
        c.scores[itemID] = 0
    }
    c.mu.Unlock()
}

// Bump adjusts the cached score without touching the log.  Best-effort
// approximate path; drift is corrected by the next recomputation.
func (c *Cache) Bump(itemID uint64, delta int) {
    c.mu.Lock()
    s := c.scores[itemID] + delta
    if s < 0 {
        s = 0
    }
    c.scores[itemID] = s
    c.mu.Unlock()
}

// TopN returns the n highest-scoring items, descending, ties broken by
// item id ascending.  n <= 0 returns every known item.  It reads only the
// maintained scores; logs are never scanned on the read path.
func (c *Cache) TopN(n int) []Ranked {
    c.mu.Lock()
    items := make([]Ranked, 0, len(c.scores))
    for id, score := range c.scores {
        items = append(items, Ranked{ItemID: id, Score: score})
    }
    c.mu.Unlock()

    sort.Slice(items, func(i, j int) bool {
        if items[i].Score != items[j].Score {
            return items[i].Score > items[j].Score
        }
        return items[i].ItemID < items[j].ItemID
    })
    if n > 0 && n < len(items) {
        items = items[:n]
    }
    for i := range items {
        items[i].Rank = i + 1
    }
    return items
}

// EvictOlderThan removes log entries strictly older than cutoff and
// returns how many were dropped.  Used by the sweep to bound log growth.
func (c *Cache) EvictOlderThan(itemID uint64, cutoff time.Time) int {
    c.mu.Lock()
    defer c.mu.Unlock()

    entries, ok := c.logs[itemID]
    if !ok {
        return 0
    }
    kept := entries[:0]
    for _, ts := range entries {
        if !ts.Before(cutoff) {
            kept = append(kept, ts)
        }
    }
    removed := len(entries) - len(kept)
    c.logs[itemID] = kept
    return removed
}

// RecomputeScore counts the log entries inside the trailing window and
// overwrites the cached score with the exact value, correcting any drift
// from the approximate path.  Returns the exact count.
func (c *Cache) RecomputeScore(itemID uint64, window time.Duration) int {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.recomputeLocked(itemID, window)
}

func (c *Cache) recomputeLocked(itemID uint64, window time.Duration) int {
    cutoff := c.clk.Now().Add(-window)
    count := 0
    for _, ts := range c.logs[itemID] {
        if !ts.Before(cutoff) {
            count++
        }
    }
    c.scores[itemID] = count
    return count
}

// RecalculateAll evicts stale entries and recomputes the score of every
// known item.  Single-flight: a cycle that finds the previous one still
// running returns immediately rather than queueing behind it.  The mutex
// is taken per item so the hot write path is only ever blocked briefly.
func (c *Cache) RecalculateAll(window time.Duration) {
    if !c.recalcBusy.TryLock() {
        c.log.Warn().Msg("ranking recalculation still running, skipping cycle")
        return
    }
    defer c.recalcBusy.Unlock()

    cutoff := c.clk.Now().Add(-window)
    evicted := 0
    for _, itemID := range c.itemIDs() {
        evicted += c.EvictOlderThan(itemID, cutoff)
        c.mu.Lock()
        c.recomputeLocked(itemID, window)
        c.mu.Unlock()
    }
    c.log.Debug().Int("evicted", evicted).Msg("ranking scores recalculated")
}

// itemIDs returns every item known to either the logs or the score map,
// so items seen only through Bump are reconciled too.
func (c *Cache) itemIDs() []uint64 {
    c.mu.Lock()
    defer c.mu.Unlock()
    seen := make(map[uint64]struct{}, len(c.logs)+len(c.scores))
    for id := range c.logs {
        seen[id] = struct{}{}
    }
    for id := range c.scores {
        seen[id] = struct{}{}
    }
    ids := make([]uint64, 0, len(seen))
    for id := range seen {
        ids = append(ids, id)
    }
    return ids
}
