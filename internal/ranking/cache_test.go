package ranking

import (
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-reservation/internal/clock"
)

func newTestCache(clk clock.Clock) *Cache {
    return NewCache(clk, zerolog.Nop())
}

func TestTopNOrderingAndTies(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
    c := newTestCache(clk)

    c.Bump(3, 5)
    c.Bump(1, 5)
    c.Bump(2, 9)
    c.Bump(4, 1)

    top := c.TopN(3)
    require.Len(t, top, 3)
    assert.Equal(t, Ranked{Rank: 1, ItemID: 2, Score: 9}, top[0])
    // Equal scores fall back to ascending item id.
    assert.Equal(t, Ranked{Rank: 2, ItemID: 1, Score: 5}, top[1])
    assert.Equal(t, Ranked{Rank: 3, ItemID: 3, Score: 5}, top[2])

    assert.Len(t, c.TopN(100), 4, "n larger than item count returns everything")
}

func TestEvictOlderThan(t *testing.T) {
    base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    clk := clock.NewFake(base)
    c := newTestCache(clk)

    c.RecordSale(1, base.Add(-45*time.Minute))
    c.RecordSale(1, base.Add(-40*time.Minute))
    c.RecordSale(1, base.Add(-10*time.Minute))
    c.RecordSale(1, base.Add(-30*time.Minute)) // exactly at a 30m cutoff: kept

    removed := c.EvictOlderThan(1, base.Add(-30*time.Minute))
    assert.Equal(t, 2, removed, "only entries strictly older than cutoff are dropped")
    assert.Equal(t, 0, c.EvictOlderThan(1, base.Add(-30*time.Minute)))
    assert.Equal(t, 0, c.EvictOlderThan(77, base), "unknown item evicts nothing")
}

func TestRecomputeCorrectsBumpDrift(t *testing.T) {
    base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    clk := clock.NewFake(base)
    c := newTestCache(clk)

    for i := 0; i < 3; i++ {
        c.RecordSale(1, base.Add(-time.Duration(i)*time.Minute))
        c.Bump(1, 1)
    }
    // Simulate drift from the approximate path.
    c.Bump(1, 10)
    assert.Equal(t, 13, c.TopN(1)[0].Score)

    exact := c.RecomputeScore(1, 30*time.Minute)
    assert.Equal(t, 3, exact)
    assert.Equal(t, 3, c.TopN(1)[0].Score, "recomputation overwrites the cached score")
}

func TestRecalculateAllWindowedCounts(t *testing.T) {
    base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    clk := clock.NewFake(base)
    c := newTestCache(clk)

    // 5 sales inside the last 30 minutes, 2 sales 40 minutes ago.
    for i := 0; i < 5; i++ {
        c.RecordSale(7, base.Add(-time.Duration(i+1)*time.Minute))
    }
    c.RecordSale(7, base.Add(-40*time.Minute))
    c.RecordSale(7, base.Add(-40*time.Minute))
    c.Bump(7, 25) // arbitrary drift, must not survive the sweep

    c.RecalculateAll(30 * time.Minute)

    top := c.TopN(1)
    require.Len(t, top, 1)
    assert.Equal(t, 5, top[0].Score)

    // Aged entries were evicted, so a later recompute over a huge window
    // still only sees the in-window log.
    assert.Equal(t, 5, c.RecomputeScore(7, 24*time.Hour))
}

func TestRecalculateAllIsConvergent(t *testing.T) {
    base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    clk := clock.NewFake(base)
    c := newTestCache(clk)

    c.RecordSale(1, base.Add(-5*time.Minute))
    c.RecordSale(2, base.Add(-50*time.Minute))
    c.Bump(2, 4)
    c.Bump(3, 2) // bump-only item is reconciled to zero

    c.RecalculateAll(30 * time.Minute)
    first := c.TopN(10)
    c.RecalculateAll(30 * time.Minute)
    assert.Equal(t, first, c.TopN(10), "repeated recalculation is idempotent")

    byID := map[uint64]int{}
    for _, r := range first {
        byID[r.ItemID] = r.Score
    }
    assert.Equal(t, 1, byID[1])
    assert.Equal(t, 0, byID[2])
    assert.Equal(t, 0, byID[3])
}

func TestConcurrentWritersConverge(t *testing.T) {
    base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    clk := clock.NewFake(base)
    c := newTestCache(clk)

    const writers = 8
    const perWriter = 200
    var wg sync.WaitGroup
    for w := 0; w < writers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := 0; i < perWriter; i++ {
                c.RecordSale(1, base)
                c.Bump(1, 1)
            }
        }()
    }
    wg.Wait()

    assert.Equal(t, writers*perWriter, c.TopN(1)[0].Score)
    assert.Equal(t, writers*perWriter, c.RecomputeScore(1, time.Hour))
}
