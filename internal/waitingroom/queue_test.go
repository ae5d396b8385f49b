package waitingroom

import (
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/model"
)

func newTestQueue(clk clock.Clock) *Queue {
    return New(time.Hour, clk, zerolog.Nop())
}

func TestIssueOrGetIsIdempotent(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    first, err := q.IssueOrGet(7)
    require.NoError(t, err)
    second, err := q.IssueOrGet(7)
    require.NoError(t, err)

    assert.Equal(t, first.Value, second.Value)
    assert.Equal(t, model.TokenWaiting, second.Status)
    assert.Equal(t, 1, q.WaitingCount())
}

func TestIssueOrGetConcurrentSameUser(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    const callers = 64
    values := make([]string, callers)
    var wg sync.WaitGroup
    for i := 0; i < callers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            tok, err := q.IssueOrGet(42)
            assert.NoError(t, err)
            values[i] = tok.Value
        }(i)
    }
    wg.Wait()

    for _, v := range values {
        assert.Equal(t, values[0], v)
    }
    assert.Equal(t, 1, q.WaitingCount())
}

func TestPositionFollowsCreationOrder(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    for id := uint64(1); id <= 3; id++ {
        _, err := q.IssueOrGet(id)
        require.NoError(t, err)
        clk.Advance(time.Second)
    }

    assert.Equal(t, 1, q.Position(1))
    assert.Equal(t, 2, q.Position(2))
    assert.Equal(t, 3, q.Position(3))
    assert.Equal(t, 0, q.Position(99), "unknown user is not waiting")

    q.ActivateBatch(1)
    assert.Equal(t, 0, q.Position(1), "active user is no longer waiting")
    assert.Equal(t, 1, q.Position(2))
}

func TestActivateBatchPromotesStablePrefix(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    for id := uint64(1); id <= 5; id++ {
        _, err := q.IssueOrGet(id)
        require.NoError(t, err)
        clk.Advance(time.Millisecond)
    }

    assert.Equal(t, 2, q.ActivateBatch(2))
    // Users 1 and 2 are active, 3..5 still waiting in order.
    for id := uint64(1); id <= 2; id++ {
        tok, err := q.IssueOrGet(id)
        require.NoError(t, err)
        assert.Equal(t, model.TokenActive, tok.Status)
        require.NotNil(t, tok.ExpiresAt)
        assert.Equal(t, clk.Now().Add(time.Hour), *tok.ExpiresAt)
    }
    assert.Equal(t, 1, q.Position(3))

    // Draining the queue activates every remaining token exactly once.
    total := 0
    for q.WaitingCount() > 0 {
        total += q.ActivateBatch(2)
    }
    assert.Equal(t, 3, total)
    assert.Equal(t, 0, q.ActivateBatch(2), "empty queue promotes nothing")
}

func TestValidateExpiresActiveTokenLazily(t *testing.T) {
    t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    clk := clock.NewFake(t0)
    q := newTestQueue(clk)

    tok, err := q.IssueOrGet(1)
    require.NoError(t, err)
    assert.ErrorIs(t, q.Validate(tok.Value), ErrTokenNotActive, "waiting token is not yet allowed")

    clk.Advance(time.Second)
    require.Equal(t, 1, q.ActivateBatch(1))

    active, err := q.IssueOrGet(1)
    require.NoError(t, err)
    require.NotNil(t, active.ExpiresAt)
    assert.Equal(t, t0.Add(time.Second+time.Hour), *active.ExpiresAt)
    assert.NoError(t, q.Validate(active.Value))

    clk.Set(t0.Add(time.Hour + 2*time.Second))
    assert.ErrorIs(t, q.Validate(active.Value), ErrTokenExpired)
    // The side effect retired the token; it is no longer recognised.
    assert.ErrorIs(t, q.Validate(active.Value), ErrTokenNotActive)

    // The user may re-join with a fresh token.
    fresh, err := q.IssueOrGet(1)
    require.NoError(t, err)
    assert.Equal(t, model.TokenWaiting, fresh.Status)
    assert.NotEqual(t, active.Value, fresh.Value)
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    for id := uint64(1); id <= 4; id++ {
        _, err := q.IssueOrGet(id)
        require.NoError(t, err)
    }
    require.Equal(t, 3, q.ActivateBatch(3))

    assert.Equal(t, 0, q.SweepExpired(), "nothing expired yet")
    clk.Advance(time.Hour + time.Minute)
    assert.Equal(t, 3, q.SweepExpired())
    assert.Equal(t, 0, q.SweepExpired(), "second sweep is a no-op")
    assert.Equal(t, 1, q.WaitingCount(), "waiting token untouched by sweep")
}

func TestConcurrentActivationNeverDoublePromotes(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := newTestQueue(clk)

    const users = 100
    for id := uint64(1); id <= users; id++ {
        _, err := q.IssueOrGet(id)
        require.NoError(t, err)
    }

    var wg sync.WaitGroup
    counts := make([]int, 10)
    for i := range counts {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            counts[i] = q.ActivateBatch(15)
        }(i)
    }
    wg.Wait()

    total := 0
    for _, c := range counts {
        total += c
    }
    assert.Equal(t, users, total, "every token promoted exactly once")
    assert.Equal(t, 0, q.WaitingCount())
}
