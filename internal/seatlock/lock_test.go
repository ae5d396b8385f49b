package seatlock

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/model"
)

const (
    testSchedule = uint64(10)
    testSeat     = uint64(101)
)

func newTestLock(clk clock.Clock) (*Lock, *MemStore) {
    store := NewMemStore()
    store.PutSeat(model.Seat{
        ID:         testSeat,
        ScheduleID: testSchedule,
        SeatNumber: "A-1",
        PriceCents: 15000,
        Status:     model.SeatAvailable,
    })
    return New(store, store, 5*time.Minute, clk, zerolog.Nop()), store
}

func TestClaimHoldsAvailableSeat(t *testing.T) {
    t0 := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
    clk := clock.NewFake(t0)
    lock, store := newTestLock(clk)

    res, err := lock.Claim(context.Background(), testSeat, testSchedule, 1)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationTemporary, res.Status)
    assert.Equal(t, uint32(15000), res.PriceCents)
    assert.Equal(t, t0.Add(5*time.Minute), res.TemporaryExpiredAt)

    seat, err := store.GetSeat(context.Background(), testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatHeld, seat.Status)
    require.NotNil(t, seat.HolderID)
    assert.Equal(t, uint64(1), *seat.HolderID)
    require.NotNil(t, seat.HoldExpiresAt)
    assert.Equal(t, t0.Add(5*time.Minute), *seat.HoldExpiresAt)
}

func TestClaimRejectsWrongScheduleAndUnknownSeat(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, _ := newTestLock(clk)

    _, err := lock.Claim(context.Background(), testSeat, 999, 1)
    assert.ErrorIs(t, err, ErrSeatMismatch)

    _, err = lock.Claim(context.Background(), 555, testSchedule, 1)
    assert.Error(t, err)
    assert.NotErrorIs(t, err, ErrSeatNotAvailable)
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, store := newTestLock(clk)

    const claimants = 50
    var (
        wg     sync.WaitGroup
        mu     sync.Mutex
        won    []uint64
        losses int
    )
    for userID := uint64(1); userID <= claimants; userID++ {
        wg.Add(1)
        go func(userID uint64) {
            defer wg.Done()
            _, err := lock.Claim(context.Background(), testSeat, testSchedule, userID)
            mu.Lock()
            defer mu.Unlock()
            if err == nil {
                won = append(won, userID)
            } else if errors.Is(err, ErrSeatNotAvailable) {
                losses++
            }
        }(userID)
    }
    wg.Wait()

    require.Len(t, won, 1, "exactly one claimant wins")
    assert.Equal(t, claimants-1, losses, "all losers fail with ErrSeatNotAvailable")

    seat, err := store.GetSeat(context.Background(), testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatHeld, seat.Status)
    assert.Equal(t, won[0], *seat.HolderID)
}

func TestConfirmChecksOwnershipAndState(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, _ := newTestLock(clk)

    res, err := lock.Claim(context.Background(), testSeat, testSchedule, 1)
    require.NoError(t, err)

    _, err = lock.Confirm(context.Background(), res.ID, 2, nil)
    assert.ErrorIs(t, err, ErrOwnershipMismatch)

    confirmed, err := lock.Confirm(context.Background(), res.ID, 1, nil)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationConfirmed, confirmed.Status)

    _, err = lock.Confirm(context.Background(), res.ID, 1, nil)
    assert.ErrorIs(t, err, ErrInvalidState, "double confirm is rejected")
}

func TestConfirmChargeFailureLeavesHoldIntact(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, store := newTestLock(clk)

    res, err := lock.Claim(context.Background(), testSeat, testSchedule, 1)
    require.NoError(t, err)

    chargeErr := errors.New("insufficient points")
    _, err = lock.Confirm(context.Background(), res.ID, 1, func(ctx context.Context, r *model.Reservation) error {
        return chargeErr
    })
    require.ErrorIs(t, err, chargeErr)

    // Nothing was committed: the seat is still held and the reservation
    // can be confirmed once payment succeeds.
    seat, err := store.GetSeat(context.Background(), testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatHeld, seat.Status)

    charged := false
    confirmed, err := lock.Confirm(context.Background(), res.ID, 1, func(ctx context.Context, r *model.Reservation) error {
        charged = true
        assert.Equal(t, uint32(15000), r.PriceCents, "charge sees the reservation being confirmed")
        return nil
    })
    require.NoError(t, err)
    assert.True(t, charged)
    assert.Equal(t, model.ReservationConfirmed, confirmed.Status)

    seat, err = store.GetSeat(context.Background(), testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatReserved, seat.Status)
    assert.Nil(t, seat.HoldExpiresAt)
}

func TestConfirmRejectsExpiredHold(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, _ := newTestLock(clk)

    res, err := lock.Claim(context.Background(), testSeat, testSchedule, 1)
    require.NoError(t, err)

    clk.Advance(6 * time.Minute)
    _, err = lock.Confirm(context.Background(), res.ID, 1, nil)
    assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRestoreExpiredCycle(t *testing.T) {
    t0 := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
    clk := clock.NewFake(t0)
    lock, store := newTestLock(clk)
    ctx := context.Background()

    _, err := lock.Claim(ctx, testSeat, testSchedule, 1)
    require.NoError(t, err)

    clk.Advance(time.Second)
    _, err = lock.Claim(ctx, testSeat, testSchedule, 2)
    assert.ErrorIs(t, err, ErrSeatNotAvailable)

    // Not yet expired: restore is a no-op.
    assert.Equal(t, 0, lock.RestoreExpired(ctx, []uint64{testSeat}))

    clk.Set(t0.Add(6 * time.Minute))
    expired, err := store.ExpiredHoldSeatIDs(ctx, clk.Now())
    require.NoError(t, err)
    require.Equal(t, []uint64{testSeat}, expired)

    assert.Equal(t, 1, lock.RestoreExpired(ctx, expired))
    assert.Equal(t, 0, lock.RestoreExpired(ctx, expired), "second restore is a no-op")

    seat, err := store.GetSeat(ctx, testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seat.Status)
    assert.Nil(t, seat.HolderID)

    // The seat is claimable again by the user who lost the first cycle.
    clk.Advance(time.Second)
    res, err := lock.Claim(ctx, testSeat, testSchedule, 2)
    require.NoError(t, err)
    assert.Equal(t, uint64(2), res.UserID)
}

func TestReleaseReturnsSeat(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    lock, store := newTestLock(clk)
    ctx := context.Background()

    res, err := lock.Claim(ctx, testSeat, testSchedule, 1)
    require.NoError(t, err)

    require.ErrorIs(t, lock.Release(ctx, res.ID, 2), ErrOwnershipMismatch)
    require.NoError(t, lock.Release(ctx, res.ID, 1))

    seat, err := store.GetSeat(ctx, testSeat)
    require.NoError(t, err)
    assert.Equal(t, model.SeatAvailable, seat.Status)

    _, err = store.GetReservation(ctx, res.ID)
    assert.Error(t, err, "booking record removed on release")
}

func TestClaimsOnDifferentSeatsDoNotInterfere(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
    store := NewMemStore()
    const seats = 20
    for id := uint64(1); id <= seats; id++ {
        store.PutSeat(model.Seat{ID: id, ScheduleID: testSchedule, SeatNumber: "B", PriceCents: 100, Status: model.SeatAvailable})
    }
    lock := New(store, store, 5*time.Minute, clk, zerolog.Nop())

    var wg sync.WaitGroup
    errs := make([]error, seats)
    for id := uint64(1); id <= seats; id++ {
        wg.Add(1)
        go func(id uint64) {
            defer wg.Done()
            _, errs[id-1] = lock.Claim(context.Background(), id, testSchedule, id)
        }(id)
    }
    wg.Wait()

    for _, err := range errs {
        assert.NoError(t, err)
    }
}
