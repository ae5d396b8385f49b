// Package seatlock serializes concurrent attempts to claim, confirm and
// release seats.  Mutual exclusion is per seat id: claimants of the same
// seat are serialized, claimants of different seats proceed in parallel.
// The read-check-write of every transition happens as one unit under the
// seat's lock, so exactly one claimant wins each hold cycle.
package seatlock

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/model"
)

// Sentinel errors surfaced by the lock.  Handlers translate them into
// "pick another seat" (claim failures) and "invalid request" (confirm
// failures) responses.
var (
    ErrSeatNotAvailable  = errors.New("seat not available")
    ErrSeatMismatch      = errors.New("seat does not belong to schedule")
    ErrOwnershipMismatch = errors.New("reservation owned by another user")
    ErrInvalidState      = errors.New("reservation not in a confirmable state")
)

// ChargeFunc is the payment-debit step executed inside Confirm, under the
// seat's lock, after validation and before the transition commits.  It
// receives the validated reservation so the ledger knows what to debit.
// A non-nil error aborts the confirmation with no observable state change.
type ChargeFunc func(ctx context.Context, res *model.Reservation) error

// Lock owns per-seat state transitions.  Seat and reservation rows are
// read and written through the stores; the lock table guarantees that no
// two goroutines mutate the same seat concurrently regardless of the
// store implementation behind it.
type Lock struct {
    seats        SeatStore
    reservations ReservationStore
    holdTTL      time.Duration
    clk          clock.Clock
    log          zerolog.Logger

    mu    sync.Mutex
    locks map[uint64]*sync.Mutex // one mutex per seat id, created on demand
}

// New constructs a Lock.  holdTTL is the temporary-hold duration stamped
// on every successful claim.
func New(seats SeatStore, reservations ReservationStore, holdTTL time.Duration, clk clock.Clock, log zerolog.Logger) *Lock {
    return &Lock{
        seats:        seats,
        reservations: reservations,
        holdTTL:      holdTTL,
        clk:          clk,
        log:          log,
        locks:        make(map[uint64]*sync.Mutex),
    }
}

// seatMutex returns the mutex guarding one seat id, creating it on first
// use.  The table only ever grows; seats are a bounded inventory.
func (l *Lock) seatMutex(seatID uint64) *sync.Mutex {
    l.mu.Lock()
    defer l.mu.Unlock()
    m, ok := l.locks[seatID]
    if !ok {
        m = &sync.Mutex{}
        l.locks[seatID] = m
    }
    return m
}

// Claim acquires the seat exclusively, verifies schedule membership and
// availability, and transitions AVAILABLE → TEMPORARILY_RESERVED with the
// caller as holder and expiry = now + hold duration.  A TEMPORARY
// reservation is created for the hold.  Losers of the race fail with
// ErrSeatNotAvailable and the seat is left exactly as it was.
func (l *Lock) Claim(ctx context.Context, seatID, scheduleID, userID uint64) (*model.Reservation, error) {
    m := l.seatMutex(seatID)
    m.Lock()
    defer m.Unlock()

    seat, err := l.seats.GetSeat(ctx, seatID)
    if err != nil {
        return nil, fmt.Errorf("load seat %d: %w", seatID, err)
    }
    if seat.ScheduleID != scheduleID {
        return nil, ErrSeatMismatch
    }
    if seat.Status != model.SeatAvailable {
        return nil, ErrSeatNotAvailable
    }

    now := l.clk.Now()
    expires := now.Add(l.holdTTL)
    seat.Status = model.SeatHeld
    seat.HolderID = &userID
    seat.HoldExpiresAt = &expires
    if err := l.seats.SaveSeat(ctx, seat); err != nil {
        return nil, fmt.Errorf("hold seat %d: %w", seatID, err)
    }

    res := &model.Reservation{
        UserID:              userID,
        SeatID:              seatID,
        ScheduleID:          scheduleID,
        Status:              model.ReservationTemporary,
        PriceCents:          seat.PriceCents,
        TemporaryReservedAt: now,
        TemporaryExpiredAt:  expires,
    }
    if err := l.reservations.CreateReservation(ctx, res); err != nil {
        // Undo the hold so a storage failure never leaks a phantom hold.
        seat.Status = model.SeatAvailable
        seat.HolderID = nil
        seat.HoldExpiresAt = nil
        if undoErr := l.seats.SaveSeat(ctx, seat); undoErr != nil {
            l.log.Error().Err(undoErr).Uint64("seat_id", seatID).Msg("failed to roll back hold after reservation create failure")
        }
        return nil, fmt.Errorf("create reservation for seat %d: %w", seatID, err)
    }
    l.log.Debug().Uint64("seat_id", seatID).Uint64("user_id", userID).Time("hold_expires_at", expires).Msg("seat held")
    return res, nil
}

// Confirm finalizes a temporary reservation.  The charge callback (the
// ledger debit) runs under the seat's lock after ownership and state are
// validated; only when it succeeds do the seat and reservation move to
// their terminal RESERVED/CONFIRMED states.
func (l *Lock) Confirm(ctx context.Context, reservationID, userID uint64, charge ChargeFunc) (*model.Reservation, error) {
    // Resolve the seat id first; the authoritative re-read happens under
    // the seat lock below.
    res, err := l.reservations.GetReservation(ctx, reservationID)
    if err != nil {
        return nil, fmt.Errorf("load reservation %d: %w", reservationID, err)
    }

    m := l.seatMutex(res.SeatID)
    m.Lock()
    defer m.Unlock()

    res, err = l.reservations.GetReservation(ctx, reservationID)
    if err != nil {
        return nil, fmt.Errorf("load reservation %d: %w", reservationID, err)
    }
    if res.UserID != userID {
        return nil, ErrOwnershipMismatch
    }
    if res.Status != model.ReservationTemporary {
        return nil, ErrInvalidState
    }
    seat, err := l.seats.GetSeat(ctx, res.SeatID)
    if err != nil {
        return nil, fmt.Errorf("load seat %d: %w", res.SeatID, err)
    }
    // The hold must still belong to this user and still be alive.  An
    // expired hold is not confirmable even before the sweep restores it.
    if !seat.HeldBy(userID) || seat.HoldExpired(l.clk.Now()) {
        return nil, ErrInvalidState
    }

    if charge != nil {
        if err := charge(ctx, res); err != nil {
            return nil, fmt.Errorf("charge for reservation %d: %w", reservationID, err)
        }
    }

    seat.Status = model.SeatReserved
    seat.HoldExpiresAt = nil
    if err := l.seats.SaveSeat(ctx, seat); err != nil {
        return nil, fmt.Errorf("reserve seat %d: %w", seat.ID, err)
    }
    res.Status = model.ReservationConfirmed
    if err := l.reservations.SaveReservation(ctx, res); err != nil {
        // Put the hold back so the state pair stays consistent.
        seat.Status = model.SeatHeld
        exp := res.TemporaryExpiredAt
        seat.HoldExpiresAt = &exp
        if undoErr := l.seats.SaveSeat(ctx, seat); undoErr != nil {
            l.log.Error().Err(undoErr).Uint64("seat_id", seat.ID).Msg("failed to roll back seat after reservation save failure")
        }
        return nil, fmt.Errorf("confirm reservation %d: %w", reservationID, err)
    }
    l.log.Info().Uint64("reservation_id", res.ID).Uint64("seat_id", seat.ID).Uint64("user_id", userID).Msg("reservation confirmed")
    return res, nil
}

// Release cancels a TEMPORARY reservation owned by the caller, returning
// the seat to AVAILABLE and removing the booking record.
func (l *Lock) Release(ctx context.Context, reservationID, userID uint64) error {
    res, err := l.reservations.GetReservation(ctx, reservationID)
    if err != nil {
        return fmt.Errorf("load reservation %d: %w", reservationID, err)
    }

    m := l.seatMutex(res.SeatID)
    m.Lock()
    defer m.Unlock()

    res, err = l.reservations.GetReservation(ctx, reservationID)
    if err != nil {
        return fmt.Errorf("load reservation %d: %w", reservationID, err)
    }
    if res.UserID != userID {
        return ErrOwnershipMismatch
    }
    if res.Status != model.ReservationTemporary {
        return ErrInvalidState
    }
    seat, err := l.seats.GetSeat(ctx, res.SeatID)
    if err != nil {
        return fmt.Errorf("load seat %d: %w", res.SeatID, err)
    }
    if seat.HeldBy(userID) {
        seat.Status = model.SeatAvailable
        seat.HolderID = nil
        seat.HoldExpiresAt = nil
        if err := l.seats.SaveSeat(ctx, seat); err != nil {
            return fmt.Errorf("release seat %d: %w", seat.ID, err)
        }
    }
    if err := l.reservations.DeleteReservation(ctx, res.ID); err != nil {
        return fmt.Errorf("delete reservation %d: %w", res.ID, err)
    }
    l.log.Debug().Uint64("reservation_id", res.ID).Uint64("seat_id", res.SeatID).Msg("hold released")
    return nil
}

// RestoreExpired returns seats whose hold has lapsed to AVAILABLE and
// removes their temporary reservations.  Seats already AVAILABLE, already
// RESERVED, or re-held by a newer cycle are skipped, so calling it with
// overlapping sets repeatedly is idempotent.  Returns the number restored.
func (l *Lock) RestoreExpired(ctx context.Context, seatIDs []uint64) int {
    restored := 0
    for _, seatID := range seatIDs {
        ok, err := l.restoreOne(ctx, seatID)
        if err != nil {
            // Per-seat failures are logged and skipped; the next sweep
            // cycle retries them.
            l.log.Error().Err(err).Uint64("seat_id", seatID).Msg("failed to restore expired hold")
            continue
        }
        if ok {
            restored++
        }
    }
    if restored > 0 {
        l.log.Info().Int("restored", restored).Msg("expired seat holds restored")
    }
    return restored
}

func (l *Lock) restoreOne(ctx context.Context, seatID uint64) (bool, error) {
    m := l.seatMutex(seatID)
    m.Lock()
    defer m.Unlock()

    seat, err := l.seats.GetSeat(ctx, seatID)
    if err != nil {
        return false, err
    }
    if !seat.HoldExpired(l.clk.Now()) {
        return false, nil
    }
    seat.Status = model.SeatAvailable
    seat.HolderID = nil
    seat.HoldExpiresAt = nil
    if err := l.seats.SaveSeat(ctx, seat); err != nil {
        return false, err
    }
    if res, err := l.reservations.ActiveReservationBySeat(ctx, seatID); err == nil {
        if err := l.reservations.DeleteReservation(ctx, res.ID); err != nil {
            return true, err
        }
    }
    return true, nil
}
