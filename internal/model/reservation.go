package model

import "time"

// ReservationStatus enumerates the booking-record states.
type ReservationStatus string

const (
    ReservationTemporary ReservationStatus = "TEMPORARY" // seat held, payment pending
    ReservationConfirmed ReservationStatus = "CONFIRMED" // paid; terminal
)

// Reservation is the booking record created by a successful seat claim.
// Its status mirrors the seat's: TEMPORARY while the seat is held and
// CONFIRMED once the seat is RESERVED.  Expired temporary reservations are
// removed when the sweep restores their seat.
//
// Fields:
//  ID                  – primary key identifier.
//  UserID              – user who claimed the seat.
//  SeatID              – seat being booked.
//  ScheduleID          – schedule of the seat (denormalized for events).
//  Status              – TEMPORARY or CONFIRMED.
//  PriceCents          – amount debited on confirmation.
//  TemporaryReservedAt – when the hold was taken.
//  TemporaryExpiredAt  – when the hold lapses unless confirmed.
type Reservation struct {
    ID                  uint64            // reservations.id
    UserID              uint64            // reservations.user_id
    SeatID              uint64            // reservations.seat_id
    ScheduleID          uint64            // reservations.schedule_id
    Status              ReservationStatus // reservations.status
    PriceCents          uint32            // reservations.price_cents
    TemporaryReservedAt time.Time         // reservations.temporary_reserved_at
    TemporaryExpiredAt  time.Time         // reservations.temporary_expired_at
}
