package model

import "time"

// SeatStatus enumerates the states a seat moves through during one sale
// cycle.
type SeatStatus string

const (
    SeatAvailable SeatStatus = "AVAILABLE"            // claimable
    SeatHeld      SeatStatus = "TEMPORARILY_RESERVED" // held pending payment
    SeatReserved  SeatStatus = "RESERVED"             // sold; terminal for the cycle
)

// Seat is one sellable seat of a schedule.  Status, HolderID and
// HoldExpiresAt are always mutated together under the seat's lock; a seat
// carries holder/expiry only while TEMPORARILY_RESERVED.
//
// Fields:
//  ID            – primary key identifier.
//  ScheduleID    – schedule this seat belongs to.
//  SeatNumber    – human-readable seat label (e.g. "A-12").
//  PriceCents    – price in cents.
//  Status        – AVAILABLE, TEMPORARILY_RESERVED or RESERVED.
//  HolderID      – user holding the seat (nil unless held).
//  HoldExpiresAt – when the current hold lapses (nil unless held).
type Seat struct {
    ID            uint64     // seats.id
    ScheduleID    uint64     // seats.schedule_id
    SeatNumber    string     // seats.seat_number
    PriceCents    uint32     // seats.price_cents
    Status        SeatStatus // seats.status
    HolderID      *uint64    // seats.holder_id (nullable)
    HoldExpiresAt *time.Time // seats.hold_expires_at (nullable)
}

// HoldExpired reports whether a held seat's hold has lapsed at the given
// instant.  Seats in any other state never report an expired hold.
func (s *Seat) HoldExpired(now time.Time) bool {
    return s.Status == SeatHeld && s.HoldExpiresAt != nil && !now.Before(*s.HoldExpiresAt)
}

// HeldBy reports whether the seat is currently held by the given user.
func (s *Seat) HeldBy(userID uint64) bool {
    return s.Status == SeatHeld && s.HolderID != nil && *s.HolderID == userID
}
