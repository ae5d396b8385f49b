// Package queue defines message payloads exchanged over the message
// broker and the background consumer that applies them.
package queue

// BookingConfirmedEvent is published when a reservation is successfully
// confirmed.  The consumer feeds it into the ranking cache's sale log;
// the payload carries enough context for analytics consumers to avoid a
// database round-trip.
type BookingConfirmedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    SeatID        uint64 `json:"seat_id"`
    SeatNumber    string `json:"seat_number"`
    ScheduleID    uint64 `json:"schedule_id"`
    ConcertID     uint64 `json:"concert_id"`
    ConcertTitle  string `json:"concert_title"`
    PriceCents    uint32 `json:"price_cents"`
    ConfirmedAt   string `json:"confirmed_at"` // RFC 3339, UTC
}
