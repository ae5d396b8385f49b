package model

import "time"

// Concert is a tracked sale item.  The ranking cache keys its counters by
// concert ID; Title is the display metadata rendered into ranking results.
//
// Fields:
//  ID    – primary key identifier.
//  Title – display title for ranking output.
type Concert struct {
    ID    uint64 // concerts.id
    Title string // concerts.title
}

// Schedule is one performance of a concert.  Seats belong to exactly one
// schedule; the schedule links a confirmed booking back to its concert for
// ranking purposes.
//
// Fields:
//  ID        – primary key identifier.
//  ConcertID – concert being performed.
//  StartsAt  – when the performance begins.
type Schedule struct {
    ID        uint64    // schedules.id
    ConcertID uint64    // schedules.concert_id
    StartsAt  time.Time // schedules.starts_at
}
