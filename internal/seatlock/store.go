package seatlock

import (
    "context"
    "database/sql"
    "sync"
    "time"

    "github.com/iliyamo/concert-reservation/internal/model"
)

// SeatStore is the persistence surface the lock mutates seats through.
// Implementations must return sql.ErrNoRows for unknown ids.  The MySQL
// implementation lives in the repository package; MemStore below backs
// tests and standalone runs.
type SeatStore interface {
    GetSeat(ctx context.Context, seatID uint64) (*model.Seat, error)
    SaveSeat(ctx context.Context, seat *model.Seat) error
    // ExpiredHoldSeatIDs lists seats whose hold deadline has passed at
    // the given instant.  The sweep feeds the result to RestoreExpired.
    ExpiredHoldSeatIDs(ctx context.Context, now time.Time) ([]uint64, error)
}

// ReservationStore persists booking records tied 1:1 to seat claims.
type ReservationStore interface {
    CreateReservation(ctx context.Context, res *model.Reservation) error
    GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
    SaveReservation(ctx context.Context, res *model.Reservation) error
    DeleteReservation(ctx context.Context, id uint64) error
    // ActiveReservationBySeat returns the TEMPORARY reservation of a
    // seat, or sql.ErrNoRows when there is none.
    ActiveReservationBySeat(ctx context.Context, seatID uint64) (*model.Reservation, error)
}

// MemStore is an in-memory SeatStore and ReservationStore.  It keeps its
// own small mutex because the sweep's discovery scan runs outside any
// per-seat lock.
type MemStore struct {
    mu           sync.Mutex
    seats        map[uint64]model.Seat
    reservations map[uint64]model.Reservation
    nextResID    uint64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
    return &MemStore{
        seats:        make(map[uint64]model.Seat),
        reservations: make(map[uint64]model.Reservation),
        nextResID:    1,
    }
}

// PutSeat seeds or replaces a seat.  Intended for tests and bootstrap.
func (m *MemStore) PutSeat(seat model.Seat) {
    m.mu.Lock()
    m.seats[seat.ID] = seat
    m.mu.Unlock()
}

func (m *MemStore) GetSeat(ctx context.Context, seatID uint64) (*model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return nil, sql.ErrNoRows
    }
    out := s
    return &out, nil
}

func (m *MemStore) SaveSeat(ctx context.Context, seat *model.Seat) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.seats[seat.ID]; !ok {
        return sql.ErrNoRows
    }
    m.seats[seat.ID] = *seat
    return nil
}

func (m *MemStore) ExpiredHoldSeatIDs(ctx context.Context, now time.Time) ([]uint64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var ids []uint64
    for id, s := range m.seats {
        if s.HoldExpired(now) {
            ids = append(ids, id)
        }
    }
    return ids, nil
}

func (m *MemStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    res.ID = m.nextResID
    m.nextResID++
    m.reservations[res.ID] = *res
    return nil
}

func (m *MemStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.reservations[id]
    if !ok {
        return nil, sql.ErrNoRows
    }
    out := r
    return &out, nil
}

func (m *MemStore) SaveReservation(ctx context.Context, res *model.Reservation) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.reservations[res.ID]; !ok {
        return sql.ErrNoRows
    }
    m.reservations[res.ID] = *res
    return nil
}

func (m *MemStore) DeleteReservation(ctx context.Context, id uint64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.reservations, id)
    return nil
}

func (m *MemStore) ActiveReservationBySeat(ctx context.Context, seatID uint64) (*model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, r := range m.reservations {
        if r.SeatID == seatID && r.Status == model.ReservationTemporary {
            out := r
            return &out, nil
        }
    }
    return nil, sql.ErrNoRows
}
