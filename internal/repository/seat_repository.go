package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/concert-reservation/internal/model"
)

// SeatRepo provides data access to the seats table.  It satisfies the
// seat-lock's SeatStore interface: the lock serializes mutations per seat
// id in process, so these queries never need SELECT ... FOR UPDATE.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = `id, schedule_id, seat_number, price_cents, status, holder_id, hold_expires_at`

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
    var (
        s       model.Seat
        holder  sql.NullInt64
        expires sql.NullTime
    )
    if err := row.Scan(&s.ID, &s.ScheduleID, &s.SeatNumber, &s.PriceCents, &s.Status, &holder, &expires); err != nil {
        return nil, err
    }
    if holder.Valid {
        h := uint64(holder.Int64)
        s.HolderID = &h
    }
    if expires.Valid {
        t := expires.Time.UTC()
        s.HoldExpiresAt = &t
    }
    return &s, nil
}

// GetSeat loads one seat row.  Returns sql.ErrNoRows for unknown ids.
func (r *SeatRepo) GetSeat(ctx context.Context, seatID uint64) (*model.Seat, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+seatColumns+` FROM seats WHERE id = ?`, seatID)
    return scanSeat(row)
}

// SaveSeat writes the seat's transition fields.  Status, holder and hold
// expiry always travel together.
func (r *SeatRepo) SaveSeat(ctx context.Context, seat *model.Seat) error {
    var (
        holder  any
        expires any
    )
    if seat.HolderID != nil {
        holder = *seat.HolderID
    }
    if seat.HoldExpiresAt != nil {
        expires = seat.HoldExpiresAt.UTC().Format("2006-01-02 15:04:05")
    }
    res, err := r.db.ExecContext(ctx,
        `UPDATE seats SET status = ?, holder_id = ?, hold_expires_at = ? WHERE id = ?`,
        seat.Status, holder, expires, seat.ID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        // RowsAffected is 0 for a no-change update too, so verify the row
        // exists before reporting it missing.
        var exists int
        if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, seat.ID).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// ExpiredHoldSeatIDs lists seats whose hold deadline has passed.  The
// sweep feeds the result to the lock's RestoreExpired.
func (r *SeatRepo) ExpiredHoldSeatIDs(ctx context.Context, now time.Time) ([]uint64, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id FROM seats WHERE status = ? AND hold_expires_at <= ?`,
        model.SeatHeld, now.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// ListBySchedule returns every seat of a schedule ordered by id, for the
// availability view.
func (r *SeatRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.Seat, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+seatColumns+` FROM seats WHERE schedule_id = ? ORDER BY id`, scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        s, err := scanSeat(rows)
        if err != nil {
            return nil, err
        }
        seats = append(seats, *s)
    }
    return seats, rows.Err()
}
