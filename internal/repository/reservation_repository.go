package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/concert-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table and
// satisfies the seat-lock's ReservationStore interface.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, seat_id, schedule_id, status, price_cents, temporary_reserved_at, temporary_expired_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
    var res model.Reservation
    if err := row.Scan(&res.ID, &res.UserID, &res.SeatID, &res.ScheduleID, &res.Status,
        &res.PriceCents, &res.TemporaryReservedAt, &res.TemporaryExpiredAt); err != nil {
        return nil, err
    }
    res.TemporaryReservedAt = res.TemporaryReservedAt.UTC()
    res.TemporaryExpiredAt = res.TemporaryExpiredAt.UTC()
    return &res, nil
}

// CreateReservation inserts a booking record and backfills its ID.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
    out, err := r.db.ExecContext(ctx,
        `INSERT INTO reservations
           (user_id, seat_id, schedule_id, status, price_cents, temporary_reserved_at, temporary_expired_at)
         VALUES (?,?,?,?,?,?,?)`,
        res.UserID, res.SeatID, res.ScheduleID, res.Status, res.PriceCents,
        res.TemporaryReservedAt.UTC().Format("2006-01-02 15:04:05"),
        res.TemporaryExpiredAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return err
    }
    id, err := out.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// GetReservation loads one booking record.  sql.ErrNoRows for unknown ids.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
    return scanReservation(row)
}

// SaveReservation persists a status change.
func (r *ReservationRepo) SaveReservation(ctx context.Context, res *model.Reservation) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET status = ? WHERE id = ?`, res.Status, res.ID)
    return err
}

// DeleteReservation removes a booking record.
func (r *ReservationRepo) DeleteReservation(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    return err
}

// ActiveReservationBySeat returns the TEMPORARY reservation currently
// attached to a seat, or sql.ErrNoRows when there is none.
func (r *ReservationRepo) ActiveReservationBySeat(ctx context.Context, seatID uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE seat_id = ? AND status = ? LIMIT 1`,
        seatID, model.ReservationTemporary)
    return scanReservation(row)
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY id DESC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
    }
    return out, rows.Err()
}
