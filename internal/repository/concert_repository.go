package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/concert-reservation/internal/model"
)

// ConcertRepo reads concert metadata and schedules.  Titles are the
// opaque key/value association rendered into ranking results; this
// repository never validates them.
type ConcertRepo struct {
    db *sql.DB
}

// NewConcertRepo returns a ConcertRepo bound to the database.
func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{db: db} }

// GetSchedule loads one schedule row.  sql.ErrNoRows for unknown ids.
func (r *ConcertRepo) GetSchedule(ctx context.Context, id uint64) (model.Schedule, error) {
    var s model.Schedule
    err := r.db.QueryRowContext(ctx,
        `SELECT id, concert_id, starts_at FROM schedules WHERE id = ?`, id).
        Scan(&s.ID, &s.ConcertID, &s.StartsAt)
    if err == nil {
        s.StartsAt = s.StartsAt.UTC()
    }
    return s, err
}

// Titles resolves display titles for a set of concert ids.  Unknown ids
// are simply absent from the returned map.
func (r *ConcertRepo) Titles(ctx context.Context, ids []uint64) (map[uint64]string, error) {
    titles := make(map[uint64]string, len(ids))
    if len(ids) == 0 {
        return titles, nil
    }
    query := `SELECT id, title FROM concerts WHERE id IN (?`
    args := []any{ids[0]}
    for _, id := range ids[1:] {
        query += ",?"
        args = append(args, id)
    }
    query += ")"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var (
            id    uint64
            title string
        )
        if err := rows.Scan(&id, &title); err != nil {
            return nil, err
        }
        titles[id] = title
    }
    return titles, rows.Err()
}
