package handler

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/model"
    "github.com/iliyamo/concert-reservation/internal/queue"
    "github.com/iliyamo/concert-reservation/internal/ranking"
    "github.com/iliyamo/concert-reservation/internal/repository"
    "github.com/iliyamo/concert-reservation/internal/seatlock"
    queue_publisher "github.com/iliyamo/concert-reservation/internal/service"
)

// ReservationHandler drives the seat booking flow: listing seats,
// claiming a hold, confirming it with a point charge, and cancelling.
type ReservationHandler struct {
    Lock         *seatlock.Lock
    Seats        *repository.SeatRepo
    Reservations *repository.ReservationRepo
    Ledger       *repository.LedgerRepo
    Concerts     *repository.ConcertRepo
    Rankings     *ranking.Cache
    Log          zerolog.Logger
}

func NewReservationHandler(lock *seatlock.Lock, seats *repository.SeatRepo, reservations *repository.ReservationRepo, ledger *repository.LedgerRepo, concerts *repository.ConcertRepo, rankings *ranking.Cache, log zerolog.Logger) *ReservationHandler {
    return &ReservationHandler{
        Lock:         lock,
        Seats:        seats,
        Reservations: reservations,
        Ledger:       ledger,
        Concerts:     concerts,
        Rankings:     rankings,
        Log:          log,
    }
}

type reservationResp struct {
    ID          uint64                  `json:"id"`
    SeatID      uint64                  `json:"seat_id"`
    ScheduleID  uint64                  `json:"schedule_id"`
    Status      model.ReservationStatus `json:"status"`
    PriceCents  uint32                  `json:"price_cents"`
    HoldExpires time.Time               `json:"hold_expires_at"`
}

func toReservationResp(res *model.Reservation) reservationResp {
    return reservationResp{
        ID:          res.ID,
        SeatID:      res.SeatID,
        ScheduleID:  res.ScheduleID,
        Status:      res.Status,
        PriceCents:  res.PriceCents,
        HoldExpires: res.TemporaryExpiredAt,
    }
}

// ListSeats returns every seat of a schedule with its current status,
// so clients can render the seat map. Holder identities are not exposed.
func (h *ReservationHandler) ListSeats(c echo.Context) error {
    scheduleID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    seats, err := h.Seats.ListBySchedule(ctx, scheduleID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list seats"})
    }

    type seatResp struct {
        ID         uint64           `json:"id"`
        SeatNumber string           `json:"seat_number"`
        PriceCents uint32           `json:"price_cents"`
        Status     model.SeatStatus `json:"status"`
    }
    out := make([]seatResp, 0, len(seats))
    for _, s := range seats {
        out = append(out, seatResp{ID: s.ID, SeatNumber: s.SeatNumber, PriceCents: s.PriceCents, Status: s.Status})
    }
    return c.JSON(http.StatusOK, echo.Map{"schedule_id": scheduleID, "seats": out})
}

// Claim places a temporary hold on one seat. Exactly one caller can win
// a seat; everyone else gets 409 until the hold expires or is released.
func (h *ReservationHandler) Claim(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    scheduleID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
    }
    seatID, err := pathID(c, "seat_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    res, err := h.Lock.Claim(ctx, seatID, scheduleID, uid)
    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, toReservationResp(res))
    case errors.Is(err, seatlock.ErrSeatNotAvailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available"})
    case errors.Is(err, seatlock.ErrSeatMismatch), errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
    default:
        h.Log.Error().Err(err).Uint64("seat_id", seatID).Msg("claim failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "claim failed"})
    }
}

// Confirm finalizes a temporary reservation. The point charge runs while
// the seat is still locked, so a failed debit leaves the hold untouched
// and the caller can retry or cancel.
func (h *ReservationHandler) Confirm(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    resID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    charge := func(ctx context.Context, res *model.Reservation) error {
        return h.Ledger.Debit(ctx, res.UserID, res.PriceCents, fmt.Sprintf("reservation:%d", res.ID))
    }

    res, err := h.Lock.Confirm(ctx, resID, uid, charge)
    switch {
    case err == nil:
        h.afterConfirm(res)
        return c.JSON(http.StatusOK, toReservationResp(res))
    case errors.Is(err, repository.ErrInsufficientPoints):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient point balance"})
    case errors.Is(err, seatlock.ErrOwnershipMismatch):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another user"})
    case errors.Is(err, seatlock.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not confirmable"})
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    default:
        h.Log.Error().Err(err).Uint64("reservation_id", resID).Msg("confirm failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
    }
}

// afterConfirm applies the side effects of a successful confirmation:
// an immediate ranking bump for fresh leaderboards and a broker event
// for everything downstream. Both are best-effort.
func (h *ReservationHandler) afterConfirm(res *model.Reservation) {
    ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
    defer cancel()

    sch, err := h.Concerts.GetSchedule(ctx, res.ScheduleID)
    if err != nil {
        h.Log.Warn().Err(err).Uint64("schedule_id", res.ScheduleID).Msg("schedule lookup after confirm failed")
        return
    }
    h.Rankings.Bump(sch.ConcertID, 1)

    ev := queue.BookingConfirmedEvent{
        ReservationID: res.ID,
        UserID:        res.UserID,
        SeatID:        res.SeatID,
        ScheduleID:    res.ScheduleID,
        ConcertID:     sch.ConcertID,
        PriceCents:    res.PriceCents,
        ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
    }
    if seat, err := h.Seats.GetSeat(ctx, res.SeatID); err == nil {
        ev.SeatNumber = seat.SeatNumber
    }
    if titles, err := h.Concerts.Titles(ctx, []uint64{sch.ConcertID}); err == nil {
        ev.ConcertTitle = titles[sch.ConcertID]
    }

    go func() {
        pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if err := queue_publisher.PublishBookingConfirmed(pubCtx, ev); err != nil {
            h.Log.Warn().Err(err).Uint64("reservation_id", ev.ReservationID).Msg("booking event publish failed")
        }
    }()
}

// Cancel releases a temporary reservation before it is confirmed. The
// seat goes straight back to the pool instead of waiting out its hold.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    resID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    switch err := h.Lock.Release(ctx, resID, uid); {
    case err == nil:
        return c.NoContent(http.StatusNoContent)
    case errors.Is(err, seatlock.ErrOwnershipMismatch):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another user"})
    case errors.Is(err, seatlock.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": "only temporary reservations can be cancelled"})
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    default:
        h.Log.Error().Err(err).Uint64("reservation_id", resID).Msg("cancel failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
}

// MyReservations lists the caller's reservations, newest first.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    list, err := h.Reservations.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list reservations"})
    }
    out := make([]reservationResp, 0, len(list))
    for i := range list {
        out = append(out, toReservationResp(&list[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
