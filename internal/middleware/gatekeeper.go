package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

// QueueTokenHeader carries the waiting-room token on protected booking
// calls.
const QueueTokenHeader = "X-Queue-Token"

// AdmissionGate returns a middleware enforcing that the caller presents
// an ACTIVE waiting-room token.  A token past its session deadline is
// retired by the validation itself, so the response tells the client to
// re-join the queue rather than retry.
func AdmissionGate(q *waitingroom.Queue) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            value := c.Request().Header.Get(QueueTokenHeader)
            if value == "" {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "queue token required"})
            }
            switch err := q.Validate(value); {
            case err == nil:
                return next(c)
            case errors.Is(err, waitingroom.ErrTokenExpired):
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "queue token expired, rejoin the queue"})
            case errors.Is(err, waitingroom.ErrTokenNotActive):
                return c.JSON(http.StatusForbidden, echo.Map{"error": "not yet admitted, keep waiting"})
            default:
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue validation failed"})
            }
        }
    }
}
