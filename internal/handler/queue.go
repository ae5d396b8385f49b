package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-reservation/internal/model"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

// QueueHandler exposes the waiting-room over HTTP.
type QueueHandler struct {
    Queue *waitingroom.Queue
}

func NewQueueHandler(q *waitingroom.Queue) *QueueHandler {
    return &QueueHandler{Queue: q}
}

type queueTokenResp struct {
    Token     string            `json:"token"`
    Status    model.TokenStatus `json:"status"`
    Position  int               `json:"position,omitempty"`
    ExpiresAt string            `json:"expires_at,omitempty"`
}

// Join puts the caller into the waiting room. Joining twice returns the
// same token, so refresh-hammering the endpoint cannot move a user around
// in line.
func (h *QueueHandler) Join(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    tok, err := h.Queue.IssueOrGet(uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue queue token"})
    }

    resp := queueTokenResp{Token: tok.Value, Status: tok.Status}
    if tok.Status == model.TokenWaiting {
        resp.Position = h.Queue.Position(uid)
    }
    if tok.ExpiresAt != nil {
        resp.ExpiresAt = tok.ExpiresAt.UTC().Format(time.RFC3339)
    }
    return c.JSON(http.StatusOK, resp)
}

// Position reports where the caller stands in line. A position of zero
// means the caller is not waiting (either admitted already or never joined).
func (h *QueueHandler) Position(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "position": h.Queue.Position(uid),
        "waiting":  h.Queue.WaitingCount(),
    })
}
