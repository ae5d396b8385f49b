package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/model"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

func queueCtx(method, path string, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, path, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uid)
    return c, rec
}

func TestQueueJoinReturnsPosition(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    room := waitingroom.New(time.Hour, clk, zerolog.Nop())
    h := NewQueueHandler(room)

    // Two users ahead of the caller.
    _, err := room.IssueOrGet(1)
    require.NoError(t, err)
    _, err = room.IssueOrGet(2)
    require.NoError(t, err)

    c, rec := queueCtx(http.MethodPost, "/v1/queue/token", 3)
    require.NoError(t, h.Join(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        Token    string `json:"token"`
        Status   string `json:"status"`
        Position int    `json:"position"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.NotEmpty(t, resp.Token)
    assert.Equal(t, string(model.TokenWaiting), resp.Status)
    assert.Equal(t, 3, resp.Position)

    // Joining again returns the same token, same place in line.
    c2, rec2 := queueCtx(http.MethodPost, "/v1/queue/token", 3)
    require.NoError(t, h.Join(c2))
    var again struct {
        Token    string `json:"token"`
        Position int    `json:"position"`
    }
    require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &again))
    assert.Equal(t, resp.Token, again.Token)
    assert.Equal(t, 3, again.Position)
}

func TestQueueJoinAfterAdmission(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    room := waitingroom.New(time.Hour, clk, zerolog.Nop())
    h := NewQueueHandler(room)

    _, err := room.IssueOrGet(7)
    require.NoError(t, err)
    require.Equal(t, 1, room.ActivateBatch(10))

    c, rec := queueCtx(http.MethodPost, "/v1/queue/token", 7)
    require.NoError(t, h.Join(c))

    var resp struct {
        Status    string `json:"status"`
        Position  int    `json:"position"`
        ExpiresAt string `json:"expires_at"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, string(model.TokenActive), resp.Status)
    assert.Zero(t, resp.Position, "admitted users hold no place in line")
    assert.Equal(t, "2026-03-01T13:00:00Z", resp.ExpiresAt)
}

func TestQueuePosition(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    room := waitingroom.New(time.Hour, clk, zerolog.Nop())
    h := NewQueueHandler(room)

    for uid := uint64(1); uid <= 4; uid++ {
        _, err := room.IssueOrGet(uid)
        require.NoError(t, err)
    }

    c, rec := queueCtx(http.MethodGet, "/v1/queue/position", 4)
    require.NoError(t, h.Position(c))

    var resp struct {
        Position int `json:"position"`
        Waiting  int `json:"waiting"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, 4, resp.Position)
    assert.Equal(t, 4, resp.Waiting)
}

func TestQueueJoinUnauthorized(t *testing.T) {
    room := waitingroom.New(time.Hour, clock.System(), zerolog.Nop())
    h := NewQueueHandler(room)

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/queue/token", nil)
    rec := httptest.NewRecorder()
    require.NoError(t, h.Join(e.NewContext(req, rec)))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
