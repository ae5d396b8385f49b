package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

func gateRequest(t *testing.T, q *waitingroom.Queue, token string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/protected", nil)
    if token != "" {
        req.Header.Set(QueueTokenHeader, token)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    handler := AdmissionGate(q)(func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    })
    require.NoError(t, handler(c))
    return rec
}

func TestAdmissionGate(t *testing.T) {
    clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
    q := waitingroom.New(time.Hour, clk, zerolog.Nop())

    tok, err := q.IssueOrGet(1)
    require.NoError(t, err)

    assert.Equal(t, http.StatusForbidden, gateRequest(t, q, "").Code, "missing token")
    assert.Equal(t, http.StatusForbidden, gateRequest(t, q, tok.Value).Code, "waiting token not admitted")
    assert.Equal(t, http.StatusForbidden, gateRequest(t, q, "bogus").Code, "unknown token")

    require.Equal(t, 1, q.ActivateBatch(1))
    assert.Equal(t, http.StatusOK, gateRequest(t, q, tok.Value).Code, "active token passes")

    clk.Advance(2 * time.Hour)
    assert.Equal(t, http.StatusUnauthorized, gateRequest(t, q, tok.Value).Code, "expired token told to rejoin")
    assert.Equal(t, http.StatusForbidden, gateRequest(t, q, tok.Value).Code, "retired token no longer recognised")
}
