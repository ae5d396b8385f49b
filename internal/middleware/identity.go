package middleware

// identity.go holds helpers shared across middleware files.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// userID returns the authenticated user id stored in context by JWTAuth,
// or "anon" when the request carries no session.
func userID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        return fmt.Sprint(v)
    }
    return "anon"
}
