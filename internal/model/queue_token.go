package model

import "time"

// TokenStatus enumerates the lifecycle states of a waiting-room token.
type TokenStatus string

const (
    TokenWaiting TokenStatus = "WAITING" // queued, not yet admitted
    TokenActive  TokenStatus = "ACTIVE"  // admitted, may perform protected calls
    TokenExpired TokenStatus = "EXPIRED" // terminal; a new token may be issued
)

// QueueToken is a user's place in the waiting room.  A user holds at most
// one non-EXPIRED token at a time.  ActivatedAt and ExpiresAt are stamped
// together when the token is promoted; both are nil while WAITING.
//
// Fields:
//  Value       – opaque unique token string handed to the client.
//  UserID      – owning user.
//  Status      – WAITING, ACTIVE or EXPIRED.
//  CreatedAt   – when the token entered the waiting room.
//  ActivatedAt – when the token was promoted (nil while WAITING).
//  ExpiresAt   – hard deadline of the active session (nil while WAITING).
type QueueToken struct {
    Value       string      `json:"token"`
    UserID      uint64      `json:"user_id"`
    Status      TokenStatus `json:"status"`
    CreatedAt   time.Time   `json:"created_at"`
    ActivatedAt *time.Time  `json:"activated_at,omitempty"`
    ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// ActiveExpired reports whether an ACTIVE token has passed its deadline at
// the given instant.  Both the lazy validation path and the sweep use this
// single comparison so they can never disagree about liveness.
func (t *QueueToken) ActiveExpired(now time.Time) bool {
    return t.Status == TokenActive && t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
