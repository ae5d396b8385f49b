// Package repository implements MySQL persistence for users, seats,
// reservations, the point ledger and concert metadata.  Sentinel errors
// defined here let handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email that is
// already taken.  Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientPoints is returned by the ledger when a debit would
// overdraw the user's balance.  The seat-confirmation flow treats it as a
// charge failure and aborts the transition.
var ErrInsufficientPoints = errors.New("insufficient point balance")
