package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Identity is resolved by the auth layer; the booking core only
// ever sees the numeric ID.  PointBalance is the ledger balance debited
// when a reservation is confirmed.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  PointBalance – spendable points in cents.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    PointBalance uint64    // users.point_balance
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
