package repository

import (
    "context"
    "database/sql"
    "fmt"
)

// LedgerRepo debits and credits user point balances.  Debit is the charge
// step the seat lock runs during confirmation: balance check, balance
// update and ledger entry commit or roll back as one transaction.
type LedgerRepo struct {
    db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to the database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Debit withdraws amount points from the user.  Returns
// ErrInsufficientPoints without mutating anything when the balance is too
// low.  The row lock taken by FOR UPDATE serializes concurrent debits of
// the same user.
func (r *LedgerRepo) Debit(ctx context.Context, userID uint64, amount uint32, reference string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin debit tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var balance uint64
    err = tx.QueryRowContext(ctx,
        `SELECT point_balance FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&balance)
    if err != nil {
        return fmt.Errorf("load balance for user %d: %w", userID, err)
    }
    if balance < uint64(amount) {
        return ErrInsufficientPoints
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE users SET point_balance = point_balance - ? WHERE id = ?`, amount, userID); err != nil {
        return fmt.Errorf("debit user %d: %w", userID, err)
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO point_ledger (user_id, delta_cents, reference) VALUES (?,?,?)`,
        userID, -int64(amount), reference); err != nil {
        return fmt.Errorf("record ledger entry: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit debit: %w", err)
    }
    committed = true
    return nil
}

// Credit adds points to the user, recording a ledger entry.  Used for
// top-ups and compensating refunds.
func (r *LedgerRepo) Credit(ctx context.Context, userID uint64, amount uint32, reference string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin credit tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := tx.ExecContext(ctx,
        `UPDATE users SET point_balance = point_balance + ? WHERE id = ?`, amount, userID); err != nil {
        return fmt.Errorf("credit user %d: %w", userID, err)
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO point_ledger (user_id, delta_cents, reference) VALUES (?,?,?)`,
        userID, int64(amount), reference); err != nil {
        return fmt.Errorf("record ledger entry: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit credit: %w", err)
    }
    committed = true
    return nil
}
