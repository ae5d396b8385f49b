// Package waitingroom implements the admission queue that throttles how
// many users may act against the booking endpoints concurrently.  Users
// join by obtaining a WAITING token; a background driver promotes tokens
// to ACTIVE in creation order, and the gatekeeper middleware validates
// ACTIVE tokens on every protected call.
package waitingroom

import (
    "crypto/rand"
    "encoding/hex"
    "errors"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/model"
)

// Sentinel errors surfaced by Validate.  Handlers translate these into
// "not yet allowed / retry" responses.
var (
    ErrTokenNotActive = errors.New("queue token not active")
    ErrTokenExpired   = errors.New("queue token expired")
)

// Queue owns the waiting/active token lifecycle.  All state lives behind
// one mutex: issuance is an atomic find-or-create, activation selects a
// stable prefix of the waiting order, and both expiry paths (lazy Validate
// and eager SweepExpired) share the same deadline comparison.
type Queue struct {
    mu sync.Mutex

    sessionTTL time.Duration
    clk        clock.Clock
    log        zerolog.Logger

    byUser  map[uint64]*model.QueueToken // at most one non-EXPIRED token per user
    byValue map[string]*model.QueueToken
    waiting []*model.QueueToken // creation order; WAITING and promoted entries
}

// New constructs a Queue.  sessionTTL is the active-session duration
// stamped on promotion.
func New(sessionTTL time.Duration, clk clock.Clock, log zerolog.Logger) *Queue {
    return &Queue{
        sessionTTL: sessionTTL,
        clk:        clk,
        log:        log,
        byUser:     make(map[uint64]*model.QueueToken),
        byValue:    make(map[string]*model.QueueToken),
    }
}

// IssueOrGet atomically returns the user's existing non-expired token or
// creates a new WAITING one.  Dedup is the success path: concurrent calls
// for the same user all observe the same token, never a duplicate.
func (q *Queue) IssueOrGet(userID uint64) (model.QueueToken, error) {
    q.mu.Lock()
    defer q.mu.Unlock()

    now := q.clk.Now()
    if tok, ok := q.byUser[userID]; ok {
        // An ACTIVE token past its deadline is retired here so the user
        // is not locked out of re-joining until the next sweep.
        if tok.ActiveExpired(now) {
            q.expireLocked(tok)
        } else {
            return *tok, nil
        }
    }

    value, err := randomToken(16)
    if err != nil {
        return model.QueueToken{}, err
    }
    tok := &model.QueueToken{
        Value:     value,
        UserID:    userID,
        Status:    model.TokenWaiting,
        CreatedAt: now,
    }
    q.byUser[userID] = tok
    q.byValue[value] = tok
    q.waiting = append(q.waiting, tok)
    q.log.Debug().Uint64("user_id", userID).Msg("queue token issued")
    return *tok, nil
}

// Position returns the user's 1-based rank among WAITING tokens ordered by
// creation time.  0 means the user is not waiting (no token, or already
// active/expired).
func (q *Queue) Position(userID uint64) int {
    q.mu.Lock()
    defer q.mu.Unlock()

    tok, ok := q.byUser[userID]
    if !ok || tok.Status != model.TokenWaiting {
        return 0
    }
    rank := 0
    for _, w := range q.waiting {
        if w.Status != model.TokenWaiting {
            continue
        }
        rank++
        if w == tok {
            return rank
        }
    }
    return 0
}

// Validate checks that the presented token is ACTIVE and inside its
// session window.  An ACTIVE token past expiry is transitioned to EXPIRED
// as a side effect before ErrTokenExpired is returned; any other state
// yields ErrTokenNotActive.
func (q *Queue) Validate(value string) error {
    q.mu.Lock()
    defer q.mu.Unlock()

    tok, ok := q.byValue[value]
    if !ok || tok.Status != model.TokenActive {
        return ErrTokenNotActive
    }
    if tok.ActiveExpired(q.clk.Now()) {
        q.expireLocked(tok)
        return ErrTokenExpired
    }
    return nil
}

// ActivateBatch promotes up to n earliest-created WAITING tokens to
// ACTIVE, stamping activatedAt and expiresAt together.  The selection is a
// gap-free prefix of the waiting order: an earlier token is never skipped
// while a later one is promoted.  Returns the number promoted.
func (q *Queue) ActivateBatch(n int) int {
    q.mu.Lock()
    defer q.mu.Unlock()

    if n <= 0 {
        return 0
    }
    now := q.clk.Now()
    expires := now.Add(q.sessionTTL)
    promoted := 0
    kept := q.waiting[:0]
    for _, tok := range q.waiting {
        if tok.Status != model.TokenWaiting {
            continue // drop promoted/expired leftovers from the slice
        }
        if promoted < n {
            tok.Status = model.TokenActive
            at := now
            exp := expires
            tok.ActivatedAt = &at
            tok.ExpiresAt = &exp
            promoted++
            continue
        }
        kept = append(kept, tok)
    }
    q.waiting = kept
    if promoted > 0 {
        q.log.Info().Int("promoted", promoted).Int("still_waiting", len(kept)).Msg("admission batch activated")
    }
    return promoted
}

// SweepExpired eagerly retires ACTIVE tokens whose session window has
// passed and returns the number processed.  Running it with nothing
// expired is a no-op.
func (q *Queue) SweepExpired() int {
    q.mu.Lock()
    defer q.mu.Unlock()

    now := q.clk.Now()
    expired := 0
    for _, tok := range q.byUser {
        if tok.ActiveExpired(now) {
            q.expireLocked(tok)
            expired++
        }
    }
    if expired > 0 {
        q.log.Info().Int("expired", expired).Msg("expired queue tokens swept")
    }
    return expired
}

// WaitingCount returns how many tokens are currently WAITING.
func (q *Queue) WaitingCount() int {
    q.mu.Lock()
    defer q.mu.Unlock()
    n := 0
    for _, w := range q.waiting {
        if w.Status == model.TokenWaiting {
            n++
        }
    }
    return n
}

// expireLocked transitions a token to its terminal state and frees the
// user's admission slot.  Caller holds q.mu.
func (q *Queue) expireLocked(tok *model.QueueToken) {
    tok.Status = model.TokenExpired
    delete(q.byUser, tok.UserID)
    delete(q.byValue, tok.Value)
}

// randomToken returns a hex string from n bytes of secure random data.
func randomToken(n int) (string, error) {
    b := make([]byte, n)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
