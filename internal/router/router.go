// Package router wires HTTP routes to their handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/concert-reservation/internal/config"
    "github.com/iliyamo/concert-reservation/internal/handler"
    "github.com/iliyamo/concert-reservation/internal/middleware"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

// Deps carries everything route registration needs. The redis client may
// be nil, in which case rate limiting and response caching are skipped.
type Deps struct {
    Cfg   config.Config
    Auth  *handler.AuthHandler
    Queue *handler.QueueHandler
    Res   *handler.ReservationHandler
    Rank  *handler.RankingHandler
    Room  *waitingroom.Queue
    Redis *redis.Client
}

// Register sets up the full route table.
//
// Browsing, auth and the waiting room itself are open to any
// authenticated user. Claiming and confirming seats additionally pass
// the admission gate: they require an ACTIVE waiting-room token in the
// X-Queue-Token header.
func Register(e *echo.Echo, d Deps) {
    e.GET("/healthz", handler.Health)

    a := e.Group("/v1/auth")
    a.POST("/register", d.Auth.Register)
    a.POST("/login", d.Auth.Login)

    // Rankings are public and cacheable: one hot leaderboard served to
    // everyone.
    rankings := []echo.MiddlewareFunc{}
    if d.Redis != nil {
        rankings = append(rankings, middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis))
    }
    e.GET("/v1/rankings", d.Rank.Top, rankings...)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(d.Cfg.JWTSecret))

    auth.GET("/me", d.Auth.Me)
    auth.GET("/reservations", d.Res.MyReservations)
    auth.GET("/schedules/:id/seats", d.Res.ListSeats)

    // Joining the queue is the one endpoint a rush hammers hardest, so
    // it carries the token-bucket limiter when redis is available.
    join := []echo.MiddlewareFunc{}
    if d.Redis != nil {
        join = append(join, middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
    }
    auth.POST("/queue/token", d.Queue.Join, join...)
    auth.GET("/queue/position", d.Queue.Position)

    // Booking endpoints sit behind the admission gate.
    gated := auth.Group("")
    gated.Use(middleware.AdmissionGate(d.Room))
    gated.POST("/schedules/:id/seats/:seat_id/claim", d.Res.Claim)
    gated.POST("/reservations/:id/confirm", d.Res.Confirm)
    gated.DELETE("/reservations/:id", d.Res.Cancel)
}
