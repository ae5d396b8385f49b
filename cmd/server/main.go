package main

import (
    "context"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-reservation/internal/clock"
    "github.com/iliyamo/concert-reservation/internal/config"
    "github.com/iliyamo/concert-reservation/internal/database"
    "github.com/iliyamo/concert-reservation/internal/handler"
    "github.com/iliyamo/concert-reservation/internal/logger"
    "github.com/iliyamo/concert-reservation/internal/queue"
    "github.com/iliyamo/concert-reservation/internal/ranking"
    "github.com/iliyamo/concert-reservation/internal/repository"
    "github.com/iliyamo/concert-reservation/internal/router"
    "github.com/iliyamo/concert-reservation/internal/seatlock"
    "github.com/iliyamo/concert-reservation/internal/sweep"
    "github.com/iliyamo/concert-reservation/internal/waitingroom"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments set the environment

    logger.Init()
    log := logger.For("server")

    cfg := config.Load()

    db, err := database.Open(cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("database connection failed")
    }
    defer db.Close()

    rdb := config.NewRedisClient() // nil when unset or unreachable
    if rdb == nil {
        log.Warn().Msg("redis unavailable, rate limiting and caching disabled")
    }

    users := repository.NewUserRepo(db)
    seats := repository.NewSeatRepo(db)
    reservations := repository.NewReservationRepo(db)
    ledger := repository.NewLedgerRepo(db)
    concerts := repository.NewConcertRepo(db)

    clk := clock.System()
    room := waitingroom.New(cfg.ActiveSessionTTL, clk, logger.For("waitingroom"))
    lock := seatlock.New(seats, reservations, cfg.SeatHoldTTL, clk, logger.For("seatlock"))
    rankings := ranking.NewCache(clk, logger.For("ranking"))

    var mirror *ranking.Mirror
    if rdb != nil {
        mirror = ranking.NewMirror(rdb, "rankings:concerts", cfg.RankingWindow, logger.For("ranking-mirror"))
    }

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    runner := sweep.NewRunner(sweep.Config{
        Interval:  cfg.SweepInterval,
        BatchSize: cfg.AdmissionBatchSize,
        Window:    cfg.RankingWindow,
    }, room, lock, seats, rankings, mirror, clk, logger.For("sweep"))
    runner.Start(ctx)

    go queue.StartBookingConsumer(rankings, logger.For("consumer"))

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Deps{
        Cfg:   cfg,
        Auth:  handler.NewAuthHandler(cfg, users),
        Queue: handler.NewQueueHandler(room),
        Res:   handler.NewReservationHandler(lock, seats, reservations, ledger, concerts, rankings, logger.For("reservation")),
        Rank:  handler.NewRankingHandler(rankings, concerts, logger.For("ranking")),
        Room:  room,
        Redis: rdb,
    })

    addr := ":" + cfg.Port
    log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
    if err := e.Start(addr); err != nil {
        log.Fatal().Err(err).Msg("server stopped")
    }
}
