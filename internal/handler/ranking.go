package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/concert-reservation/internal/ranking"
    "github.com/iliyamo/concert-reservation/internal/repository"
)

// defaultRankingSize caps the leaderboard when the client does not ask
// for a specific size.
const defaultRankingSize = 10

// RankingHandler serves the sale-velocity leaderboard.
type RankingHandler struct {
    Rankings *ranking.Cache
    Concerts *repository.ConcertRepo
    Log      zerolog.Logger
}

func NewRankingHandler(cache *ranking.Cache, concerts *repository.ConcertRepo, log zerolog.Logger) *RankingHandler {
    return &RankingHandler{Rankings: cache, Concerts: concerts, Log: log}
}

type rankedConcert struct {
    Rank      int    `json:"rank"`
    ConcertID uint64 `json:"concert_id"`
    Title     string `json:"title,omitempty"`
    Score     int    `json:"score"`
}

// Top returns the hottest concerts by recent confirmed sales. The list
// is served from the in-memory cache; titles are joined in afterwards
// and missing titles do not fail the request.
func (h *RankingHandler) Top(c echo.Context) error {
    n := defaultRankingSize
    if raw := c.QueryParam("limit"); raw != "" {
        parsed, err := strconv.Atoi(raw)
        if err != nil || parsed < 1 || parsed > 100 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be 1..100"})
        }
        n = parsed
    }

    items := h.Rankings.TopN(n)
    ids := make([]uint64, 0, len(items))
    for _, it := range items {
        ids = append(ids, it.ItemID)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    titles, err := h.Concerts.Titles(ctx, ids)
    if err != nil {
        h.Log.Warn().Err(err).Msg("ranking title lookup failed")
        titles = nil
    }

    out := make([]rankedConcert, 0, len(items))
    for _, it := range items {
        out = append(out, rankedConcert{
            Rank:      it.Rank,
            ConcertID: it.ItemID,
            Title:     titles[it.ItemID],
            Score:     it.Score,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"rankings": out})
}
