package ranking

import (
    "context"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
)

// Mirror pushes recalculated scores into a redis sorted set so other
// processes (or a cache-warmed read path) can serve rankings without
// talking to this instance.  Strictly best-effort: every failure is
// logged and swallowed, the in-memory cache stays authoritative.
type Mirror struct {
    rdb *redis.Client
    key string
    ttl time.Duration
    log zerolog.Logger
}

// NewMirror returns a Mirror writing to the given sorted-set key.  rdb may
// be nil, in which case Publish is a no-op.
func NewMirror(rdb *redis.Client, key string, ttl time.Duration, log zerolog.Logger) *Mirror {
    return &Mirror{rdb: rdb, key: key, ttl: ttl, log: log}
}

// Publish replaces the sorted set with the given ranking snapshot.
func (m *Mirror) Publish(ctx context.Context, items []Ranked) {
    if m == nil || m.rdb == nil {
        return
    }
    members := make([]redis.Z, 0, len(items))
    for _, it := range items {
        members = append(members, redis.Z{
            Score:  float64(it.Score),
            Member: strconv.FormatUint(it.ItemID, 10),
        })
    }
    pipe := m.rdb.TxPipeline()
    pipe.Del(ctx, m.key)
    if len(members) > 0 {
        pipe.ZAdd(ctx, m.key, members...)
    }
    if m.ttl > 0 {
        pipe.Expire(ctx, m.key, m.ttl)
    }
    if _, err := pipe.Exec(ctx); err != nil {
        m.log.Warn().Err(err).Str("key", m.key).Msg("failed to mirror ranking snapshot to redis")
    }
}
