package config

import (
    "time"
)

// CacheConfig controls the redis response cache in front of the ranking
// endpoint.  Rankings are recalculated once per sweep interval, so a TTL
// shorter than the sweep keeps the cache fresh without hammering the
// in-process store on every read.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: envBool("CACHE_ENABLED", true),
        TTL:     envDur("CACHE_TTL", 30*time.Second),
        Prefix:  envStr("CACHE_PREFIX", "cache"),
    }
}
