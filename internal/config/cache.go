package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware that
// fronts the scripture catalog.  When Enabled is false or no Redis client
// is configured, caching is disabled.  KeyStrategy determines which parts
// of the request contribute to the cache key.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    v := newViper()
    ttl := v.GetDuration("CACHE_TTL")
    if ttl <= 0 {
        ttl = time.Second
    }
    return CacheConfig{
        Enabled:      v.GetBool("CACHE_ENABLED"),
        Methods:      parseMethods(v.GetString("CACHE_METHODS")),
        TTL:          ttl,
        KeyStrategy:  v.GetString("CACHE_KEY_STRATEGY"),
        Prefix:       v.GetString("CACHE_PREFIX"),
        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
