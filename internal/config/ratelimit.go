package config

import "time"

type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
    v := newViper()
    def := RateLimitConfig{
        Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
        Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
        RefillTokens:   v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
        RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
        TTL:            v.GetDuration("RATE_LIMIT_TTL"),
        KeyStrategy:    v.GetString("RATE_LIMIT_KEY_STRATEGY"),
        Prefix:         v.GetString("RATE_LIMIT_PREFIX"),
        Debug:          v.GetBool("RATE_LIMIT_DEBUG"),
    }
    if b := v.GetInt("RATE_LIMIT_BURST"); b > 0 { def.Capacity = b }
    if every := v.GetDuration("RATE_LIMIT_REFILL_EVERY"); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    return def.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
    if c.Capacity < 1 { c.Capacity = 1 }
    if c.RefillTokens < 1 { c.RefillTokens = 1 }
    if c.RefillInterval <= 0 { c.RefillInterval = time.Second }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL { c.TTL = minTTL }
    return c
}
