package cache

import "time"

// Policy decides whether and how long results are cached.
type Policy struct {
	// DefaultTTL applies when a call does not override it. Zero
	// disables caching.
	DefaultTTL time.Duration

	// MaxTTL clamps any TTL, including overrides. Zero means no cap.
	MaxTTL time.Duration

	// Disabled switches caching off regardless of TTLs.
	Disabled bool
}

// DefaultPolicy caches for five minutes with a one hour cap.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
	}
}

// NoCachePolicy disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{Disabled: true}
}

// ShouldCache reports whether this policy stores anything at all.
func (p Policy) ShouldCache() bool {
	return !p.Disabled && p.DefaultTTL > 0
}

// EffectiveTTL resolves an override against the default and the cap.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
