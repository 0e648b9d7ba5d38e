package cache

import "time"

// Default limits.
const (
	DefaultMaxAge     = 60 * time.Second
	DefaultMaxEntries = 100
)

// Policy configures expiry and capacity.
type Policy struct {
	// MaxAge is how long an entry may be served after creation.
	// If zero, DefaultMaxAge is used.
	MaxAge time.Duration `yaml:"max_age"`

	// MaxEntries bounds the number of stored entries.
	// If zero, DefaultMaxEntries is used.
	MaxEntries int `yaml:"max_entries"`

	// StrictKeys folds includeAttributes and maxTextLength into the key.
	// Off by default: queries that differ only in those options share a slot.
	StrictKeys bool `yaml:"strict_keys"`
}

// DefaultPolicy returns the default policy.
// MaxAge: 60 seconds, MaxEntries: 100, StrictKeys: false
func DefaultPolicy() Policy {
	return Policy{
		MaxAge:     DefaultMaxAge,
		MaxEntries: DefaultMaxEntries,
	}
}

// withDefaults fills zero or negative limits.
func (p Policy) withDefaults() Policy {
	if p.MaxAge <= 0 {
		p.MaxAge = DefaultMaxAge
	}
	if p.MaxEntries <= 0 {
		p.MaxEntries = DefaultMaxEntries
	}
	return p
}

// Expired reports whether an entry created at createdAt is stale at now.
// An entry exactly MaxAge old is still fresh.
func (p Policy) Expired(createdAt, now time.Time) bool {
	return now.Sub(createdAt) > p.withDefaults().MaxAge
}
