package cache

import "time"

// Scope controls whether a cached value is shared across callers or
// partitioned by the caller's session.
type Scope string

const (
	// ScopePublic values are shared by every caller.
	ScopePublic Scope = "PUBLIC"
	// ScopePrivate values are partitioned by session; anonymous callers
	// bypass the cache entirely.
	ScopePrivate Scope = "PRIVATE"
)

const (
	// DefaultTTL applies to operations without an explicit policy entry.
	DefaultTTL = 30 * time.Second
	// ListTTL applies to public list feeds where staleness is cheap.
	ListTTL = 180 * time.Second
)

// Policy describes how one operation's responses are cached. Entries
// expire by TTL only; mutations never invalidate cached entries.
type Policy struct {
	Scope Scope
	TTL   time.Duration
}

// DefaultPolicy is used for operations with no registered policy.
var DefaultPolicy = Policy{Scope: ScopePublic, TTL: DefaultTTL}
