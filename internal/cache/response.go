package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"murmur/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ResponseCache caches serialized operation results keyed by operation
// name, canonical arguments, and (for private entries) the session.
type ResponseCache struct {
	rdb      *redis.Client
	policies map[string]Policy
}

// NewResponseCache builds a cache over rdb. A nil client disables
// caching; every Fetch falls through to its fill function.
func NewResponseCache(rdb *redis.Client, policies map[string]Policy) *ResponseCache {
	if policies == nil {
		policies = map[string]Policy{}
	}
	return &ResponseCache{rdb: rdb, policies: policies}
}

// PolicyFor returns the registered policy for an operation, or
// DefaultPolicy when none is registered.
func (rc *ResponseCache) PolicyFor(operation string) Policy {
	if p, ok := rc.policies[operation]; ok {
		return p
	}
	return DefaultPolicy
}

// Key derives the cache key for an operation invocation. Arguments are
// serialized through encoding/json, which sorts map keys, so two
// invocations with the same arguments in any order share a key.
func (rc *ResponseCache) Key(operation string, args map[string]any, sessionID string) (string, error) {
	canonical, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("canonicalize args: %w", err)
	}
	sum := sha256.Sum256(canonical)
	key := fmt.Sprintf("op:%s:%s", operation, hex.EncodeToString(sum[:]))
	if rc.PolicyFor(operation).Scope == ScopePrivate {
		key += ":" + sessionID
	}
	return key, nil
}

// Fetch returns the cached result for the invocation when present and
// fresh, otherwise runs fill and stores its result. Private operations
// with no session always execute directly. Redis failures are treated
// as misses so the cache never blocks a response.
func (rc *ResponseCache) Fetch(ctx context.Context, operation string, args map[string]any, sessionID string, fill func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	policy := rc.PolicyFor(operation)
	if rc.rdb == nil || (policy.Scope == ScopePrivate && sessionID == "") {
		return fill(ctx)
	}

	key, err := rc.Key(operation, args, sessionID)
	if err != nil {
		return fill(ctx)
	}

	val, err := rc.rdb.Get(ctx, key).Result()
	if err == nil {
		middleware.CacheLookups.WithLabelValues(operation, "hit").Inc()
		return json.RawMessage(val), nil
	}
	if err != redis.Nil {
		slog.Warn("response cache read failed", "operation", operation, "error", err)
	}
	middleware.CacheLookups.WithLabelValues(operation, "miss").Inc()

	data, err := fill(ctx)
	if err != nil {
		return nil, err
	}

	ttl := policy.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := rc.rdb.Set(ctx, key, []byte(data), ttl).Err(); err != nil {
		slog.Warn("response cache write failed", "operation", operation, "error", err)
	}
	return data, nil
}
