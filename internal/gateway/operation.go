// Package gateway implements the single-endpoint operation gateway: a
// registry of named operations executed through a persisted-operation
// allow-list, with response caching for queries.
package gateway

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/pagination"
)

// Kind separates read operations, which are cacheable, from writes.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Capability is the access level an operation requires.
type Capability string

const (
	// CapabilityPublic operations run for any caller.
	CapabilityPublic Capability = "public"
	// CapabilityAuthenticated operations require a valid session.
	CapabilityAuthenticated Capability = "authenticated"
)

// Request carries one operation invocation.
type Request struct {
	Variables Variables
	// User is the session's resolved user, nil for anonymous callers.
	User *models.User
	// SessionID partitions private cache entries.
	SessionID string
}

// UserID returns the caller's user ID or empty for anonymous callers.
func (r *Request) UserID() string {
	if r.User == nil {
		return ""
	}
	return r.User.ID
}

// HandlerFunc executes one operation and returns its result value.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

// Operation is one registered gateway operation. Document is the
// canonical operation text; its SHA-256 digest is the persisted key
// clients address it by.
type Operation struct {
	Name       string
	Kind       Kind
	Capability Capability
	Document   string
	Handler    HandlerFunc
}

// Variables is the decoded variables object of a request.
type Variables map[string]any

// String returns a string variable, or "" when absent or mistyped.
func (v Variables) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Bool returns a bool variable, or false when absent or mistyped.
func (v Variables) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// StringPtr returns a pointer to a string variable, or nil when the
// variable is absent. Partial-update mutations use it to distinguish
// "leave unchanged" from "set to empty".
func (v Variables) StringPtr(name string) *string {
	raw, ok := v[name]
	if !ok || raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

// BoolPtr returns a pointer to a bool variable, or nil when absent.
func (v Variables) BoolPtr(name string) *bool {
	raw, ok := v[name]
	if !ok || raw == nil {
		return nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil
	}
	return &b
}

// Cursor decodes an optional cursor variable of the shape
// {"id": ..., "orderKey": ...}. A missing variable means first page.
func (v Variables) Cursor(name string) *pagination.Cursor {
	raw, ok := v[name]
	if !ok || raw == nil {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	cur := &pagination.Cursor{}
	if id, ok := obj["id"].(string); ok {
		cur.ID = id
	}
	switch key := obj["orderKey"].(type) {
	case float64:
		cur.OrderKey = int64(key)
	case int64:
		cur.OrderKey = key
	}
	if cur.ID == "" {
		return nil
	}
	return cur
}
