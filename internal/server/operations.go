package server

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/gateway"
	"murmur/internal/service"
)

// cachePolicies is the per-operation response cache table. List feeds
// tolerate three minutes of staleness; everything else uses the default.
// Entries expire by TTL only.
func cachePolicies() map[string]cache.Policy {
	return map[string]cache.Policy{
		"currentUser":        {Scope: cache.ScopePrivate, TTL: cache.DefaultTTL},
		"myNote":             {Scope: cache.ScopePrivate, TTL: cache.DefaultTTL},
		"messagesFromCursor": {Scope: cache.ScopePrivate, TTL: cache.DefaultTTL},
		"userByUsername":     {Scope: cache.ScopePublic, TTL: cache.ListTTL},
		"notesFromCursor":    {Scope: cache.ScopePublic, TTL: cache.ListTTL},
	}
}

// registerOperations binds every gateway operation to its service call.
func (s *Server) registerOperations() {
	g := s.gateway

	g.Register(&gateway.Operation{
		Name:       "currentUser",
		Kind:       gateway.KindQuery,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.userService.GetByID(ctx, req.UserID())
		},
	})

	g.Register(&gateway.Operation{
		Name:       "userByUsername",
		Kind:       gateway.KindQuery,
		Capability: gateway.CapabilityPublic,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.userService.GetByUsername(ctx, req.Variables.String("username"))
		},
	})

	g.Register(&gateway.Operation{
		Name:       "messagesFromCursor",
		Kind:       gateway.KindQuery,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.messageService.Inbox(ctx, req.UserID(), req.Variables.Cursor("cursor"))
		},
	})

	g.Register(&gateway.Operation{
		Name:       "notesFromCursor",
		Kind:       gateway.KindQuery,
		Capability: gateway.CapabilityPublic,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.noteService.Feed(ctx, req.Variables.Cursor("cursor"))
		},
	})

	g.Register(&gateway.Operation{
		Name:       "myNote",
		Kind:       gateway.KindQuery,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.noteService.Mine(ctx, req.UserID())
		},
	})

	g.Register(&gateway.Operation{
		Name:       "sendMessage",
		Kind:       gateway.KindMutation,
		Capability: gateway.CapabilityPublic,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.messageService.Send(ctx, service.SendMessageInput{
				ReceiverUsername: req.Variables.String("username"),
				Question:         req.Variables.String("question"),
				Content:          req.Variables.String("content"),
				SenderID:         req.UserID(),
			})
		},
	})

	g.Register(&gateway.Operation{
		Name:       "deleteMessage",
		Kind:       gateway.KindMutation,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			id := req.Variables.String("id")
			if err := s.messageService.Delete(ctx, req.UserID(), id); err != nil {
				return nil, err
			}
			return map[string]any{"id": id}, nil
		},
	})

	g.Register(&gateway.Operation{
		Name:       "saveNote",
		Kind:       gateway.KindMutation,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.noteService.Save(ctx, req.UserID(),
				req.Variables.String("content"),
				req.Variables.Bool("isAnonymous"))
		},
	})

	g.Register(&gateway.Operation{
		Name:       "deleteNote",
		Kind:       gateway.KindMutation,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			if err := s.noteService.Delete(ctx, req.UserID()); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		},
	})

	g.Register(&gateway.Operation{
		Name:       "updateProfile",
		Kind:       gateway.KindMutation,
		Capability: gateway.CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *gateway.Request) (any, error) {
			return s.userService.UpdateProfile(ctx, req.UserID(), service.UpdateProfileInput{
				Username:    req.Variables.StringPtr("username"),
				DisplayName: req.Variables.StringPtr("displayName"),
				Bio:         req.Variables.StringPtr("bio"),
				ImageURL:    req.Variables.StringPtr("imageUrl"),
				QuietMode:   req.Variables.BoolPtr("quietMode"),
			})
		},
	})
}
