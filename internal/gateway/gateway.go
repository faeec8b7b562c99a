package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"murmur/internal/cache"
	"murmur/internal/middleware"
	"murmur/internal/models"
)

// OpError is a typed error carried in a result body. Access and
// validation failures on an otherwise well-formed request surface here
// instead of as transport status codes.
type OpError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the body of one executed operation.
type Result struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []OpError       `json:"errors,omitempty"`
}

// Gateway routes persisted-operation requests to registered handlers.
type Gateway struct {
	env       string
	ops       map[string]*Operation
	byDoc     map[string]*Operation
	persisted map[string]string
	cache     *cache.ResponseCache
}

// New builds a Gateway. env selects the allow-list posture: production
// accepts persisted keys only, other environments also accept raw
// operation names and expose introspection.
func New(env string, responseCache *cache.ResponseCache) *Gateway {
	return &Gateway{
		env:       env,
		ops:       make(map[string]*Operation),
		byDoc:     make(map[string]*Operation),
		persisted: make(map[string]string),
		cache:     responseCache,
	}
}

// Register adds an operation to the registry. Registering two
// operations with the same name is a programming error.
func (g *Gateway) Register(op *Operation) {
	if _, exists := g.ops[op.Name]; exists {
		panic(fmt.Sprintf("gateway: operation %q registered twice", op.Name))
	}
	if op.Document == "" {
		op.Document = string(op.Kind) + " " + op.Name
	}
	g.ops[op.Name] = op
	g.byDoc[op.Document] = op
}

func (g *Gateway) production() bool {
	return g.env == "production" || g.env == "prod"
}

// Resolve maps an incoming request to a registered operation.
// Production accepts only persisted keys; a raw operation name is
// rejected outright. Other environments accept both.
func (g *Gateway) Resolve(key, operationName string) (*Operation, error) {
	if key != "" {
		doc, ok := g.persisted[key]
		if !ok {
			return nil, models.NewNotFoundError("unknown persisted operation")
		}
		op, ok := g.byDoc[doc]
		if !ok {
			return nil, models.NewKeyNotFoundError("persisted key is not bound to a registered operation")
		}
		return op, nil
	}

	if g.production() {
		return nil, models.NewPersistedOperationOnlyError()
	}

	op, ok := g.ops[operationName]
	if !ok {
		return nil, models.NewNotFoundError("unknown operation")
	}
	return op, nil
}

// Execute runs a resolved operation. Query results flow through the
// response cache under the operation's policy; mutations always hit
// their handler. Access and domain failures come back as body errors
// with a nil transport error.
func (g *Gateway) Execute(ctx context.Context, op *Operation, req *Request) (*Result, error) {
	if op.Capability == CapabilityAuthenticated && req.User == nil {
		middleware.GatewayOperations.WithLabelValues(op.Name, "unauthorized").Inc()
		return &Result{Errors: []OpError{{
			Message: "authentication required",
			Code:    models.CodeUnauthorized,
		}}}, nil
	}

	var (
		data json.RawMessage
		err  error
	)
	if op.Kind == KindQuery && g.cache != nil {
		data, err = g.cache.Fetch(ctx, op.Name, req.Variables, req.SessionID, func(ctx context.Context) (json.RawMessage, error) {
			return runHandler(ctx, op, req)
		})
	} else {
		data, err = runHandler(ctx, op, req)
	}

	if err != nil {
		appErr := models.AsAppError(err)
		if appErr.Code == models.CodeInternal {
			middleware.GatewayOperations.WithLabelValues(op.Name, "error").Inc()
			slog.Error("operation failed", "operation", op.Name, "error", err)
			return nil, appErr
		}
		middleware.GatewayOperations.WithLabelValues(op.Name, "rejected").Inc()
		return &Result{Errors: []OpError{{Message: appErr.Message, Code: appErr.Code}}}, nil
	}

	middleware.GatewayOperations.WithLabelValues(op.Name, "ok").Inc()
	return &Result{Data: data}, nil
}

func runHandler(ctx context.Context, op *Operation, req *Request) (json.RawMessage, error) {
	value, err := op.Handler(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

// OperationInfo is one introspection entry.
type OperationInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Capability string `json:"capability"`
	Document   string `json:"document"`
}

// Introspect lists registered operations. Available outside production
// only; the production refusal here is a backstop, the HTTP layer does
// not route introspection in production at all.
func (g *Gateway) Introspect() ([]OperationInfo, error) {
	if g.production() {
		return nil, models.NewNotFoundError("unknown operation")
	}
	infos := make([]OperationInfo, 0, len(g.ops))
	for _, op := range g.ops {
		infos = append(infos, OperationInfo{
			Name:       op.Name,
			Kind:       string(op.Kind),
			Capability: string(op.Capability),
			Document:   op.Document,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
