package gateway

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(env string) *Gateway {
	g := New(env, nil)
	g.Register(&Operation{
		Name:       "publicFeed",
		Kind:       KindQuery,
		Capability: CapabilityPublic,
		Handler: func(ctx context.Context, req *Request) (any, error) {
			return map[string]string{"feed": "ok"}, nil
		},
	})
	g.Register(&Operation{
		Name:       "privateView",
		Kind:       KindQuery,
		Capability: CapabilityAuthenticated,
		Handler: func(ctx context.Context, req *Request) (any, error) {
			return map[string]string{"user": req.UserID()}, nil
		},
	})
	g.AddPersisted(HashDocument("query publicFeed"), "query publicFeed")
	return g
}

func TestResolve_ProductionRejectsRawOperationNames(t *testing.T) {
	g := testGateway("production")

	_, err := g.Resolve("", "publicFeed")
	require.Error(t, err)
	assert.Equal(t, models.CodePersistedOperationOnly, models.AsAppError(err).Code)
}

func TestResolve_UnknownPersistedKey(t *testing.T) {
	g := testGateway("production")

	_, err := g.Resolve("deadbeef", "")
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)
}

func TestResolve_KeyBoundToUnregisteredDocument(t *testing.T) {
	g := testGateway("production")
	g.AddPersisted(HashDocument("query removedOperation"), "query removedOperation")

	_, err := g.Resolve(HashDocument("query removedOperation"), "")
	require.Error(t, err)
	assert.Equal(t, models.CodeKeyNotFound, models.AsAppError(err).Code)
}

func TestResolve_PersistedKeyWorksInProduction(t *testing.T) {
	g := testGateway("production")

	op, err := g.Resolve(HashDocument("query publicFeed"), "")
	require.NoError(t, err)
	assert.Equal(t, "publicFeed", op.Name)
}

func TestResolve_DevelopmentAcceptsRawNames(t *testing.T) {
	g := testGateway("development")

	op, err := g.Resolve("", "publicFeed")
	require.NoError(t, err)
	assert.Equal(t, "publicFeed", op.Name)

	_, err = g.Resolve("", "nonsense")
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)
}

func TestExecute_AuthenticatedOperationWithoutUser(t *testing.T) {
	g := testGateway("development")
	op, err := g.Resolve("", "privateView")
	require.NoError(t, err)

	// Auth failure is a body error, not a transport error.
	result, err := g.Execute(context.Background(), op, &Request{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.CodeUnauthorized, result.Errors[0].Code)
	assert.Nil(t, result.Data)
}

func TestExecute_AuthenticatedOperationWithUser(t *testing.T) {
	g := testGateway("development")
	op, err := g.Resolve("", "privateView")
	require.NoError(t, err)

	result, err := g.Execute(context.Background(), op, &Request{
		User: &models.User{ID: "user-1", Username: "alice"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.JSONEq(t, `{"user":"user-1"}`, string(result.Data))
}

func TestExecute_DomainErrorsBecomeBodyErrors(t *testing.T) {
	g := New("development", nil)
	g.Register(&Operation{
		Name:       "failing",
		Kind:       KindMutation,
		Capability: CapabilityPublic,
		Handler: func(ctx context.Context, req *Request) (any, error) {
			return nil, models.NewValidationError("content too long")
		},
	})

	op, err := g.Resolve("", "failing")
	require.NoError(t, err)

	result, err := g.Execute(context.Background(), op, &Request{})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.CodeValidation, result.Errors[0].Code)
	assert.Equal(t, "content too long", result.Errors[0].Message)
}

func TestExecute_InternalErrorsAreTransportErrors(t *testing.T) {
	g := New("development", nil)
	g.Register(&Operation{
		Name:       "broken",
		Kind:       KindQuery,
		Capability: CapabilityPublic,
		Handler: func(ctx context.Context, req *Request) (any, error) {
			return nil, errors.New("connection refused")
		},
	})

	op, err := g.Resolve("", "broken")
	require.NoError(t, err)

	_, err = g.Execute(context.Background(), op, &Request{})
	require.Error(t, err)
	appErr := models.AsAppError(err)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	// Raw error text stays out of the client-facing message.
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestIntrospect_DevOnly(t *testing.T) {
	dev := testGateway("development")
	infos, err := dev.Introspect()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "privateView", infos[0].Name)
	assert.Equal(t, "publicFeed", infos[1].Name)

	prod := testGateway("production")
	_, err = prod.Introspect()
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)
}

func TestVariables_CursorDecoding(t *testing.T) {
	vars := Variables{
		"cursor": map[string]any{"id": "msg-10", "orderKey": float64(1700000000)},
	}

	cur := vars.Cursor("cursor")
	require.NotNil(t, cur)
	assert.Equal(t, "msg-10", cur.ID)
	assert.Equal(t, int64(1700000000), cur.OrderKey)

	assert.Nil(t, Variables{}.Cursor("cursor"))
	assert.Nil(t, Variables{"cursor": nil}.Cursor("cursor"))
	assert.Nil(t, Variables{"cursor": map[string]any{"orderKey": float64(1)}}.Cursor("cursor"))
}
