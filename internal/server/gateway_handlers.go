package server

import (
	"encoding/json"

	"murmur/internal/gateway"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// operationRequest is the wire shape of one gateway call. Clients send
// either a persisted key or, outside production, a raw operation name.
type operationRequest struct {
	Key       string            `json:"key"`
	Operation string            `json:"operation"`
	Variables gateway.Variables `json:"variables"`
}

// introspectionOperation is the reserved name listing the registry.
const introspectionOperation = "__operations"

// ExecuteOperation is the single entry point for gateway calls. GET
// carries the request in query parameters so persisted queries are
// CDN-friendly; POST carries a JSON body.
func (s *Server) ExecuteOperation(c *fiber.Ctx) error {
	req, err := parseOperationRequest(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("malformed operation request"))
	}

	// Introspection is served outside production only. In production the
	// name falls through to the allow-list like any other raw operation.
	if req.Key == "" && req.Operation == introspectionOperation && !s.config.IsProduction() {
		infos, err := s.gateway.Introspect()
		if err != nil {
			appErr := models.AsAppError(err)
			return models.RespondWithError(c, models.StatusForCode(appErr.Code), appErr)
		}
		return c.JSON(fiber.Map{"operations": infos})
	}

	op, err := s.gateway.Resolve(req.Key, req.Operation)
	if err != nil {
		appErr := models.AsAppError(err)
		return models.RespondWithError(c, models.StatusForCode(appErr.Code), appErr)
	}

	result, err := s.gateway.Execute(c.UserContext(), op, &gateway.Request{
		Variables: req.Variables,
		User:      currentUser(c),
		SessionID: sessionID(c),
	})
	if err != nil {
		appErr := models.AsAppError(err)
		return models.RespondWithError(c, models.StatusForCode(appErr.Code), appErr)
	}
	return c.JSON(result)
}

func parseOperationRequest(c *fiber.Ctx) (*operationRequest, error) {
	var req operationRequest
	if c.Method() == fiber.MethodGet {
		req.Key = c.Query("key")
		req.Operation = c.Query("operation")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return nil, err
			}
		}
		return &req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("sessionID").(string)
	return id
}
