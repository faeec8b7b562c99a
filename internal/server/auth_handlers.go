package server

import (
	"errors"
	"time"

	"murmur/internal/models"
	"murmur/internal/oauth"

	"github.com/gofiber/fiber/v2"
)

const (
	stateCookie    = "google_oauth_state"
	verifierCookie = "code_verifier"
	// flowCookieTTL bounds how long a started login may dangle before
	// the callback.
	flowCookieTTL = 10 * time.Minute
)

// GoogleLogin handles GET /login/google. It plants the CSRF state and
// PKCE verifier cookies and redirects to the provider's consent screen.
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	state := oauth.GenerateState()
	verifier := oauth.GenerateVerifier()

	s.setFlowCookie(c, stateCookie, state)
	s.setFlowCookie(c, verifierCookie, verifier)

	return c.Redirect(s.provider.AuthCodeURL(state, verifier), fiber.StatusFound)
}

// GoogleCallback handles GET /login/google/callback. Any tampered or
// half-completed flow ends as a bare 400: the state cookie must match
// the state parameter, and both code and verifier must be present.
// Replay of a consumed code fails at the exchange and also yields 400.
func (s *Server) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	code := c.Query("code")
	storedState := c.Cookies(stateCookie)
	verifier := c.Cookies(verifierCookie)

	if state == "" || code == "" || storedState == "" || verifier == "" || state != storedState {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	s.clearFlowCookie(c, stateCookie)
	s.clearFlowCookie(c, verifierCookie)

	token, err := s.provider.Exchange(c.UserContext(), code, verifier)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderProtocol) {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	profile, err := s.provider.Profile(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderProtocol) {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	session, _, err := s.authService.LoginWithProvider(c.UserContext(), s.provider.Name(), profile)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	s.setSessionCookie(c, session.ID, session.ExpiresAt)
	return c.Redirect(s.config.PostLoginPath, fiber.StatusFound)
}

// Signup handles POST /api/auth/signup.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.authService.SignUp(c.UserContext(), req.Username, req.Password)
	if err != nil {
		appErr := models.AsAppError(err)
		return models.RespondWithError(c, models.StatusForCode(appErr.Code), appErr)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, user, err := s.authService.LoginWithPassword(c.UserContext(), req.Username, req.Password)
	if err != nil {
		appErr := models.AsAppError(err)
		return models.RespondWithError(c, models.StatusForCode(appErr.Code), appErr)
	}

	s.setSessionCookie(c, session.ID, session.ExpiresAt)
	return c.JSON(fiber.Map{"user": user})
}

// Logout handles POST /logout. It revokes the session server-side and
// expires the cookie; repeated logouts are no-ops.
func (s *Server) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(SessionCookie)
	if sessionID != "" {
		if err := s.authService.RevokeSession(c.UserContext(), sessionID); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setSessionCookie(c *fiber.Ctx, sessionID string, expiresAt int64) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Expires:  time.Unix(expiresAt, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (s *Server) setFlowCookie(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  time.Now().Add(flowCookieTTL),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (s *Server) clearFlowCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
