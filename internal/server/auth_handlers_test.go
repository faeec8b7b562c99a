package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"murmur/internal/models"
	"murmur/internal/oauth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joProfile = &oauth.Profile{
	Sub:     "sub-42",
	Email:   "jo@example.com",
	Name:    "Jo Doe",
	Picture: "https://example.com/jo.png",
}

// startLogin performs GET /login/google and returns the planted state
// and verifier cookies.
func startLogin(t *testing.T, app *fiber.App) (state, verifier string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login/google", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	state = cookieValue(resp, "google_oauth_state")
	verifier = cookieValue(resp, "code_verifier")
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state, loc.Query().Get("state"))
	return state, verifier
}

func callbackRequest(state, code, cookieState, cookieVerifier string) *http.Request {
	req := httptest.NewRequest(http.MethodGet,
		"/login/google/callback?state="+url.QueryEscape(state)+"&code="+url.QueryEscape(code), nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: "google_oauth_state", Value: cookieState})
	}
	if cookieVerifier != "" {
		req.AddCookie(&http.Cookie{Name: "code_verifier", Value: cookieVerifier})
	}
	return req
}

func TestGoogleLoginFlow_HappyPath(t *testing.T) {
	app, _, db, provider := setupTestApp(t, testConfig("test"))
	provider.addCode("code-1", joProfile)

	state, verifier := startLogin(t, app)

	resp, err := app.Test(callbackRequest(state, "code-1", state, verifier))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	sessionID := cookieValue(resp, SessionCookie)
	require.NotEmpty(t, sessionID)

	var session models.Session
	require.NoError(t, db.First(&session, "id = ?", sessionID).Error)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", session.UserID).Error)
	assert.Regexp(t, `^murmur_[a-z0-9]{5}$`, user.Username)

	// Flow cookies are consumed.
	assert.Empty(t, cookieValue(resp, "google_oauth_state"))
	assert.Empty(t, cookieValue(resp, "code_verifier"))
}

func TestGoogleCallback_StateMismatchIsBare400(t *testing.T) {
	app, _, _, provider := setupTestApp(t, testConfig("test"))
	provider.addCode("code-1", joProfile)

	state, verifier := startLogin(t, app)

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"MismatchedState", callbackRequest("evil-state", "code-1", state, verifier)},
		{"MissingStateCookie", callbackRequest(state, "code-1", "", verifier)},
		{"MissingVerifierCookie", callbackRequest(state, "code-1", state, "")},
		{"MissingCode", callbackRequest(state, "", state, verifier)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(tc.req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, cookieValue(resp, SessionCookie))
		})
	}
}

func TestGoogleCallback_CodeReplayRejected(t *testing.T) {
	app, _, _, provider := setupTestApp(t, testConfig("test"))
	provider.addCode("code-1", joProfile)

	state, verifier := startLogin(t, app)
	resp, err := app.Test(callbackRequest(state, "code-1", state, verifier))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// Replaying the consumed code with a fresh flow fails at the exchange.
	state2, verifier2 := startLogin(t, app)
	resp2, err := app.Test(callbackRequest(state2, "code-1", state2, verifier2))
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Empty(t, cookieValue(resp2, SessionCookie))
}

func TestGoogleLogin_RepeatLoginLinksSameAccount(t *testing.T) {
	app, _, db, provider := setupTestApp(t, testConfig("test"))
	provider.addCode("code-1", joProfile)
	provider.addCode("code-2", joProfile)

	for _, code := range []string{"code-1", "code-2"} {
		state, verifier := startLogin(t, app)
		resp, err := app.Test(callbackRequest(state, code, state, verifier))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	var userCount, accountCount, sessionCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Account{}).Count(&accountCount).Error)
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), accountCount)
	assert.Equal(t, int64(2), sessionCount)
}

func TestLogout_RevokesSessionAndClearsCookie(t *testing.T) {
	app, _, db, provider := setupTestApp(t, testConfig("test"))
	provider.addCode("code-1", joProfile)

	state, verifier := startLogin(t, app)
	resp, err := app.Test(callbackRequest(state, "code-1", state, verifier))
	require.NoError(t, err)
	resp.Body.Close()
	sessionID := cookieValue(resp, SessionCookie)
	require.NotEmpty(t, sessionID)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	logoutResp, err := app.Test(req)
	require.NoError(t, err)
	defer logoutResp.Body.Close()

	assert.Equal(t, http.StatusNoContent, logoutResp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", sessionID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Logging out again is a no-op.
	req2 := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req2.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	logout2, err := app.Test(req2)
	require.NoError(t, err)
	defer logout2.Body.Close()
	assert.Equal(t, http.StatusNoContent, logout2.StatusCode)
}

func TestSignupAndPasswordLogin(t *testing.T) {
	app, _, _, _ := setupTestApp(t, testConfig("test"))

	signup := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		bytes.NewReader([]byte(`{"username":"jolene","password":"Str0ng!Passw0rd"}`)))
	signup.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(signup)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewReader([]byte(`{"username":"jolene","password":"Str0ng!Passw0rd"}`)))
	login.Header.Set("Content-Type", "application/json")
	loginResp, err := app.Test(login)
	require.NoError(t, err)
	defer loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	assert.NotEmpty(t, cookieValue(loginResp, SessionCookie))

	bad := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewReader([]byte(`{"username":"jolene","password":"wrong"}`)))
	bad.Header.Set("Content-Type", "application/json")
	badResp, err := app.Test(bad)
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, badResp.StatusCode)
}
