package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// googleEndpoint is Google's OAuth2 endpoint. Credentials travel in the
// POST body, which is what Google's token endpoint expects.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Google implements Provider against Google's OpenID Connect surface.
type Google struct {
	config      *oauth2.Config
	userinfoURL string
}

// GoogleOption overrides parts of the provider, used by tests to point
// at a local stub.
type GoogleOption func(*Google)

// WithEndpoint replaces the authorization and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(g *Google) {
		g.config.Endpoint = endpoint
	}
}

// WithUserinfoURL replaces the userinfo endpoint.
func WithUserinfoURL(url string) GoogleOption {
	return func(g *Google) {
		g.userinfoURL = url
	}
}

// NewGoogle builds a Google provider from client credentials and the
// registered redirect URL.
func NewGoogle(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *Google {
	g := &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleEndpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (g *Google) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s", ErrProviderProtocol, retrieveErr.Error())
		}
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return token, nil
}

// Profile prefers the id_token claims bundled with the token response
// and falls back to the userinfo endpoint when no id_token is present.
// The id_token arrives over the direct TLS channel to the token
// endpoint, so its claims are trusted without local signature checks.
func (g *Google) Profile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		if profile, err := profileFromIDToken(idToken); err == nil {
			return profile, nil
		}
	}
	return g.fetchUserinfo(ctx, token)
}

type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

func profileFromIDToken(idToken string) (*Profile, error) {
	var claims idTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("id_token missing sub claim")
	}
	return &Profile{
		Sub:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (g *Google) fetchUserinfo(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrProviderProtocol, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Sub == "" {
		return nil, fmt.Errorf("userinfo missing sub")
	}
	return &profile, nil
}
