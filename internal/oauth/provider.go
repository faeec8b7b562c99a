// Package oauth implements the OAuth2 + PKCE login providers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/oauth2"
)

// ErrProviderProtocol marks failures where the provider rejected the
// request at the protocol level (bad code, bad verifier, expired grant)
// as opposed to transport or server failures.
var ErrProviderProtocol = errors.New("oauth provider rejected request")

// Profile is the subset of provider identity used to create or look up
// a local account.
type Profile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Provider abstracts one OAuth2 identity provider.
type Provider interface {
	// Name is the stable provider identifier stored on accounts.
	Name() string
	// AuthCodeURL builds the authorization redirect for the given CSRF
	// state and PKCE verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange swaps an authorization code for tokens, proving the PKCE
	// verifier.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	// Profile resolves the identity behind a token.
	Profile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}

// GenerateState returns a random URL-safe state parameter.
func GenerateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}
