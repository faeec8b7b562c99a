// Package service implements the application's business logic on top of
// the repository layer.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"murmur/internal/models"
	"murmur/internal/oauth"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles identity: provider logins, password logins, and
// the session lifecycle.
type AuthService struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	sessionTTL  time.Duration
	newUsername func() string
}

// NewAuthService builds an AuthService. sessionTTL bounds how long an
// issued session stays valid.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		sessionTTL:  sessionTTL,
		newUsername: generateUsername,
	}
}

// LoginWithProvider resolves a provider identity to a local user,
// creating the user and linked account on first login, and issues a
// session. Repeat logins with the same provider identity reuse the
// existing user.
func (s *AuthService) LoginWithProvider(ctx context.Context, providerID string, profile *oauth.Profile) (*models.Session, *models.User, error) {
	account, err := s.users.GetAccount(ctx, providerID, profile.Sub)
	if err != nil {
		return nil, nil, err
	}

	if account != nil {
		user, err := s.users.GetByID(ctx, account.UserID)
		if err != nil {
			return nil, nil, err
		}
		if user == nil {
			return nil, nil, models.NewInternalError(fmt.Errorf("account %s/%s references missing user %s", providerID, profile.Sub, account.UserID))
		}
		session, err := s.IssueSession(ctx, user.ID)
		if err != nil {
			return nil, nil, err
		}
		return session, user, nil
	}

	username, err := s.allocateUsername(ctx)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
	}
	if profile.Name != "" {
		user.DisplayName = &profile.Name
	}
	if profile.Picture != "" {
		user.ImageURL = &profile.Picture
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	if err := s.users.CreateAccount(ctx, &models.Account{
		ProviderID:     providerID,
		ProviderUserID: profile.Sub,
		UserID:         user.ID,
		Email:          profile.Email,
		Picture:        profile.Picture,
	}); err != nil {
		return nil, nil, err
	}

	session, err := s.IssueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// SignUp registers a password-based user.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("username is taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithPassword verifies credentials and issues a session.
func (s *AuthService) LoginWithPassword(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, nil, models.NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, models.NewUnauthorizedError("invalid credentials")
	}

	session, err := s.IssueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// IssueSession creates a fresh session for the user.
func (s *AuthService) IssueSession(ctx context.Context, userID string) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL).Unix(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSession resolves a session ID to its user. An expired session
// is removed and reported as absent.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if session.ExpiresAt < time.Now().Unix() {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, nil
	}
	return s.users.GetByID(ctx, session.UserID)
}

// RevokeSession removes one session. Missing sessions are not an error,
// logout is idempotent.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// allocateUsername picks a generated handle no existing user holds,
// retrying on suffix collision.
func (s *AuthService) allocateUsername(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		name := s.newUsername()
		existing, err := s.users.GetByUsername(ctx, name)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return name, nil
		}
	}
	return "", models.NewInternalError(fmt.Errorf("could not allocate a unique username after 5 attempts"))
}

const usernameSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// generateUsername produces a default handle for provider-created users.
func generateUsername() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = usernameSuffixAlphabet[int(b[i])%len(usernameSuffixAlphabet)]
	}
	return "murmur_" + string(b)
}
