package service

import (
	"context"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/oauth"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Account{}, &models.Message{}, &models.Note{}, &models.Session{},
	))
	return db
}

func newAuthService(db *gorm.DB, ttl time.Duration) *AuthService {
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		ttl,
	)
}

var googleProfile = &oauth.Profile{
	Sub:     "sub-42",
	Email:   "jo@example.com",
	Name:    "Jo Doe",
	Picture: "https://example.com/jo.png",
}

func TestAuthService_FirstProviderLoginCreatesUserAndAccount(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	session, user, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, user)

	assert.Equal(t, user.ID, session.UserID)
	assert.Regexp(t, `^murmur_[a-z0-9]{5}$`, user.Username)
	require.NotNil(t, user.DisplayName)
	assert.Equal(t, "Jo Doe", *user.DisplayName)

	var account models.Account
	require.NoError(t, db.Where("provider_id = ? AND provider_user_id = ?", "google", "sub-42").First(&account).Error)
	assert.Equal(t, user.ID, account.UserID)
	assert.Equal(t, "jo@example.com", account.Email)
}

func TestAuthService_GeneratedUsernameRetriesOnCollision(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	taken := &models.User{ID: "user-taken", Username: "murmur_aaaaa"}
	require.NoError(t, db.Create(taken).Error)

	// First two draws collide with the existing handle.
	draws := []string{"murmur_aaaaa", "murmur_aaaaa", "murmur_bbbbb"}
	svc.newUsername = func() string {
		name := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return name
	}

	_, user, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)
	assert.Equal(t, "murmur_bbbbb", user.Username)
}

func TestAuthService_GeneratedUsernameGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: "user-taken", Username: "murmur_aaaaa"}).Error)
	svc.newUsername = func() string { return "murmur_aaaaa" }

	_, _, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.AsAppError(err).Code)
}

func TestAuthService_RepeatProviderLoginReusesUser(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	s1, u1, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)
	s2, u2, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.NotEqual(t, s1.ID, s2.ID)

	var userCount, accountCount, sessionCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Account{}).Count(&accountCount).Error)
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), accountCount)
	assert.Equal(t, int64(2), sessionCount)
}

func TestAuthService_ValidateSession(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	session, user, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)

	resolved, err := svc.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.ID)

	missing, err := svc.ValidateSession(ctx, "no-such-session")
	require.NoError(t, err)
	assert.Nil(t, missing)

	anon, err := svc.ValidateSession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, anon)
}

func TestAuthService_ExpiredSessionIsRemoved(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, -time.Minute)
	ctx := context.Background()

	session, _, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)

	resolved, err := svc.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	// Lazy cleanup removed the row.
	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", session.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAuthService_RevokeSessionIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	session, _, err := svc.LoginWithProvider(ctx, "google", googleProfile)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(ctx, session.ID))
	require.NoError(t, svc.RevokeSession(ctx, session.ID))

	resolved, err := svc.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestAuthService_SignupAndPasswordLogin(t *testing.T) {
	db := setupServiceDB(t)
	svc := newAuthService(db, time.Hour)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "jolene", "Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = svc.SignUp(ctx, "jolene", "An0ther!Passw0rd")
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.AsAppError(err).Code)

	session, logged, err := svc.LoginWithPassword(ctx, "jolene", "Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, session.ID)

	_, _, err = svc.LoginWithPassword(ctx, "jolene", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.AsAppError(err).Code)

	_, _, err = svc.LoginWithPassword(ctx, "nobody", "whatever")
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.AsAppError(err).Code)
}
