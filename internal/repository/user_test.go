package repository

import (
	"context"
	"regexp"
	"testing"

	"murmur/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username"}).
			AddRow("user-1", "alice")
		mock.ExpectQuery(query).WithArgs("alice", 1).WillReturnRows(rows)

		user, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "user-1", user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFoundIsNilNil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ghost", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByUsername(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_AccountLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{ID: "user-1", Username: "henry"}
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.CreateAccount(ctx, &models.Account{
		ProviderID: "google", ProviderUserID: "sub-123", UserID: user.ID, Email: "henry@example.com",
	}))

	account, err := repo.GetAccount(ctx, "google", "sub-123")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, user.ID, account.UserID)

	missing, err := repo.GetAccount(ctx, "google", "sub-999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "user-1", Username: "iris"}))

	err := repo.UpdateProfile(ctx, "user-1", map[string]any{
		"bio":        "hello there",
		"quiet_mode": true,
	})
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "hello there", *user.Bio)
	assert.True(t, user.QuietMode)

	err = repo.UpdateProfile(ctx, "nobody", map[string]any{"bio": "x"})
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)
}
