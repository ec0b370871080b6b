package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"review_backend/internal/feature/auth/domain/entity"
	"review_backend/internal/feature/auth/usecase"
	"review_backend/internal/platform/db"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(db.Config{Driver: db.DriverSQLite, SQLitePath: ":memory:"}, time.Second)
	require.NoError(t, err, "failed to initialize test database")
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.Migrate(gdb, &entity.User{}), "failed to migrate table")
	return gdb
}

func TestNewUserGorm(t *testing.T) {
	gdb := setupTestDB(t)

	repo := NewUserGorm(gdb)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestUserGorm_Create(t *testing.T) {
	t.Run("successful user creation", func(t *testing.T) {
		repo := NewUserGorm(setupTestDB(t))

		user := &entity.User{Name: "Test", Email: "test@example.com", Password: "hashed_password"}
		err := repo.Create(context.Background(), user)

		assert.NoError(t, err, "failed to create user")
		_, parseErr := uuid.Parse(user.ID)
		assert.NoError(t, parseErr, "ID is not a UUID")
		assert.False(t, user.CreatedAt.IsZero(), "CreatedAt is not set")
		assert.False(t, user.UpdatedAt.IsZero(), "UpdatedAt is not set")
	})

	t.Run("duplicate email error", func(t *testing.T) {
		repo := NewUserGorm(setupTestDB(t))

		err := repo.Create(context.Background(), &entity.User{Name: "A", Email: "duplicate@example.com", Password: "p1"})
		require.NoError(t, err, "failed to create first user")

		// Same email, different role: still a duplicate
		err = repo.Create(context.Background(), &entity.User{Name: "B", Email: "duplicate@example.com", Password: "p2", IsAdmin: true})

		assert.ErrorIs(t, err, usecase.ErrEmailAlreadyExists)
	})

	t.Run("nil user error", func(t *testing.T) {
		repo := NewUserGorm(setupTestDB(t))

		err := repo.Create(context.Background(), nil)

		assert.Error(t, err, "should return error for nil user")
	})
}

func TestUserGorm_FindByEmailAndRole(t *testing.T) {
	repo := NewUserGorm(setupTestDB(t))
	ctx := context.Background()

	admin := &entity.User{Name: "Admin", Email: "admin@example.com", Password: "h1", IsAdmin: true}
	user := &entity.User{Name: "User", Email: "user@example.com", Password: "h2"}
	require.NoError(t, repo.Create(ctx, admin))
	require.NoError(t, repo.Create(ctx, user))

	tests := []struct {
		name    string
		email   string
		isAdmin bool
		wantID  string
		wantErr error
	}{
		{name: "admin found", email: "admin@example.com", isAdmin: true, wantID: admin.ID},
		{name: "user found", email: "user@example.com", isAdmin: false, wantID: user.ID},
		{name: "admin email as user", email: "admin@example.com", isAdmin: false, wantErr: usecase.ErrUserNotFound},
		{name: "user email as admin", email: "user@example.com", isAdmin: true, wantErr: usecase.ErrUserNotFound},
		{name: "unknown email", email: "nobody@example.com", isAdmin: false, wantErr: usecase.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByEmailAndRole(ctx, tt.email, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, found, "user should be nil")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, found.ID)
			assert.Equal(t, tt.email, found.Email)
			assert.Equal(t, tt.isAdmin, found.IsAdmin)
		})
	}
}

func TestUserGorm_FindByID(t *testing.T) {
	repo := NewUserGorm(setupTestDB(t))
	ctx := context.Background()

	expected := &entity.User{Name: "Find", Email: "findbyid@example.com", Password: "hashed_password"}
	require.NoError(t, repo.Create(ctx, expected))

	t.Run("find user by ID successfully", func(t *testing.T) {
		found, err := repo.FindByID(ctx, expected.ID)

		require.NoError(t, err, "failed to find user")
		assert.Equal(t, expected.ID, found.ID, "ID does not match")
		assert.Equal(t, expected.Email, found.Email, "email does not match")
		assert.Equal(t, expected.Password, found.Password, "password does not match")
		assert.Equal(t, expected.CreatedAt.Unix(), found.CreatedAt.Unix(), "CreatedAt does not match")
	})

	t.Run("ID not found error", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.NewString())

		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
		assert.Nil(t, found, "user should be nil")
	})

	t.Run("malformed ID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, usecase.ErrInvalidID)
		assert.Nil(t, found, "user should be nil")
	})
}
