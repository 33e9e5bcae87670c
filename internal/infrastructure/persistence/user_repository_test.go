package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

func TestGormUserRepository(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormUserRepository(db.DB)
	ctx := context.Background()

	user, err := identity.NewUser("Ada", "Ada@Example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("email lookups are case-insensitive", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "  ADA@example.COM ")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.VerifyPassword("password123"))

		exists, err := repo.ExistsByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup, err := identity.NewUser("Other", "ada@example.com", "password456")
		require.NoError(t, err)

		err = repo.Create(ctx, dup)

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("update profile and login stamp", func(t *testing.T) {
		require.NoError(t, user.UpdateProfile("Ada L.", "https://cdn.example.com/ada.png"))
		user.RecordLogin()
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", found.Name)
		assert.Equal(t, "https://cdn.example.com/ada.png", found.ProfilePicture)
		assert.NotNil(t, found.LastLoginAt)
	})

	t.Run("missing users", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByEmail(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		ghost, err := identity.NewUser("Ghost", "ghost@example.com", "password123")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Update(ctx, ghost), shared.ErrNotFound)
	})
}
