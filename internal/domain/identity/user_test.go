package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := NewUser(" Alice ", "  Alice@Example.COM ", "s3cretpass")
		require.NoError(t, err)

		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEqual(t, "s3cretpass", user.PasswordHash)
		assert.True(t, user.VerifyPassword("s3cretpass"))
		assert.False(t, user.VerifyPassword("wrong-pass"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserRegistered, events[0].EventType())
	})

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantMsg  string
	}{
		{"empty name", "", "a@b.co", "password1", "Name cannot be empty"},
		{"bad email", "Bob", "not-an-email", "password1", "Invalid email format"},
		{"empty email", "Bob", " ", "password1", "Email cannot be empty"},
		{"short password", "Bob", "a@b.co", "short", "at least 8"},
		{"long password", "Bob", "a@b.co", strings.Repeat("x", 73), "cannot exceed 72"},
	}
	for _, tt := range tests {
		t.Run("fails with "+tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestUser_UpdateProfile(t *testing.T) {
	user, err := NewUser("Alice", "alice@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, user.UpdateProfile("Alice B", "avatars/a.png"))
	assert.Equal(t, "Alice B", user.Name)
	assert.Equal(t, "avatars/a.png", user.ProfilePicture)
	assert.Equal(t, 2, user.GetVersion())

	assert.ErrorIs(t, user.UpdateProfile("", ""), shared.ErrValidation)
}

func TestUser_RecordLogin(t *testing.T) {
	user, err := NewUser("Alice", "alice@example.com", "password1")
	require.NoError(t, err)
	assert.Nil(t, user.LastLoginAt)

	user.RecordLogin()
	assert.NotNil(t, user.LastLoginAt)
}
