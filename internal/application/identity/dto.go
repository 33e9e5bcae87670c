package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/identity"
)

// RegisterInput contains the input for user registration
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
	TokenType   string
	User        UserInfo
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	// RemainingTTL is how long the token would still be accepted
	RemainingTTL time.Duration
}

// UpdateProfileInput contains the profile fields to change; nil leaves a field as is
type UpdateProfileInput struct {
	Name           *string
	ProfilePicture *string
}

// UserInfo contains the public view of a user
type UserInfo struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToUserInfo converts a domain User to UserInfo
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}
