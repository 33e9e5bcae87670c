package handler

import (
	"time"

	appidentity "github.com/storefront/backend/internal/application/identity"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Password       string `json:"password" binding:"required,min=8,max=72"`
	ProfilePicture string `json:"profile_picture" binding:"omitempty,max=500"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// UpdateProfileRequest represents the request body for a profile change.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=100"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=500"`
}

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token TokenResponse         `json:"token"`
	User  appidentity.UserInfo `json:"user"`
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
