package identity

import "github.com/storefront/backend/internal/domain/shared"

// Aggregate type constant for User
const AggregateTypeUser = "User"

// EventTypeUserRegistered is published after a successful registration
const EventTypeUserRegistered = "identity.user_registered"

// UserRegisteredEvent is published when a user signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Email:           user.Email,
		Name:            user.Name,
	}
}
