package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository stores shoppers. Emails are matched in their normalized
// (trimmed, lower-cased) form.
type UserRepository interface {
	// Create fails with shared.ErrAlreadyExists when the email is taken
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
