package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/backend/internal/domain/shared"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is a registered shopper
type User struct {
	shared.BaseAggregateRoot
	Name           string
	Email          string
	PasswordHash   string
	ProfilePicture string
	LastLoginAt    *time.Time
}

// NewUser creates a new user, hashing the plaintext password
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      passwordHash,
	}

	user.AddDomainEvent(NewUserRegisteredEvent(user))

	return user, nil
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// UpdateProfile changes the display name and profile picture
func (u *User) UpdateProfile(name, profilePicture string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	if len(profilePicture) > 500 {
		return shared.ErrValidation.WithMessage("Profile picture reference cannot exceed 500 characters")
	}

	u.Name = name
	u.ProfilePicture = strings.TrimSpace(profilePicture)
	u.Touch()
	u.IncrementVersion()

	return nil
}

// RecordLogin stamps a successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}

func validateName(name string) error {
	if name == "" {
		return shared.ErrValidation.WithMessage("Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.ErrValidation.WithMessage("Name cannot exceed 100 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.ErrValidation.WithMessage("Password must be at least 8 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return shared.ErrValidation.WithMessage("Password cannot exceed 72 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.ErrValidation.WithMessage("Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.ErrValidation.WithMessage("Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.ErrValidation.WithMessage("Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
