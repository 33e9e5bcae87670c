package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Reasons attached to authentication errors
const (
	ReasonEmailExists        = "EMAIL_EXISTS"
	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
)

// AuthService handles registration, login, logout and the current user's profile
type AuthService struct {
	userRepo       identity.UserRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout only clears the client side cookie.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserInfo, error) {
	email := identity.NormalizeEmail(input.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, emailTaken()
	}

	user, err := identity.NewUser(input.Name, email, input.Password)
	if err != nil {
		return nil, err
	}
	if input.ProfilePicture != "" {
		if err := user.UpdateProfile(user.Name, input.ProfilePicture); err != nil {
			return nil, err
		}
	}

	// The unique index still catches a concurrent registration.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log(ctx).Info("User registered", zap.String("user_id", user.ID.String()))

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, user.GetDomainEvents()...); err != nil {
			s.log(ctx).Error("Failed to publish user events", zap.Error(err))
		}
		user.ClearDomainEvents()
	}

	info := ToUserInfo(user)
	return &info, nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := identity.NormalizeEmail(input.Email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		s.log(ctx).Warn("Login attempt for unknown email")
		return nil, invalidCredentials()
	}

	if !user.VerifyPassword(input.Password) {
		s.log(ctx).Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, invalidCredentials()
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.log(ctx).Error("Failed to generate access token", zap.Error(err))
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login over the timestamp
		s.log(ctx).Error("Failed to record login", zap.Error(err))
	}

	s.log(ctx).Info("User logged in", zap.String("user_id", user.ID.String()))

	return &LoginResult{
		AccessToken: token.Value,
		TokenID:     token.ID,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		User:        ToUserInfo(user),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.log(ctx).Info("User logout", zap.String("user_id", input.UserID.String()))

	if s.blacklist == nil || input.TokenJTI == "" || input.RemainingTTL <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.RemainingTTL); err != nil {
		s.log(ctx).Error("Failed to revoke token", zap.Error(err))
		return err
	}
	return nil
}

// GetCurrentUser returns the authenticated user. A token for a user that no
// longer exists is treated as unauthenticated.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("User not found")
		}
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// UpdateProfile changes the current user's name and profile picture
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("User not found")
		}
		return nil, err
	}

	name, picture := user.Name, user.ProfilePicture
	if input.Name != nil {
		name = *input.Name
	}
	if input.ProfilePicture != nil {
		picture = *input.ProfilePicture
	}
	if err := user.UpdateProfile(name, picture); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	info := ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

func emailTaken() error {
	return shared.ErrAlreadyExists.WithMessage("Email is already registered").
		WithDetails(map[string]any{"reason": ReasonEmailExists})
}

func invalidCredentials() error {
	return shared.ErrUnauthorized.WithMessage("Invalid email or password").
		WithDetails(map[string]any{"reason": ReasonInvalidCredentials})
}
