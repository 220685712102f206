package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"library_api/internal/common"
	"library_api/internal/common/security"
	"library_api/internal/domain/model"
	"library_api/internal/domain/repository"
	"library_api/internal/platform/cache"
	"library_api/internal/platform/config"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   cache.TokenStore
}

func NewAuthService(userRepo repository.UserRepository, tokens cache.TokenStore) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type SignUpRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6,max=48"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid sign-up payload: %w", common.ErrValidation)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleCustomer, // Default role
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on a unique-violation race.
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{AccessToken: token}, nil
}

func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid sign-in payload: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Wrong password is indistinguishable from an unknown email.
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrNotFound
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{AccessToken: token}, nil
}

// SignOut denylists the presented token for the remainder of its lifetime.
// An unavailable store is logged and tolerated: the token then simply lives
// until natural expiry, which never grants access it did not already have.
func (s *AuthService) SignOut(ctx context.Context, userID, accessToken string) error {
	if s.tokens == nil {
		log.Println("token store is not initialized, skipping token invalidation")
		return nil
	}
	if err := s.tokens.Set(ctx, cache.DenyKey(accessToken), userID, config.AppConfig.TokenDenyTTL); err != nil {
		log.Printf("failed to denylist token: %v", err)
	}
	return nil
}
