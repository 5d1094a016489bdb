package service

import (
	"context"
	"errors"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrIdentityTaken is returned when registering with a username or email
// already in use.
var ErrIdentityTaken = errors.New("username or email already taken")

// UserService handles user registration and lookup.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a new user with a hashed password. New users always start
// with the NORMAL role; roles are elevated out of band.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	taken, err := s.userRepo.IdentityTaken(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrIdentityTaken
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         model.RoleNormal,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Authenticate verifies credentials by username or email and returns the user.
func (s *UserService) Authenticate(ctx context.Context, identity, password string) (*model.User, error) {
	user, err := s.userRepo.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user, or nil when absent.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
